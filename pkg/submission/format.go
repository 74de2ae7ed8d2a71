package submission

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyLocales = map[string]language.Tag{
	"USD": language.AmericanEnglish,
	"INR": language.MustParse("en-IN"),
	"GBP": language.BritishEnglish,
	"EUR": language.German,
}

// FormatPrice renders a whole-unit amount with the grouping of the
// currency's locale, e.g. "USD 450,000".
func FormatPrice(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = BaseCurrency
	}
	tag, ok := currencyLocales[code]
	if !ok {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf("%s %.0f", code, amount)
}
