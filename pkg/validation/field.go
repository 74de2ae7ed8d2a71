package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-homeval/pkg/model"
)

// Messages shown to users. Bound-dependent messages are built from the field
// configuration.
const (
	MsgRequired      = "This field is required"
	MsgNotANumber    = "Must be a number"
	MsgHalfStep      = "Must be a whole number or end in .5"
	MsgWholeNumber   = "Must be a whole number"
	MsgInvalidOption = "Must be one of %s"
	MsgPostalCode    = "Must be a %d-digit number"
	MsgYearRange     = "Must be between %d and %d"
)

// MinYear is the lower bound applied to year fields without an explicit Min.
const MinYear = 1800

const maxYear = 9999

var (
	numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	yearPattern   = regexp.MustCompile(`^\d{4}$`)
)

// Context carries everything a single field check may depend on besides its
// own raw value.
type Context struct {
	// CurrentYear caps year fields. Zero leaves only the field's Max, if any,
	// as the cap; Validator always fills it from its clock.
	CurrentYear int
	// Values holds the raw values of the other fields, used by DependsOn.
	Values map[string]string
}

// Field validates raw against spec and returns a message, or "" when the
// value is acceptable. It is a pure function of its arguments.
func Field(spec model.FieldSpec, raw string, ctx Context) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		if spec.Required {
			return MsgRequired
		}
		return ""
	}

	switch spec.Kind {
	case model.FieldKindPostalCode:
		return postalCode(spec, value)
	case model.FieldKindYear:
		return year(spec, value, ctx)
	case model.FieldKindEnumerated:
		return enumerated(spec, value)
	case model.FieldKindHalfStep:
		return halfStep(spec, value)
	case model.FieldKindInteger:
		return integer(spec, value)
	default:
		return number(spec, value)
	}
}

func postalCode(spec model.FieldSpec, value string) string {
	if len(value) != spec.Digits {
		return fmt.Sprintf(MsgPostalCode, spec.Digits)
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return fmt.Sprintf(MsgPostalCode, spec.Digits)
		}
	}
	return ""
}

func year(spec model.FieldSpec, value string, ctx Context) string {
	current := ctx.CurrentYear
	if current == 0 {
		current = maxYear
	}
	lower := MinYear
	if spec.Min != nil {
		lower = int(*spec.Min)
	}
	if spec.Max != nil && int(*spec.Max) < current {
		current = int(*spec.Max)
	}

	if spec.AllowZero && isZero(value) {
		return ""
	}
	if !yearPattern.MatchString(value) {
		return fmt.Sprintf(MsgYearRange, lower, current)
	}
	y, _ := strconv.Atoi(value)
	if y < lower || y > current {
		return fmt.Sprintf(MsgYearRange, lower, current)
	}

	if spec.DependsOn == "" {
		return ""
	}
	ref := strings.TrimSpace(ctx.Values[spec.DependsOn])
	if !yearPattern.MatchString(ref) {
		return ""
	}
	base, _ := strconv.Atoi(ref)
	if y < base {
		return fmt.Sprintf(MsgYearRange, base, current)
	}
	return ""
}

func enumerated(spec model.FieldSpec, value string) string {
	options := spec.OptionValues()
	for _, opt := range options {
		if opt == value {
			return ""
		}
	}
	return fmt.Sprintf(MsgInvalidOption, strings.Join(options, ", "))
}

func halfStep(spec model.FieldSpec, value string) string {
	n, ok := parseNumber(value)
	if !ok {
		return MsgNotANumber
	}
	if msg := bounds(spec, n); msg != "" {
		return msg
	}
	if math.Mod(n, 0.5) != 0 {
		return MsgHalfStep
	}
	return ""
}

func integer(spec model.FieldSpec, value string) string {
	n, ok := parseNumber(value)
	if !ok {
		return MsgNotANumber
	}
	if n != math.Trunc(n) {
		return MsgWholeNumber
	}
	return bounds(spec, n)
}

func number(spec model.FieldSpec, value string) string {
	n, ok := parseNumber(value)
	if !ok {
		return MsgNotANumber
	}
	return bounds(spec, n)
}

// bounds applies Min/Max. Numeric fields without a Min are non-negative.
func bounds(spec model.FieldSpec, n float64) string {
	lower := 0.0
	if spec.Min != nil {
		lower = *spec.Min
	}
	if spec.Max != nil {
		if n < lower || n > *spec.Max {
			return fmt.Sprintf("Must be between %s and %s", formatBound(lower), formatBound(*spec.Max))
		}
		return ""
	}
	if n < lower {
		return fmt.Sprintf("Must be %s or greater", formatBound(lower))
	}
	return ""
}

func parseNumber(value string) (float64, bool) {
	if !numberPattern.MatchString(value) {
		return 0, false
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func isZero(value string) bool {
	n, ok := parseNumber(value)
	return ok && n == 0
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
