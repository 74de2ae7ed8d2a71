package validation

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-homeval/pkg/formschema"
)

// SchemaIssue represents a schema problem with the field it concerns, when
// one can be identified.
type SchemaIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of CheckSchema.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Name   string        `json:"name,omitempty"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

var fieldRef = regexp.MustCompile(`field "([^"]+)"`)

// CheckSchema parses a schema document and reports whether it can drive the
// form. source is only used in messages.
func CheckSchema(raw []byte, source string) SchemaValidationResult {
	schema, err := formschema.Parse(raw, source)
	if err != nil {
		return SchemaValidationResult{Issues: []SchemaIssue{issueFromError(err)}}
	}
	result := SchemaValidationResult{Valid: true, Name: schema.Name}
	if schema.Deprecated {
		result.Issues = append(result.Issues, SchemaIssue{Message: "schema is deprecated"})
	}
	return result
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}
	msg := strings.TrimSpace(err.Error())
	if idx := strings.LastIndex(msg, ": model: "); idx >= 0 {
		msg = msg[idx+len(": model: "):]
	}

	issue := SchemaIssue{Message: msg}
	if m := fieldRef.FindStringSubmatch(msg); len(m) == 2 {
		issue.Field = m[1]
	}
	return issue
}
