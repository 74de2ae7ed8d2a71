// Package validation implements the per-field rules of the property form.
//
// Each field is described by a model.FieldSpec (kind, bounds, required flag)
// and checked by the generic Field function; Validator binds a schema's field
// specs to a clock so callers can validate by name. CheckSchema reports
// problems in schema documents before they are used.
package validation
