// Package form holds the mutable state of one property form: raw field
// values, per-field validation messages and a single submission-level error.
//
// Raw strings are authoritative. Numeric coercion is left to the submission
// step, so a Store never rewrites what the user typed.
package form
