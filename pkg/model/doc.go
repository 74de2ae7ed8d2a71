// Package model defines the typed property form consumed by the validator,
// the wizard and the terminal view. A Schema lists FieldSpec records (one
// small configuration record per field: kind, bounds, required flag, default
// source) and an ordered set of Steps that partition those fields. Raw input
// stays a string until submission, where it is coerced into a FeatureVector.
// PredictionRecord is the persisted outcome of one completed prediction.
package model
