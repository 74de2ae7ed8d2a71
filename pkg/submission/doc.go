// Package submission turns a validated form snapshot into the feature vector
// sent to the prediction service, and a successful answer into a
// PredictionRecord.
package submission
