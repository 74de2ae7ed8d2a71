// Package wizard implements the step controller of the property form: a
// finite-state machine over the schema's ordered steps that only advances
// when every field of the active step validates, submits on the last step and
// enters a result phase after a successful prediction.
//
// At most one prediction request is in flight per Controller. Responses that
// arrive after Reset or Close are discarded.
package wizard
