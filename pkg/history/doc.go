// Package history keeps the list of past predictions: newest first, unique by
// record identity, persisted as one JSON array under a single blob key.
//
// The snapshot is read once when the Store is opened and fully rewritten on
// every change. Deletion is two-phase (MarkForDelete, then ConfirmDelete or
// CancelDelete). A confirmed removal is persisted immediately; the removed
// record stays visible through Departing, flagged PendingRemoval, until it is
// finalised so views can animate it out.
package history
