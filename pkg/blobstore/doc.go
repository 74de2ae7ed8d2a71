// Package blobstore provides the key-value medium the prediction history is
// persisted in. A Store keeps opaque byte blobs under string keys; callers own
// the encoding.
//
// Backends: in-memory, a single file per key, SQLite (modernc.org/sqlite),
// Badger and Redis. Open selects one from a Config.
package blobstore
