package formschema

import (
	"embed"
	"io/fs"
)

//go:embed schemas/*
var embeddedSchemas embed.FS

// EmbeddedFS returns the bundled form schemas. Callers may pass this
// filesystem to LoadFS to use the default configuration.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedSchemas, "schemas")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}
