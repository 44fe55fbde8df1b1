// Package assets embeds the default palette and the SQL migrations so the
// server runs without any files next to the binary.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed palette.yaml migrations/*.sql
var FS embed.FS

// DefaultPalette returns the raw YAML of the built-in palette.
func DefaultPalette() ([]byte, error) {
	return FS.ReadFile("palette.yaml")
}

// Migrations returns the migrations directory as its own filesystem root.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
