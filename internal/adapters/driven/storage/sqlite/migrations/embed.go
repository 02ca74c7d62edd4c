// Package migrations embeds SQL migration files for the SQLite stores.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed history/*.sql vectors/*.sql
var files embed.FS

// History returns the migrations of the Q&A history database.
func History() fs.FS {
	return sub("history")
}

// Vectors returns the migrations of a per-collection vector database.
func Vectors() fs.FS {
	return sub("vectors")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		panic(err) // dir is a compile-time constant
	}
	return fsys
}
