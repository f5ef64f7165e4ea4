// Package staticfiles embeds the browser assets served under /static/.
package staticfiles

import (
	"embed"
	"io/fs"
)

//go:embed css/* js/*
var embedded embed.FS

// EmbeddedFS returns the assets rooted so that "css/style.css" resolves.
func EmbeddedFS() fs.FS {
	return embedded
}
