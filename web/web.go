// Package web holds the HTML templates and static assets compiled into the
// server binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Templates returns the page templates rooted at templates/.
func Templates() fs.FS {
	return mustSub(templateFiles, "templates")
}

// Static returns the public assets rooted at static/.
func Static() fs.FS {
	return mustSub(staticFiles, "static")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
