// Package web ships the dashboard HTML templates.
package web

import (
	"embed"
	"io/fs"
)

//go:embed views
var files embed.FS

// Views returns the template tree rooted at views/.
func Views() fs.FS {
	sub, err := fs.Sub(files, "views")
	if err != nil {
		panic(err)
	}
	return sub
}
