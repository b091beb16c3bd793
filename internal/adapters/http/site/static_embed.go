package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

//go:embed templates/*.html
var templateFS embed.FS

//go:embed content/*.md
var contentFS embed.FS

// FS returns an http.FileSystem for the embedded assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Only fails for an invalid path; expose the raw FS.
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
