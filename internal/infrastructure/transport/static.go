package transport

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var embeddedWeb embed.FS

// StaticHandler serves the embedded browser UI.
func StaticHandler() (http.Handler, error) {
	sub, err := fs.Sub(embeddedWeb, "web")
	if err != nil {
		return nil, err
	}
	return http.FileServer(http.FS(sub)), nil
}
