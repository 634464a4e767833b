package http

import (
	"bytes"
	"embed"
	"io/fs"
	stdhttp "net/http"
	"time"
)

//go:embed static
var staticFS embed.FS

//go:embed static/favicon.ico
var favicon []byte

func faviconHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if len(favicon) == 0 {
		w.WriteHeader(stdhttp.StatusNotFound)
		return
	}

	reader := bytes.NewReader(favicon)
	w.Header().Set("Content-Type", "image/x-icon")
	stdhttp.ServeContent(w, r, "favicon.ico", time.Time{}, reader)
}

func staticHandler() stdhttp.Handler {
	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embedded tree always contains static/; reaching this is a
		// build defect.
		panic(err)
	}

	return stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.FS(assets)))
}
