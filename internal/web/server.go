// Package web provides the browser interface for Steward: a small
// chat page talking to the command API, plus server-side markdown
// rendering for responses.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFiles embed.FS

// Handler returns an http.Handler that serves the UI assets.
func Handler() http.Handler {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "" {
			r.URL.Path = "/index.html"
		}
		fileServer.ServeHTTP(w, r)
	})
}

// RegisterRoutes adds the UI routes to a mux under /ui.
func RegisterRoutes(mux *http.ServeMux) {
	handler := Handler()

	mux.HandleFunc("/ui", func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = "/"
		handler.ServeHTTP(w, r)
	})

	mux.HandleFunc("/ui/", func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = r.URL.Path[len("/ui"):]
		if r.URL.Path == "" {
			r.URL.Path = "/"
		}
		handler.ServeHTTP(w, r)
	})

	mux.HandleFunc("POST /ui/render", handleRender)
}
