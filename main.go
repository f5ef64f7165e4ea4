package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/httpmw"
	"github.com/Eoha39/clicker-webapp/ui/page"

	"github.com/a-h/templ"
)

const PORT = "3000"

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Serves the browser assets from disk with no game server behind them.
// "/" falls back to a preview of a fresh game when the directory has no
// index.html.
func main() {
	dir := flag.String("dir", ".", "directory to serve")
	flag.Parse()

	h := httpmw.Chain(
		newStaticHandler(*dir),
		httpmw.WithRequestID,
		httpmw.WithAccessLog(log.Default()),
		httpmw.WithRecover(log.Default()),
	)

	addr := ":" + PORT
	log.Printf("GigaCode Clicker static server running at http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, h))
}

func newStaticHandler(root string) http.Handler {
	preview := templ.Handler(page.HomePage(game.NewEngine(catalog.Default()).View()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if rel == "" {
			rel = "index.html"
		}

		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		switch {
		case errors.Is(err, fs.ErrNotExist) && rel == "index.html":
			preview.ServeHTTP(w, r)
			return
		case errors.Is(err, fs.ErrNotExist):
			http.Error(w, "File not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}

		contentType, ok := mimeTypes[path.Ext(rel)]
		if !ok {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	})
}
