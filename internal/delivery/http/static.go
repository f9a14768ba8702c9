package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// NewStaticHandler serves the single page app in dir. Paths that do not name a
// file fall back to index.html so client side routes work on reload.
// It returns nil when dir is empty or not a directory.
func NewStaticHandler(dir string) http.Handler {
	if dir == "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil
	}
	index := filepath.Join(abs, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		urlPath := path.Clean("/" + r.URL.Path)
		if urlPath != "/" {
			filePath := filepath.Join(abs, filepath.FromSlash(urlPath))
			if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
				http.ServeFile(w, r, filePath)
				return
			}
		}
		http.ServeFile(w, r, index)
	})
}
