package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SongFileHandler serves the raw song pages.
type SongFileHandler struct {
	dir string
}

// NewSongFileHandler creates a handler rooted at the songs directory.
func NewSongFileHandler(dir string) *SongFileHandler {
	return &SongFileHandler{dir: filepath.Clean(dir)}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal, not hidden) and returns its absolute path under dir.
func (h *SongFileHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.dir, cleaned)
	if !strings.HasPrefix(abs, h.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes songs directory")
	}
	return abs, nil
}

// ServeFile handles GET /canti/{filename}.
func (h *SongFileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}
