package server

import (
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// handleStatic serves /static/, /assets/ and /vendor/ from the frontend filesystem.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if !s.serveStaticFile(w, r, name) {
		http.NotFound(w, r)
	}
}

// handleIndex is the SPA fallback: files at the frontend root are served as-is, anything
// else gets index.html.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name != "" && !strings.Contains(name, "/") && s.serveStaticFile(w, r, name) {
		return
	}
	if !s.serveStaticFile(w, r, "index.html") {
		writeError(w, http.StatusNotFound, "launcher frontend not found", "NOT_FOUND")
	}
}

// serveStaticFile writes name from the frontend filesystem and reports whether it existed.
func (s *Server) serveStaticFile(w http.ResponseWriter, r *http.Request, name string) bool {
	if name == "" || name == "." || !fs.ValidPath(name) {
		return false
	}
	f, err := s.static.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	if name == "index.html" {
		// The launcher shell must never be cached across upgrades.
		w.Header().Set("Cache-Control", "no-cache")
	}
	if rs, ok := f.(io.ReadSeeker); ok {
		w.Header().Set("Content-Type", sniffContentType(name, rs))
		http.ServeContent(w, r, info.Name(), modTime(info), rs)
		return true
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", contentType(name, data))
	_, _ = w.Write(data)
	return true
}

// Embedded files carry a zero modification time.
func modTime(info fs.FileInfo) time.Time {
	if t := info.ModTime(); !t.IsZero() {
		return t
	}
	return startedAt
}

var startedAt = time.Now()
