package server

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ashenafi-pixel/arcade-launcher/library"
)

// sanitizeAssetPath turns the wildcard part of /games/{id}/{path...} into a clean relative
// path, or "" when it would leave the game directory.
func sanitizeAssetPath(p string) (string, bool) {
	p = strings.ReplaceAll(p, `\`, "/")
	if strings.ContainsRune(p, 0) {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	clean := filepath.Clean("/" + p)
	return strings.TrimPrefix(filepath.ToSlash(clean), "/"), true
}

// handleGameRoot redirects /games/{id} to the directory form so relative asset URLs resolve.
func (s *Server) handleGameRoot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.lib.Exists(id) {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/games/"+id+"/", http.StatusMovedPermanently)
}

// handleGameAsset serves a file from a game directory. Directories resolve to their
// index.html, and HTML documents get the helper bundle injected.
func (s *Server) handleGameAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !library.ValidID(id) || !s.lib.Exists(id) {
		http.NotFound(w, r)
		return
	}
	rel, ok := sanitizeAssetPath(r.PathValue("path"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	root := s.lib.GamePath(id)
	fpath := filepath.Join(root, filepath.FromSlash(rel))
	if relToRoot, err := filepath.Rel(root, fpath); err != nil || strings.HasPrefix(relToRoot, "..") {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(fpath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		fpath = filepath.Join(fpath, "index.html")
		info, err = os.Stat(fpath)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
	}
	if !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	if isHTMLPath(fpath) {
		s.serveInjectedHTML(w, r, fpath, info.ModTime())
		return
	}
	f, err := os.Open(fpath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", sniffContentType(fpath, f))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) serveInjectedHTML(w http.ResponseWriter, r *http.Request, fpath string, mod time.Time) {
	doc, err := os.ReadFile(fpath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType(fpath, doc))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, filepath.Base(fpath), mod, bytes.NewReader(injectHelpers(doc)))
}
