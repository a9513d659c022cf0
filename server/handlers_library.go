package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ashenafi-pixel/arcade-launcher/gamepad"
	"github.com/Ashenafi-pixel/arcade-launcher/library"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	maxUploadBytes    = 512 << 20
	maxThumbnailBytes = 16 << 20
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.lib.List()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// handleAddFromZip accepts a multipart upload: file (required), name and subdir (optional).
// Without a name the uploaded file name minus its extension becomes the id.
//
//	POST /api/add-game/from-zip
//	Content-Type: multipart/form-data
func (s *Server) handleAddFromZip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large", "TOO_LARGE")
			return
		}
		writeError(w, http.StatusBadRequest, "file is required", "INVALID_INPUT")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required", "INVALID_INPUT")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err), "INVALID_INPUT")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	id, err := s.ingester.FromZip(r.Context(), data, name, strings.TrimSpace(r.FormValue("subdir")), header.Filename)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: id})
}

type githubRequest struct {
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Subdir string `json:"subdir"`
	Name   string `json:"name"`
}

func (s *Server) handleAddFromGithub(w http.ResponseWriter, r *http.Request) {
	var req githubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_INPUT")
		return
	}
	id, err := s.ingester.FromGithub(r.Context(),
		strings.TrimSpace(req.Repo),
		strings.TrimSpace(req.Branch),
		strings.TrimSpace(req.Subdir),
		strings.TrimSpace(req.Name))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: id})
}

// handleThumbnail stores the raw PNG body as the game's cover.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.lib.Exists(id) {
		writeFailure(w, r, library.ErrNotFound)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxThumbnailBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", "INVALID_INPUT")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty request body", "INVALID_INPUT")
		return
	}
	if err := s.lib.SaveThumbnail(id, data); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.Delete(r.PathValue("id")); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleImports lists recent import attempts, newest first.
func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", "INVALID_INPUT")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.history.Recent(limit))
}

func (s *Server) handleControllerDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"storageKey": gamepad.StorageKey,
		"controls":   gamepad.Controls,
		"mapping":    gamepad.DefaultMapping(),
	})
}

// handleQR renders a QR code of the launcher URL as reachable from the LAN, so a phone
// can open the add-game panel. ?url= overrides the encoded address.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		target = s.lanURL(r)
	}
	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}
	png, err := qrcode.Encode(target, qrcode.Medium, size)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// lanURL prefers a non-loopback IPv4 address of this host so the code works from a phone
// even when the launcher itself was opened on localhost.
func (s *Server) lanURL(r *http.Request) string {
	port := strconv.Itoa(s.cfg.Port)
	if _, p, err := net.SplitHostPort(r.Host); err == nil && p != "" {
		port = p
	}
	if ip := lanIPv4(); ip != "" {
		return "http://" + net.JoinHostPort(ip, port) + "/"
	}
	return "http://" + r.Host + "/"
}

func lanIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() {
			continue
		}
		if ip4 := ipn.IP.To4(); ip4 != nil && ip4.IsPrivate() {
			return ip4.String()
		}
	}
	return ""
}
