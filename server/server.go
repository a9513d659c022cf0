// Package server is the launcher's HTTP surface: the game API, per-game static assets with
// helper injection, the embedded frontend and the gamepad WebSocket bridge.
package server

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	launcher "github.com/Ashenafi-pixel/arcade-launcher"
	"github.com/Ashenafi-pixel/arcade-launcher/config"
	"github.com/Ashenafi-pixel/arcade-launcher/gamepad"
	"github.com/Ashenafi-pixel/arcade-launcher/history"
	"github.com/Ashenafi-pixel/arcade-launcher/ingest"
	"github.com/Ashenafi-pixel/arcade-launcher/library"
	"github.com/Ashenafi-pixel/arcade-launcher/web"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps overrides the collaborators New would otherwise build from the config.
type Deps struct {
	Static  fs.FS                   // launcher frontend; nil uses STATIC_DIR or the embedded copy
	Extract ingest.Extractor        // nil uses the system archivers
	DB      func() (*sql.DB, error) // import history mirror; nil uses DATABASE_URL
	Client  *http.Client            // GitHub downloads
}

type Server struct {
	cfg      *config.Config
	lib      *library.Library
	ingester *ingest.Ingester
	history  *history.Store
	hub      *Hub
	static   fs.FS
}

func New(cfg *config.Config, deps Deps) *Server {
	db := deps.DB
	if db == nil {
		db = launcher.GetDB
	}
	static := deps.Static
	if static == nil {
		if cfg.StaticDir != "" {
			static = os.DirFS(cfg.StaticDir)
		} else {
			static = web.FS()
		}
	}
	lib := library.New(cfg.GamesDir)
	hist := history.NewStore(cfg.DataDir, db)
	return &Server{
		cfg: cfg,
		lib: lib,
		ingester: ingest.New(lib, ingest.Options{
			GithubBaseURL: cfg.GithubBaseURL,
			Client:        deps.Client,
			Extract:       deps.Extract,
			History:       hist,
		}),
		history: hist,
		hub:     NewHub(),
		static:  static,
	}
}

// Library returns the game library the server serves.
func (s *Server) Library() *library.Library { return s.lib }

// Hub returns the gamepad WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler builds the routing tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /api/games", s.handleListGames)
	mux.HandleFunc("POST /api/add-game/from-zip", s.handleAddFromZip)
	mux.HandleFunc("POST /api/add-game/from-github", s.handleAddFromGithub)
	mux.HandleFunc("POST /api/games/{id}/thumbnail", s.handleThumbnail)
	mux.HandleFunc("DELETE /api/games/{id}", s.handleDeleteGame)
	mux.HandleFunc("GET /api/imports", s.handleImports)
	mux.HandleFunc("GET /api/controller/defaults", s.handleControllerDefaults)
	mux.HandleFunc("GET /api/qr", s.handleQR)

	mux.HandleFunc("GET /games/", http.NotFound)
	mux.HandleFunc("GET /games/{id}", s.handleGameRoot)
	mux.HandleFunc("GET /games/{id}/{path...}", s.handleGameAsset)
	mux.HandleFunc("GET /ws/gamepad", s.hub.ServeWS)

	mux.HandleFunc("GET /static/", s.handleStatic)
	mux.HandleFunc("GET /assets/", s.handleStatic)
	mux.HandleFunc("GET /vendor/", s.handleStatic)
	mux.HandleFunc("GET /", s.handleIndex)
	return cors(requestLogger(mux))
}

// Run listens on the configured port and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Listen opens the configured TCP port.
func (s *Server) Listen() (net.Listener, error) {
	port := s.cfg.Port
	if port <= 0 {
		port = 3000
	}
	return net.Listen("tcp", ":"+strconv.Itoa(port))
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	zap.L().Info("launcher listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("games_dir", s.lib.Root()),
		zap.String("data_dir", s.cfg.DataDir))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	s.hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// WatchLibrary tells connected frontends to reload whenever games are added or removed.
func (s *Server) WatchLibrary(ctx context.Context) error {
	if err := s.lib.EnsureRoot(); err != nil {
		return err
	}
	return s.lib.Watch(ctx, 250*time.Millisecond, s.hub.BroadcastLibrary)
}

// RunNativeGamepads feeds host joysticks into every connected session.
func (s *Server) RunNativeGamepads(ctx context.Context, src *gamepad.NativeSource) error {
	return src.Run(ctx, s.hub.Native)
}

func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the WebSocket upgrader reach the hijacker.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is required by the WebSocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// requestLogger logs method, path, status and duration for each request (no bodies).
func requestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		reqID := uuid.NewString()
		rec.Header().Set("X-Request-Id", reqID)
		h.ServeHTTP(rec, r)
		zap.L().Debug("request",
			zap.String("id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"service":  "launcher",
		"sessions": s.hub.Sessions(),
	})
}
