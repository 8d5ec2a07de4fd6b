package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bryanchriswhite/EyeFocus/internal/config"
	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Registry is the part of the element registry the API exposes.
type Registry interface {
	Current() *registry.WatchSet
	Rebuild() (*registry.WatchSet, error)
	Subscribe() chan *registry.WatchSet
	Unsubscribe(ch chan *registry.WatchSet)
}

// Navigator is the part of the navigator the API exposes.
type Navigator interface {
	Snapshot() focus.Snapshot
	HandleKey(ev focus.KeyEvent) bool
}

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	registry  Registry
	navigator Navigator
	configMgr *config.Manager
	gaze      http.Handler
	upgrader  websocket.Upgrader
	httpSrv   *http.Server
}

// NewServer creates a new API server. gaze serves the tracker websocket and
// may be nil when trackers use another transport.
func NewServer(reg Registry, nav Navigator, configMgr *config.Manager, gaze http.Handler) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		registry:  reg,
		navigator: nav,
		configMgr: configMgr,
		gaze:      gaze,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Focus state
	api.HandleFunc("/focus", s.handleGetFocus).Methods("GET")
	api.HandleFunc("/keys", s.handleKey).Methods("POST")

	// Registry
	api.HandleFunc("/registry", s.handleGetRegistry).Methods("GET")
	api.HandleFunc("/registry/rebuild", s.handleRebuild).Methods("POST")
	api.HandleFunc("/registry/stream", s.handleRegistryStream)

	// Tracker transport
	if s.gaze != nil {
		api.Handle("/gaze", s.gaze)
	}

	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.PathPrefix("/").HandlerFunc(s.handleIndex)
}

// Handler returns the router wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until Shutdown is called.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpSrv = &http.Server{Addr: addr, Handler: s.Handler()}

	logger.WithComponent("api").Info().Str("addr", addr).Msgf("Starting server on http://localhost%s", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("Failed to write response")
	}
}

// HTTP Handlers

func (s *Server) handleGetFocus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.navigator.Snapshot())
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var ev focus.KeyEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ev.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	consumed := s.navigator.HandleKey(ev)
	writeJSON(w, http.StatusOK, map[string]bool{"consumed": consumed})
}

func (s *Server) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Current().Payload())
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	ws, err := s.registry.Rebuild()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws.Payload())
}

// handleRegistryStream streams every new WatchSet to a websocket client.
func (s *Server) handleRegistryStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	updates := s.registry.Subscribe()
	defer s.registry.Unsubscribe(updates)

	// Detect client disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if current := s.registry.Current(); current.ID != "" {
		if err := conn.WriteJSON(current.Payload()); err != nil {
			log.Debug().Err(err).Msg("WebSocket write error")
			return
		}
	}

	for {
		select {
		case ws, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ws.Payload()); err != nil {
				log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.configMgr.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"version":  Version,
		"registry": s.registry.Current().ID,
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>EyeFocus</title>
</head>
<body>
    <h1>EyeFocus</h1>
    <ul>
        <li><a href="/api/health">/api/health</a> - Server health check</li>
        <li><a href="/api/focus">/api/focus</a> - Focus state</li>
        <li><a href="/api/registry">/api/registry</a> - Watchable elements</li>
        <li><a href="/api/config">/api/config</a> - View configuration</li>
        <li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
    </ul>
</body>
</html>`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(indexHTML))
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/api") {
		http.NotFound(w, r)
		return
	}
	http.Error(w, "unknown endpoint", http.StatusNotFound)
}
