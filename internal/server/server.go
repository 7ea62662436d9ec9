// Package server serves live diagram previews over HTTP: a small HTML page
// that renders mermaid markup, a JSON API over the analyzed graph, and a
// websocket channel that tells connected pages to reload after re-analysis.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shjno191/graviti/internal/analyzer"
	"github.com/shjno191/graviti/internal/flowgraph"
	"github.com/shjno191/graviti/internal/mermaid"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server holds the latest analysis of one source file and serves diagrams
// rendered from it.
type Server struct {
	cfg        Config
	defaults   flowgraph.RenderOptions
	router     chi.Router
	httpServer *http.Server

	mu       sync.RWMutex
	file     string
	graph    *flowgraph.CallGraph
	parseErr error

	clientsMu sync.Mutex
	clients   map[string]*websocket.Conn
}

// New creates a preview server. defaults seeds the render options applied
// when a request does not override them.
func New(cfg Config, defaults flowgraph.RenderOptions) *Server {
	s := &Server{
		cfg:      cfg,
		defaults: defaults,
		clients:  make(map[string]*websocket.Conn),
	}
	s.router = s.buildRouter()
	return s
}

// Update re-analyzes source and swaps in the new graph. On a parse failure
// the previous graph stays live and the error is surfaced alongside it.
// Connected pages are told to reload either way.
func (s *Server) Update(file string, source []byte) error {
	graph, err := analyzer.Parse(source)

	s.mu.Lock()
	s.file = file
	s.parseErr = err
	if err == nil {
		s.graph = graph
	}
	s.mu.Unlock()

	s.broadcastReload()
	if err != nil {
		return fmt.Errorf("analyze %s: %w", file, err)
	}
	return nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.handleIndex)
	r.Get("/api/graph", s.handleGraph)
	r.Get("/api/diagram", s.handleDiagram)
	r.Get("/api/report", s.handleReport)
	r.Get("/ws", s.handleWebSocket)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// snapshot returns the current graph, source file name, and parse error.
func (s *Server) snapshot() (string, *flowgraph.CallGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file, s.graph, s.parseErr
}

// requestOptions builds render options from the defaults plus any query
// parameter overrides.
func (s *Server) requestOptions(r *http.Request) flowgraph.RenderOptions {
	opts := s.defaults
	q := r.URL.Query()

	if method := q.Get("method"); method != "" {
		opts.TargetMethod = method
	}
	if v := q.Get("collapse"); v != "" {
		opts.CollapseDetails, _ = strconv.ParseBool(v)
	}
	if v := q.Get("refs"); v != "" {
		opts.ShowSourceRef, _ = strconv.ParseBool(v)
	}
	if v := q.Get("ignore_services"); v != "" {
		opts.IgnoredServices = strings.Split(v, ",")
	}
	if v := q.Get("ignore_variables"); v != "" {
		opts.IgnoredVariables = strings.Split(v, ",")
	}
	return opts
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	file, graph, parseErr := s.snapshot()
	if graph == nil {
		writeError(w, http.StatusNotFound, "no source analyzed yet")
		return
	}
	writeJSON(w, map[string]any{
		"file":  file,
		"graph": graph,
		"stale": parseErr != nil,
	})
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	_, graph, parseErr := s.snapshot()
	if graph == nil {
		writeError(w, http.StatusNotFound, "no source analyzed yet")
		return
	}

	result := mermaid.Render(graph, s.requestOptions(r))
	resp := map[string]any{
		"diagram":           result.Diagram,
		"external_services": result.ExternalServices,
	}
	if parseErr != nil {
		resp["warning"] = parseErr.Error()
	}
	writeJSON(w, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	file, graph, _ := s.snapshot()
	if graph == nil {
		writeError(w, http.StatusNotFound, "no source analyzed yet")
		return
	}

	report := mermaid.MarkdownReport(graph, s.requestOptions(r), file)
	html, err := renderReportHTML(file, report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}

	id := uuid.NewString()
	s.clientsMu.Lock()
	s.clients[id] = conn
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, id)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	// The page never sends anything meaningful; reads only detect closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}
	}
}

// broadcastReload tells every connected page to re-fetch its diagram.
func (s *Server) broadcastReload() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for id, conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"reload"}`)); err != nil {
			log.Printf("server: websocket write to %s: %v", id, err)
			conn.Close()
			delete(s.clients, id)
		}
	}
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("graviti preview server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
