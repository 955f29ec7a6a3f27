// Package httpapi implements the daemon's editor-facing HTTP surface: chat
// (streaming and non-streaming), the tool catalog and confirmation gate,
// @-command preview/completion, single-ticket patch application, and the
// read-only chore list — plus /metrics for Prometheus scraping.
//
// Grounded on internal/gateway/http_server.go's mux-plus-http.Server
// start/stop shape and internal/gateway/ws_control_plane.go's
// gorilla/websocket upgrade-and-pump pattern, narrowed from the
// multi-channel gateway's full control plane to the editor-facing
// endpoints plus the chore list this daemon adds.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexuslang/nexus-lsp/internal/atcommands"
	"github.com/nexuslang/nexus-lsp/internal/caps"
	"github.com/nexuslang/nexus-lsp/internal/chatturn"
	"github.com/nexuslang/nexus-lsp/internal/config"
	"github.com/nexuslang/nexus-lsp/internal/observability"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/storage"
	"github.com/nexuslang/nexus-lsp/internal/tools/policy"
)

// Server holds every collaborator an HTTP handler needs and owns the
// underlying http.Server's lifecycle.
type Server struct {
	cfg          *config.Config
	state        *sharedstate.State
	orchestrator *chatturn.Orchestrator
	commands     *atcommands.Registry
	store        *storage.Store
	threads      *storage.ThreadStore
	chores       *storage.ChoreStore
	logger       *slog.Logger
	tracer       *observability.Tracer
	metrics      *observability.Metrics
	jwtSvc       *JWTService
	upgrader     websocket.Upgrader
	previewHub   *previewHub

	httpServer   *http.Server
	httpListener net.Listener
}

// Deps bundles the collaborators NewServer wires together, so the
// constructor signature doesn't grow one parameter per dependency.
type Deps struct {
	Config       *config.Config
	State        *sharedstate.State
	Orchestrator *chatturn.Orchestrator
	Commands     *atcommands.Registry
	Store        *storage.Store
	Logger       *slog.Logger
	Tracer       *observability.Tracer
	Registerer   prometheus.Registerer
}

// NewServer builds a Server from deps. A nil Logger falls back to
// slog.Default(); a nil Tracer yields a no-op tracer.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer, _ = observability.NewTracer(observability.TraceConfig{ServiceName: "nexus-lsp"})
	}
	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var jwtSvc *JWTService
	if deps.Config.Server.JWTSecret != "" {
		jwtSvc = NewJWTService(deps.Config.Server.JWTSecret, 24*time.Hour)
	}

	return &Server{
		cfg:          deps.Config,
		state:        deps.State,
		orchestrator: deps.Orchestrator,
		commands:     deps.Commands,
		store:        deps.Store,
		threads:      storage.NewThreadStore(deps.Store.Experimental),
		chores:       storage.NewChoreStore(deps.Store.Experimental),
		logger:       logger,
		tracer:       tracer,
		metrics:      observability.NewMetrics(reg),
		jwtSvc:       jwtSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		previewHub: newPreviewHub(),
	}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	auth := bearerAuth(s.cfg.Server.APIKey, s.jwtSvc)

	mux.Handle("/v1/chat", auth(s.instrument("POST /v1/chat", http.HandlerFunc(s.handleChat))))
	mux.Handle("/v1/chat/completions", auth(s.instrument("POST /v1/chat/completions", http.HandlerFunc(s.handleChatCompletions))))
	mux.Handle("/v1/tools-check-if-confirmation-needed", auth(s.instrument("POST /v1/tools-check-if-confirmation-needed", http.HandlerFunc(s.handleCheckConfirmation))))
	mux.Handle("/v1/tools", auth(s.instrument("GET /v1/tools", http.HandlerFunc(s.handleListTools))))
	mux.Handle("/v1/at-command-preview", auth(s.instrument("POST /v1/at-command-preview", http.HandlerFunc(s.handleAtCommandPreview))))
	mux.Handle("/v1/at-command-preview/ws", auth(http.HandlerFunc(s.handleAtCommandPreviewWS)))
	mux.Handle("/v1/at-command-completion", auth(s.instrument("POST /v1/at-command-completion", http.HandlerFunc(s.handleAtCommandCompletion))))
	mux.Handle("/v1/patch-single-file-from-ticket", auth(s.instrument("POST /v1/patch-single-file-from-ticket", http.HandlerFunc(s.handlePatchSingleFileFromTicket))))
	mux.Handle("/v1/chores", auth(s.instrument("GET /v1/chores", http.HandlerFunc(s.handleListChores))))

	return mux
}

// instrument wraps next with the HTTP request counter/duration pair and
// an OTel server span.
func (s *Server) instrument(label string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.StartHTTPRequest(r.Context(), r.Method, r.URL.Path)
		defer span.End()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, fmt.Sprintf("%d", rec.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		_ = label
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

// Serve starts the HTTP listener and blocks until ctx is cancelled or a
// fatal listen error occurs.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.HTTPPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("httpapi: listen on %s: %w", addr, err)
	}
	s.httpListener = listener

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	s.logger.Info("httpapi: listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("httpapi: shutdown error", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	c := s.state.Caps()
	status := "ok"
	if c == nil {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"caps_loaded": c != nil,
		"message": s.cfg.Server.PingMessage,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError reports a typed, kind-tagged failure: HTTP-layer failures
// never hide the diagnostic behind a generic 500.
func writeError(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, errorBody{Kind: kind, Message: message})
}

func resolveModel(c *caps.Caps, requested string) string {
	if requested != "" {
		return requested
	}
	return c.DefaultChatModel
}

func toolPolicyOrDefault(p *policy.Policy) *policy.Policy {
	if p != nil {
		return p
	}
	return policy.ProfileDefaults[policy.ProfileCoding]
}
