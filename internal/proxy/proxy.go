// Package proxy serves a local CORS-enabled endpoint that forwards GraphQL
// requests to the Hardcover API, so browser tooling can call the API from
// any origin.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Path is the route the proxy answers on.
const Path = "/api/graphql"

const (
	// RequestIDHeader carries the id assigned to each proxied request.
	RequestIDHeader = "X-Request-Id"

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

var failedBody = []byte(`{"error":"Proxy request failed"}`)

// Config configures a Server.
type Config struct {
	// Addr is the listen address used by Serve.
	Addr string

	// Upstream is the GraphQL endpoint requests are forwarded to.
	Upstream string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Server forwards GraphQL requests to a single upstream.
type Server struct {
	addr       string
	upstream   string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a proxy server.
func New(cfg Config) *Server {
	s := &Server{
		addr:       cfg.Addr,
		upstream:   cfg.Upstream,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Handler returns the proxy routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		s.requestLogger,
		middleware.Recoverer,
	)
	r.Post(Path, s.handleGraphQL)
	r.Options(Path, s.handlePreflight)
	return r
}

// requestLogger assigns a request id and logs each request once it has
// been served.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.Info("proxy request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start))
	})
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	status, body, err := s.forward(r)
	if err != nil {
		s.logger.Error("proxy request failed", "id", RequestID(r.Context()), "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(failedBody)
		return
	}

	setCORS(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// forward posts the client's JSON body upstream with its Authorization
// header and returns the upstream status and JSON body. Bodies that are
// not JSON on either side are errors.
func (s *Server) forward(r *http.Request) (int, []byte, error) {
	in, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return 0, nil, fmt.Errorf("read request: %w", err)
	}
	if len(in) > maxBodyBytes {
		return 0, nil, errors.New("request body too large")
	}
	if !json.Valid(in) {
		return 0, nil, errors.New("request body is not JSON")
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.upstream, bytes.NewReader(in))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth := r.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read upstream response: %w", err)
	}
	if !json.Valid(out) {
		return 0, nil, fmt.Errorf("upstream returned %v with a non-JSON body", resp.Status)
	}
	s.logger.Debug("upstream response",
		"id", RequestID(r.Context()),
		"status", resp.StatusCode,
		"bytes", len(out))
	return resp.StatusCode, out, nil
}

// Serve listens on the configured address and blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting proxy", "addr", "http://"+ln.Addr().String()+Path, "upstream", s.upstream)

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down proxy")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
