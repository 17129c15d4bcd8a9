// Package server exposes an assembled GraphQL schema over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/swagger2gql/internal/upstream"
)

const (
	DefaultAddr = ":3001"
	DefaultPath = "/graphql"
	// SchemaPath serves the rendered SDL as plain text.
	SchemaPath = "/schema.graphql"

	shutdownGrace = 10 * time.Second
)

type Options struct {
	Addr     string
	Path     string
	GraphiQL bool
	Pretty   bool
	// SDL is served at SchemaPath when non-empty.
	SDL    string
	Logger *slog.Logger
}

type Server struct {
	opts    Options
	handler http.Handler
	logger  *slog.Logger
}

func New(schema *graphql.Schema, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle(opts.Path, handler.New(&handler.Config{
		Schema:   schema,
		Pretty:   opts.Pretty,
		GraphiQL: opts.GraphiQL,
	}))
	if opts.SDL != "" {
		sdl := opts.SDL
		mux.HandleFunc(SchemaPath, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Allow", "GET, HEAD")
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
				return
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, sdl)
		})
	}

	return &Server{
		opts:    opts,
		handler: Logging(logger, Authorization(mux)),
		logger:  logger,
	}
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Addr() string { return s.opts.Addr }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("graphql server listening",
			slog.String("addr", ln.Addr().String()),
			slog.String("path", s.opts.Path),
			slog.Bool("graphiql", s.opts.GraphiQL),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		s.logger.Info("shutting down graphql server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Authorization copies the inbound Authorization header into the request
// context, where proxied calls pick it up.
func Authorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("Authorization"); v != "" {
			r = r.WithContext(upstream.WithAuthorization(r.Context(), v))
		}
		next.ServeHTTP(w, r)
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

// Logging logs the start and end of each request, including duration and
// status.
func Logging(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger.DebugContext(ctx, "request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		if rec.status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", duration),
			)
			return
		}
		logger.InfoContext(ctx, "request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", duration),
		)
	})
}
