package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/swagger2gql/internal/gql"
	"github.com/mark3labs/swagger2gql/internal/spec"
	"github.com/mark3labs/swagger2gql/internal/upstream"
)

// loadModel reads the document and applies the operation filters.
func loadModel(ctx context.Context, cfg *ServeConfig) (*spec.ServiceModel, error) {
	doc, err := spec.Load(ctx, cfg.Input)
	if err != nil {
		return nil, specUsageError(err)
	}

	methods := make([]spec.HttpMethod, 0, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods = append(methods, spec.HttpMethod(m))
	}
	sm, err := spec.BuildServiceModel(ctx, doc,
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithMethods(methods),
		spec.WithPathPatterns(cfg.PathPatterns),
	)
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("build model: %v", err))
	}
	return sm, nil
}

// specUsageError maps structured loader errors into friendly messages.
func specUsageError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("spec: %s", se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}

// resolveUpstream picks the configured base URL, else the document's first
// absolute server URL, else the default.
func resolveUpstream(configured string, sm *spec.ServiceModel) string {
	if configured != "" {
		return configured
	}
	for _, s := range sm.Servers {
		u, err := url.Parse(s.URL)
		if err != nil || u.Host == "" {
			continue
		}
		if u.Scheme == "http" || u.Scheme == "https" {
			return s.URL
		}
	}
	return gql.DefaultUpstream
}

// buildSchema runs the whole translation. When caller is nil the schema
// carries no resolvers, which is enough for rendering SDL.
func buildSchema(sm *spec.ServiceModel, cfg *ServeConfig, base string, caller gql.Caller, logger *slog.Logger) (*gql.Schema, error) {
	opts := []gql.Option{
		gql.WithLogger(logger),
		gql.WithLenientRefs(cfg.LenientRefs),
		gql.WithUpstream(base),
	}
	if caller != nil {
		opts = append(opts, gql.WithCaller(caller))
	}
	return gql.Build(sm, opts...)
}

func newUpstreamClient(cfg *ServeConfig, logger *slog.Logger) *upstream.Client {
	return upstream.NewClient(upstream.Options{
		Timeout:   cfg.Timeout,
		UserAgent: "swagger2gql",
		Logger:    logger,
	})
}

// writeFileAtomic writes via temp file and rename. "-" writes to stdout.
func writeFileAtomic(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	absPath, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("cannot create parent directory: %v", err))
	}
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return newUsageError(fmt.Sprintf("cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("cannot place file at %s: %v", absPath, err))
	}
	return nil
}
