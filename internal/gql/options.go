package gql

import (
	"io"
	"log/slog"
)

// Option configures translation and binding.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	lenientRefs bool
	upstream    string
	caller      Caller
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithLenientRefs makes unresolved references fall back to a nullable String
// instead of failing translation.
func WithLenientRefs(lenient bool) Option { return func(c *config) { c.lenientRefs = lenient } }

// WithUpstream sets the base URL every proxied call is sent to.
func WithUpstream(baseURL string) Option { return func(c *config) { c.upstream = baseURL } }

// WithCaller sets the transport used by field resolvers.
func WithCaller(caller Caller) Option { return func(c *config) { c.caller = caller } }
