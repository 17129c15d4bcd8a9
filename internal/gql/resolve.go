package gql

import (
	"log/slog"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/mark3labs/swagger2gql/internal/spec"
)

// Resolver maps schema declarations onto GraphQL types. It reads, never
// writes, the registry it was constructed with.
type Resolver struct {
	reg     *Registry
	lenient bool
	logger  *slog.Logger
}

func NewResolver(reg *Registry, opts ...Option) *Resolver {
	cfg := newConfig(opts)
	return &Resolver{reg: reg, lenient: cfg.lenientRefs, logger: cfg.logger}
}

// Resolve converts decl into a GraphQL type.
//
// Scalars and inline objects are wrapped non-null when required. Arrays pass
// required down to their element and are never wrapped themselves. References
// return the registered type as-is. Anything without a type tag or reference,
// including allOf/anyOf/oneOf, becomes a nullable String.
func (r *Resolver) Resolve(decl *spec.SchemaOrRef, required bool) (graphql.Type, error) {
	if decl == nil {
		return graphql.String, nil
	}
	if decl.Ref != nil {
		return r.resolveRef(decl.Ref.Ref)
	}
	s := decl.Schema
	if s == nil {
		return graphql.String, nil
	}
	switch s.Type {
	case "string":
		return wrapRequired(graphql.String, required), nil
	case "boolean":
		return wrapRequired(graphql.Boolean, required), nil
	case "integer":
		return wrapRequired(graphql.Int, required), nil
	case "number":
		return wrapRequired(graphql.Float, required), nil
	case "object":
		// Inline objects are not expanded into anonymous types.
		return wrapRequired(graphql.String, required), nil
	case "array":
		elem, err := r.Resolve(s.Items, required)
		if err != nil {
			return nil, err
		}
		return graphql.NewList(elem), nil
	default:
		return graphql.String, nil
	}
}

func (r *Resolver) resolveRef(ref string) (graphql.Type, error) {
	name := refName(ref)
	if t, ok := r.reg.Lookup(name); ok {
		return t, nil
	}
	if r.lenient {
		r.logger.Warn("unresolved reference, using String", slog.String("ref", ref))
		return graphql.String, nil
	}
	return nil, malformed(name, "reference %q does not name a declared schema", ref)
}

// refName returns the last path segment of a $ref.
func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// wrapRequired wraps t non-null when required. It never double-wraps.
func wrapRequired(t graphql.Type, required bool) graphql.Type {
	if !required {
		return t
	}
	if _, ok := t.(*graphql.NonNull); ok {
		return t
	}
	return graphql.NewNonNull(t)
}

// namedTypeName returns the name of t if it is a named type, or "" for
// list and non-null wrappers.
func namedTypeName(t graphql.Type) string {
	switch t.(type) {
	case *graphql.List, *graphql.NonNull, nil:
		return ""
	}
	return t.Name()
}
