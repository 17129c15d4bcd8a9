package gql

import (
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/mark3labs/swagger2gql/internal/spec"
)

// Schema is the assembled result: the field sets, every translated type, the
// static SDL rendering and, when Query has fields, the executable schema.
type Schema struct {
	Query    FieldSet
	Mutation FieldSet
	Types    []*Composite
	SDL      string

	executable *graphql.Schema
}

// Executable returns the schema the GraphQL server runs. It fails with
// ErrEmptyQuery when no query field was synthesized, because GraphQL requires
// the Query root to have at least one field.
func (s *Schema) Executable() (*graphql.Schema, error) {
	if s.executable == nil {
		return nil, ErrEmptyQuery
	}
	return s.executable, nil
}

// Assemble builds the root types, registers every composite so unreachable
// types are still published, and renders the SDL.
func Assemble(query, mutation FieldSet, types []*Composite) (*Schema, error) {
	if query == nil {
		query = FieldSet{}
	}
	if mutation == nil {
		mutation = FieldSet{}
	}
	s := &Schema{
		Query:    query,
		Mutation: mutation,
		Types:    types,
		SDL:      RenderSDL(query, mutation, types),
	}
	if len(query) == 0 {
		return s, nil
	}

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: rootFields(query)}),
	}
	if len(mutation) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: rootFields(mutation)})
	}
	for _, c := range types {
		cfg.Types = append(cfg.Types, c.Type)
	}
	exec, err := graphql.NewSchema(cfg)
	if err != nil {
		return nil, &Error{Kind: Construction, Message: "graphql rejected the schema", Cause: err}
	}
	s.executable = &exec
	return s, nil
}

func rootFields(set FieldSet) graphql.Fields {
	out := make(graphql.Fields, len(set))
	for name, def := range set {
		args := make(graphql.FieldConfigArgument, len(def.Args))
		for _, a := range def.Args {
			args[a.Name] = &graphql.ArgumentConfig{Type: a.Type}
		}
		out[name] = &graphql.Field{
			Name:        name,
			Type:        def.Type,
			Args:        args,
			Description: def.Description,
			Resolve:     def.Resolve,
		}
	}
	return out
}

// Build runs the full pipeline: translate schemas, synthesize operations,
// bind proxy resolvers and assemble.
func Build(sm *spec.ServiceModel, opts ...Option) (*Schema, error) {
	cfg := newConfig(opts)
	if sm == nil {
		sm = &spec.ServiceModel{}
	}

	reg, err := Translate(sm, opts...)
	if err != nil {
		return nil, err
	}
	syn := NewSynthesizer(reg, opts...)
	query, err := syn.Queries(sm.Paths)
	if err != nil {
		return nil, err
	}
	mutation, err := syn.Mutations(sm.Paths)
	if err != nil {
		return nil, err
	}

	if cfg.caller != nil {
		inv := NewInvoker(cfg.upstream, cfg.caller)
		Bind(query, inv)
		Bind(mutation, inv)
	}

	s, err := Assemble(query, mutation, reg.Composites())
	if err != nil {
		return nil, err
	}
	cfg.logger.Info("schema assembled",
		slog.String("title", sm.Title),
		slog.Int("types", reg.Len()),
		slog.Int("queries", len(query)),
		slog.Int("mutations", len(mutation)),
	)
	return s, nil
}
