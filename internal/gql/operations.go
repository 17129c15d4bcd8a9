package gql

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/mark3labs/swagger2gql/internal/spec"
)

// fallbackBodyArg names the body argument when the body type is unnamed.
const fallbackBodyArg = "body"

// Argument is one GraphQL argument of an operation field.
type Argument struct {
	Name string
	Type graphql.Type
	// In is the parameter location (path, query, header, cookie) or "body".
	In string
	// Param is the declared parameter name before any renaming.
	Param string
}

// FieldDefinition is one REST operation exposed as a root field.
type FieldDefinition struct {
	Name        string // operationId
	Description string
	Type        graphql.Type
	Args        []Argument // sorted by name
	Endpoint    Endpoint
	Resolve     graphql.FieldResolveFn // set by Bind
}

// FieldSet maps operation ids to their field definitions.
type FieldSet map[string]*FieldDefinition

// Names returns the field names in sorted order.
func (s FieldSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Synthesizer derives query and mutation fields from the path table.
type Synthesizer struct {
	res    *Resolver
	logger *slog.Logger
}

func NewSynthesizer(reg *Registry, opts ...Option) *Synthesizer {
	cfg := newConfig(opts)
	return &Synthesizer{res: NewResolver(reg, opts...), logger: cfg.logger}
}

// Queries takes each path's GET operation, or its DELETE when there is no
// GET. Other verbs on the path are ignored here.
func (s *Synthesizer) Queries(paths []spec.PathModel) (FieldSet, error) {
	set := FieldSet{}
	for _, p := range paths {
		op := p.Operation(spec.GET)
		if op == nil {
			op = p.Operation(spec.DELETE)
		}
		if op == nil {
			continue
		}
		args, err := s.arguments(op, false)
		if err != nil {
			return nil, err
		}
		def, err := s.define(op, args)
		if err != nil {
			return nil, err
		}
		s.add(set, def)
	}
	return set, nil
}

// mutationMethods lists the verbs that become mutations, in registration order.
var mutationMethods = []spec.HttpMethod{spec.POST, spec.PATCH, spec.PUT}

// Mutations takes every POST, PATCH and PUT operation. Each one needs a JSON
// request body, which becomes an extra argument.
func (s *Synthesizer) Mutations(paths []spec.PathModel) (FieldSet, error) {
	set := FieldSet{}
	for _, p := range paths {
		for _, m := range mutationMethods {
			op := p.Operation(m)
			if op == nil {
				continue
			}
			args, err := s.arguments(op, true)
			if err != nil {
				return nil, err
			}
			body, err := s.bodyArgument(op)
			if err != nil {
				return nil, err
			}
			args = mergeArgument(args, body)
			def, err := s.define(op, args)
			if err != nil {
				return nil, err
			}
			def.Endpoint.Mutation = true
			s.add(set, def)
		}
	}
	return set, nil
}

func (s *Synthesizer) define(op *spec.OperationModel, args []Argument) (*FieldDefinition, error) {
	result, err := s.resultType(op)
	if err != nil {
		return nil, err
	}
	desc := op.Summary
	if desc == "" {
		desc = op.Description
	}
	ep := Endpoint{Method: string(op.Method), Path: op.Path}
	for _, a := range args {
		if a.In == "query" {
			ep.Query = append(ep.Query, QueryParam{Arg: a.Name, Param: a.Param})
		}
	}
	return &FieldDefinition{
		Name:        op.OperationID,
		Description: desc,
		Type:        result,
		Args:        args,
		Endpoint:    ep,
	}, nil
}

// add registers def under its operation id; a repeated id overwrites the
// earlier definition.
func (s *Synthesizer) add(set FieldSet, def *FieldDefinition) {
	if def.Name == "" {
		s.logger.Warn("operation has no operationId; registered under the empty name",
			slog.String("method", def.Endpoint.Method),
			slog.String("path", def.Endpoint.Path),
		)
	}
	if prev, dup := set[def.Name]; dup {
		s.logger.Warn("duplicate operationId; last definition wins",
			slog.String("operationId", def.Name),
			slog.String("replaced", prev.Endpoint.Method+" "+prev.Endpoint.Path),
			slog.String("by", def.Endpoint.Method+" "+def.Endpoint.Path),
		)
	}
	set[def.Name] = def
}

func (s *Synthesizer) arguments(op *spec.OperationModel, rename bool) ([]Argument, error) {
	var args []Argument
	for _, p := range op.Parameters {
		t, err := s.res.Resolve(p.Schema, p.Required)
		if err != nil {
			return nil, &Error{Kind: SpecMalformed, Subject: opSubject(op), Message: "cannot resolve parameter " + p.Name, Cause: err}
		}
		name := p.Name
		if rename {
			name = argumentName(name)
		}
		args = mergeArgument(args, Argument{Name: name, Type: t, In: p.In, Param: p.Name})
	}
	return args, nil
}

func (s *Synthesizer) bodyArgument(op *spec.OperationModel) (Argument, error) {
	if op.RequestBody == nil {
		return Argument{}, malformed(opSubject(op), "mutation declares no request body")
	}
	media, ok := spec.MediaFor(op.RequestBody.Content, spec.JSONMime)
	if !ok {
		return Argument{}, malformed(opSubject(op), "request body has no %s content", spec.JSONMime)
	}
	t, err := s.res.Resolve(media.Schema, op.RequestBody.Required)
	if err != nil {
		return Argument{}, &Error{Kind: SpecMalformed, Subject: opSubject(op), Message: "cannot resolve request body", Cause: err}
	}
	name := namedTypeName(t)
	if name == "" {
		name = fallbackBodyArg
	}
	return Argument{Name: argumentName(name), Type: t, In: "body", Param: name}, nil
}

// resultType resolves the 200 application/json schema. A missing response
// resolves the empty declaration.
func (s *Synthesizer) resultType(op *spec.OperationModel) (graphql.Type, error) {
	var decl *spec.SchemaOrRef
	if resp := op.Response("200"); resp != nil {
		if media, ok := spec.MediaFor(resp.Content, spec.JSONMime); ok {
			decl = media.Schema
		}
	}
	t, err := s.res.Resolve(decl, true)
	if err != nil {
		return nil, &Error{Kind: SpecMalformed, Subject: opSubject(op), Message: "cannot resolve response", Cause: err}
	}
	return t, nil
}

// mergeArgument adds a, replacing an existing argument of the same name, and
// keeps the slice sorted.
func mergeArgument(args []Argument, a Argument) []Argument {
	for i := range args {
		if args[i].Name == a.Name {
			args[i] = a
			return args
		}
	}
	args = append(args, a)
	sort.Slice(args, func(i, j int) bool { return args[i].Name < args[j].Name })
	return args
}

// argumentName replaces the first hyphen with an underscore. Later hyphens
// are kept.
func argumentName(name string) string {
	return strings.Replace(name, "-", "_", 1)
}

func opSubject(op *spec.OperationModel) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToUpper(string(op.Method)) + " " + op.Path
}
