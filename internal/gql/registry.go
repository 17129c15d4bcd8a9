package gql

import (
	"github.com/graphql-go/graphql"
)

// Field is one property of a composite type.
type Field struct {
	Name        string
	Type        graphql.Type
	Description string
}

// Composite is a named object or input object translated from
// components.schemas. Type is the handle every reference resolves to; its
// field thunk reads Fields, so Fields must be complete before the handle is
// handed to graphql.NewSchema.
type Composite struct {
	Name        string
	Input       bool
	Description string
	Fields      []Field // sorted by name
	Type        graphql.Type
}

func newComposite(name, description string, input bool) *Composite {
	c := &Composite{Name: name, Input: input, Description: description}
	if input {
		c.Type = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:        name,
			Description: description,
			Fields:      graphql.InputObjectConfigFieldMapThunk(c.inputFields),
		})
	} else {
		c.Type = graphql.NewObject(graphql.ObjectConfig{
			Name:        name,
			Description: description,
			Fields:      graphql.FieldsThunk(c.outputFields),
		})
	}
	return c
}

func (c *Composite) outputFields() graphql.Fields {
	out := make(graphql.Fields, len(c.Fields))
	for _, f := range c.Fields {
		out[f.Name] = &graphql.Field{Type: f.Type, Description: f.Description}
	}
	return out
}

func (c *Composite) inputFields() graphql.InputObjectConfigFieldMap {
	out := make(graphql.InputObjectConfigFieldMap, len(c.Fields))
	for _, f := range c.Fields {
		out[f.Name] = &graphql.InputObjectFieldConfig{Type: f.Type, Description: f.Description}
	}
	return out
}

// Registry maps source schema names to their composite types. It is built by
// Translate and only read afterwards, so concurrent lookups need no locking.
type Registry struct {
	byName map[string]*Composite
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Composite{}}
}

// put inserts c; a second insert under the same name replaces the first but
// keeps its original position.
func (r *Registry) put(c *Composite) {
	if _, exists := r.byName[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.byName[c.Name] = c
}

// Lookup returns the GraphQL type registered under name.
func (r *Registry) Lookup(name string) (graphql.Type, bool) {
	c, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return c.Type, true
}

// Composite returns the registry entry for name.
func (r *Registry) Composite(name string) (*Composite, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Composites returns every entry in insertion order: inputs, then outputs.
func (r *Registry) Composites() []*Composite {
	out := make([]*Composite, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }
