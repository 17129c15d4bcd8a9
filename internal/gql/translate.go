package gql

import (
	"log/slog"
	"sort"

	"github.com/mark3labs/swagger2gql/internal/spec"
)

// Translate converts components.schemas into a populated Registry.
//
// Construction is two-phase. Every name first gets an empty handle, inputs
// before outputs, so self and forward references always find their target.
// Then each property is resolved against the complete registry.
func Translate(sm *spec.ServiceModel, opts ...Option) (*Registry, error) {
	cfg := newConfig(opts)
	reg := NewRegistry()
	if sm == nil {
		return reg, nil
	}

	names := make([]string, 0, len(sm.Schemas))
	for name := range sm.Schemas {
		names = append(names, name)
	}
	inputs, outputs := Classify(names)

	for _, name := range inputs {
		reg.put(newComposite(name, sm.Schemas[name].Description, true))
	}
	for _, name := range outputs {
		reg.put(newComposite(name, sm.Schemas[name].Description, false))
	}

	res := NewResolver(reg, opts...)
	for _, c := range reg.Composites() {
		decl := sm.Schemas[c.Name]
		props := make([]string, 0, len(decl.Properties))
		for p := range decl.Properties {
			props = append(props, p)
		}
		sort.Strings(props)

		fields := make([]Field, 0, len(props))
		for _, p := range props {
			pdecl := decl.Properties[p]
			t, err := res.Resolve(pdecl, decl.IsRequired(p))
			if err != nil {
				return nil, &Error{Kind: SpecMalformed, Subject: c.Name + "." + p, Message: "cannot resolve property type", Cause: err}
			}
			fields = append(fields, Field{Name: p, Type: t, Description: propertyDescription(pdecl)})
		}
		c.Fields = fields
	}

	cfg.logger.Debug("translated schemas",
		slog.Int("inputs", len(inputs)),
		slog.Int("outputs", len(outputs)),
	)
	return reg, nil
}

func propertyDescription(decl *spec.SchemaOrRef) string {
	if decl == nil || decl.Schema == nil {
		return ""
	}
	return decl.Schema.Description
}
