package gql

import (
	"bytes"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// RenderSDL prints the schema as SDL. Query comes first, then Mutation when
// it has fields, then every composite in the order given.
func RenderSDL(query, mutation FieldSet, types []*Composite) string {
	doc := &ast.SchemaDocument{}
	doc.Definitions = append(doc.Definitions, rootDefinition("Query", query))
	if len(mutation) > 0 {
		doc.Definitions = append(doc.Definitions, rootDefinition("Mutation", mutation))
	}
	for _, c := range types {
		def := &ast.Definition{
			Kind:        ast.Object,
			Name:        c.Name,
			Description: c.Description,
		}
		if c.Input {
			def.Kind = ast.InputObject
		}
		for _, f := range c.Fields {
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:        f.Name,
				Description: f.Description,
				Type:        astType(f.Type),
			})
		}
		doc.Definitions = append(doc.Definitions, def)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.String()
}

func rootDefinition(name string, set FieldSet) *ast.Definition {
	def := &ast.Definition{Kind: ast.Object, Name: name}
	for _, n := range set.Names() {
		fd := set[n]
		field := &ast.FieldDefinition{
			Name:        fd.Name,
			Description: fd.Description,
			Type:        astType(fd.Type),
		}
		for _, a := range fd.Args {
			field.Arguments = append(field.Arguments, &ast.ArgumentDefinition{
				Name: a.Name,
				Type: astType(a.Type),
			})
		}
		def.Fields = append(def.Fields, field)
	}
	return def
}

func astType(t graphql.Type) *ast.Type {
	switch tt := t.(type) {
	case *graphql.NonNull:
		inner := astType(tt.OfType)
		inner.NonNull = true
		return inner
	case *graphql.List:
		return &ast.Type{Elem: astType(tt.OfType)}
	case nil:
		return &ast.Type{NamedType: "String"}
	default:
		return &ast.Type{NamedType: t.Name()}
	}
}
