package gql

import (
	"errors"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2gql/internal/spec"
)

func TestClassify(t *testing.T) {
	inputs, outputs := Classify([]string{"User", "CreateUserDto", "updateuserDTO", "User", "Audit", "CreateUserDto", "UserResponseDto"})

	assert.Equal(t, []string{"CreateUserDto", "UserResponseDto", "updateuserDTO"}, inputs)
	assert.Equal(t, []string{"Audit", "User"}, outputs)
}

func TestClassify_Empty(t *testing.T) {
	inputs, outputs := Classify(nil)
	assert.Empty(t, inputs)
	assert.Empty(t, outputs)
}

func TestResolve_Primitives(t *testing.T) {
	res := NewResolver(NewRegistry())

	tests := []struct {
		typ      string
		optional string
		required string
	}{
		{"string", "String", "String!"},
		{"boolean", "Boolean", "Boolean!"},
		{"integer", "Int", "Int!"},
		{"number", "Float", "Float!"},
		{"object", "String", "String!"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			decl := &spec.SchemaOrRef{Schema: &spec.Schema{Type: tt.typ}}

			opt, err := res.Resolve(decl, false)
			require.NoError(t, err)
			assert.Equal(t, tt.optional, opt.String())
			_, isNonNull := opt.(*graphql.NonNull)
			assert.False(t, isNonNull)

			req, err := res.Resolve(decl, true)
			require.NoError(t, err)
			assert.Equal(t, tt.required, req.String())

			again, err := res.Resolve(decl, true)
			require.NoError(t, err)
			assert.Equal(t, req.String(), again.String())
		})
	}
}

func TestWrapRequired_Idempotent(t *testing.T) {
	once := wrapRequired(graphql.String, true)
	twice := wrapRequired(once, true)
	assert.Same(t, once, twice)
	assert.Equal(t, "String!", twice.String())
	assert.Equal(t, graphql.String, wrapRequired(graphql.String, false))
}

func TestResolve_ArrayInheritsRequired(t *testing.T) {
	res := NewResolver(NewRegistry())

	req, err := res.Resolve(arrayOf(str()), true)
	require.NoError(t, err)
	assert.Equal(t, "[String!]", req.String())

	opt, err := res.Resolve(arrayOf(str()), false)
	require.NoError(t, err)
	assert.Equal(t, "[String]", opt.String())

	nested, err := res.Resolve(arrayOf(arrayOf(boolean())), true)
	require.NoError(t, err)
	assert.Equal(t, "[[Boolean!]]", nested.String())
}

func TestResolve_PermissiveFallback(t *testing.T) {
	res := NewResolver(NewRegistry())

	cases := map[string]*spec.SchemaOrRef{
		"nil":         nil,
		"empty":       {},
		"no type":     {Schema: &spec.Schema{}},
		"composition": {Schema: &spec.Schema{AllOf: []*spec.SchemaOrRef{ref("User")}}},
		"unknown":     {Schema: &spec.Schema{Type: "file"}},
	}
	for name, decl := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := res.Resolve(decl, true)
			require.NoError(t, err)
			assert.Equal(t, graphql.String, got)
		})
	}
}

func TestResolve_ReferenceIdentity(t *testing.T) {
	reg := NewRegistry()
	user := newComposite("User", "", false)
	reg.put(user)
	res := NewResolver(reg)

	got, err := res.Resolve(ref("User"), true)
	require.NoError(t, err)
	assert.Same(t, user.Type, got, "references resolve to the registered handle, unwrapped")

	list, err := res.Resolve(arrayOf(ref("User")), true)
	require.NoError(t, err)
	assert.Same(t, user.Type, list.(*graphql.List).OfType)
}

func TestResolve_UnknownReference(t *testing.T) {
	res := NewResolver(NewRegistry())

	_, err := res.Resolve(ref("Missing"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpecMalformed))

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Missing", te.Subject)
}

func TestResolve_UnknownReferenceLenient(t *testing.T) {
	res := NewResolver(NewRegistry(), WithLenientRefs(true))

	got, err := res.Resolve(ref("Missing"), true)
	require.NoError(t, err)
	assert.Equal(t, graphql.String, got)
}

func TestRefName(t *testing.T) {
	assert.Equal(t, "User", refName("#/components/schemas/User"))
	assert.Equal(t, "Pet", refName("#/definitions/Pet"))
	assert.Equal(t, "Plain", refName("Plain"))
}
