package gql

import (
	"context"
	"errors"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2gql/internal/upstream"
)

func TestSubstitutePath(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		args map[string]any
		want string
	}{
		{"single", "/users/{id}", map[string]any{"id": "42"}, "/users/42"},
		{"two names", "/orgs/{org}/users/{id}", map[string]any{"org": "acme", "id": 7}, "/orgs/acme/users/7"},
		{"repeat left untouched", "/a/{id}/b/{id}", map[string]any{"id": "1"}, "/a/1/b/{id}"},
		{"escaped", "/files/{name}", map[string]any{"name": "a b/c"}, "/files/a%20b%2Fc"},
		{"renamed argument", "/orders/{order-id}", map[string]any{"order_id": "9"}, "/orders/9"},
		{"no placeholders", "/health", nil, "/health"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := substitutePath(tt.tmpl, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitutePath_MissingArgument(t *testing.T) {
	_, err := substitutePath("/users/{id}", map[string]any{"other": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestNewInvoker_Base(t *testing.T) {
	assert.Equal(t, "http://api.local", NewInvoker("http://api.local/", nil).Base())
	assert.Equal(t, "http://api.local/v1", NewInvoker(" http://api.local/v1// ", nil).Base())
	assert.Equal(t, DefaultUpstream, NewInvoker("", nil).Base())
}

func TestInvoke_Query(t *testing.T) {
	caller := &recordingCaller{reply: map[string]any{"id": "42"}}
	inv := NewInvoker("http://api.local/", caller)

	ep := Endpoint{Method: "get", Path: "/users/{id}", Query: []QueryParam{{Arg: "expand", Param: "expand"}, {Arg: "page", Param: "page"}}}
	got, err := inv.Invoke(context.Background(), ep, map[string]any{
		"id":     "42",
		"expand": []any{"roles", "teams"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "42"}, got)

	require.Len(t, caller.requests, 1)
	req := caller.requests[0]
	assert.Equal(t, "get", req.Method)
	assert.Equal(t, "http://api.local/users/42?expand=roles&expand=teams", req.URL)
	assert.False(t, req.HasBody)
	assert.Empty(t, req.Authorization)
}

func TestInvoke_MutationForwardsBodyAndAuthorization(t *testing.T) {
	caller := &recordingCaller{reply: map[string]any{"id": "1", "name": "Ada"}}
	inv := NewInvoker("http://api.local", caller)

	ctx := upstream.WithAuthorization(context.Background(), "Bearer token")
	body := map[string]any{"name": "Ada"}
	_, err := inv.Invoke(ctx, Endpoint{Method: "patch", Path: "/users/{id}", Mutation: true}, map[string]any{
		"id":            "1",
		"CreateUserDto": body,
		"zzzDto":        map[string]any{"ignored": true},
	})
	require.NoError(t, err)

	require.Len(t, caller.requests, 1)
	req := caller.requests[0]
	assert.Equal(t, "patch", req.Method)
	assert.Equal(t, "http://api.local/users/1", req.URL)
	assert.Equal(t, "Bearer token", req.Authorization)
	assert.True(t, req.HasBody)
	assert.Equal(t, body, req.Body)
}

func TestInvoke_MutationWithoutDtoArgument(t *testing.T) {
	caller := &recordingCaller{}
	inv := NewInvoker("http://api.local", caller)

	_, err := inv.Invoke(context.Background(), Endpoint{Method: "post", Path: "/tags", Mutation: true}, map[string]any{
		"body": []any{"a"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingBody))
	assert.Empty(t, caller.requests, "nothing is sent without a body")
}

func TestInvoke_PropagatesCallerError(t *testing.T) {
	boom := &upstream.StatusError{Method: "GET", URL: "http://api.local/users/1", Status: 404}
	inv := NewInvoker("http://api.local", &recordingCaller{err: boom})

	_, err := inv.Invoke(context.Background(), Endpoint{Method: "get", Path: "/users/{id}"}, map[string]any{"id": "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream.ErrUpstream))
}

func TestBind(t *testing.T) {
	caller := &recordingCaller{reply: "pong"}
	set := FieldSet{
		"ping": {Name: "ping", Type: graphql.String, Endpoint: Endpoint{Method: "get", Path: "/ping"}},
	}
	Bind(set, NewInvoker("http://api.local", caller))
	require.NotNil(t, set["ping"].Resolve)

	got, err := set["ping"].Resolve(graphql.ResolveParams{Args: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
	require.Len(t, caller.requests, 1)
	assert.Equal(t, "http://api.local/ping", caller.requests[0].URL)
}
