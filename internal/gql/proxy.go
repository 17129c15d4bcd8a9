package gql

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/mark3labs/swagger2gql/internal/upstream"
)

// DefaultUpstream is used when neither configuration nor the document's
// servers name a base URL.
const DefaultUpstream = "http://localhost:3000"

// Caller performs one upstream request. *upstream.Client implements it.
type Caller interface {
	Call(ctx context.Context, req upstream.Request) (any, error)
}

// QueryParam links a GraphQL argument to a query-string parameter.
type QueryParam struct {
	Arg   string
	Param string
}

// Endpoint is the immutable REST target of one field.
type Endpoint struct {
	Method   string // lower-case verb
	Path     string // template with {name} placeholders
	Query    []QueryParam
	Mutation bool
}

// Invoker forwards field invocations to the upstream. It holds no per-call
// state and is shared by every bound field.
type Invoker struct {
	base   string
	caller Caller
}

func NewInvoker(baseURL string, caller Caller) *Invoker {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultUpstream
	}
	return &Invoker{base: strings.TrimRight(strings.TrimSpace(baseURL), "/"), caller: caller}
}

// Base returns the normalised upstream base URL.
func (inv *Invoker) Base() string { return inv.base }

// Invoke performs the REST call behind ep with the field's runtime arguments
// and returns the decoded payload unchanged.
func (inv *Invoker) Invoke(ctx context.Context, ep Endpoint, args map[string]any) (any, error) {
	path, err := substitutePath(ep.Path, args)
	if err != nil {
		return nil, err
	}
	target := inv.base + path
	if q := queryString(ep.Query, args); q != "" {
		target += "?" + q
	}

	req := upstream.Request{
		Method:        ep.Method,
		URL:           target,
		Authorization: upstream.AuthorizationFrom(ctx),
	}
	if ep.Mutation {
		name, ok := bodyArgumentName(args)
		if !ok {
			return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(ep.Method), ep.Path, ErrMissingBody)
		}
		req.Body = args[name]
		req.HasBody = true
	}
	return inv.caller.Call(ctx, req)
}

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// substitutePath replaces the first occurrence of each distinct {name}
// placeholder with the path-escaped argument value. Repeats of a name are left
// untouched.
func substitutePath(tmpl string, args map[string]any) (string, error) {
	seen := map[string]bool{}
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		if seen[name] {
			return m
		}
		seen[name] = true
		v, ok := lookupArg(args, name)
		if !ok {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(fmt.Sprint(v))
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("path %s: missing argument(s) %s", tmpl, strings.Join(missing, ", "))
	}
	return out, nil
}

// lookupArg finds a path parameter by its declared name or its renamed
// argument name.
func lookupArg(args map[string]any, name string) (any, bool) {
	if v, ok := args[name]; ok && v != nil {
		return v, true
	}
	if v, ok := args[argumentName(name)]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func queryString(params []QueryParam, args map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	q := url.Values{}
	for _, p := range params {
		v, ok := args[p.Arg]
		if !ok || v == nil {
			continue
		}
		if list, isList := v.([]any); isList {
			for _, item := range list {
				q.Add(p.Param, fmt.Sprint(item))
			}
			continue
		}
		q.Set(p.Param, fmt.Sprint(v))
	}
	return q.Encode()
}

// bodyArgumentName returns the first argument, in name order, whose name
// carries the input marker.
func bodyArgumentName(args map[string]any) (string, bool) {
	names := make([]string, 0, len(args))
	for n := range args {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if IsInputName(n) {
			return n, true
		}
	}
	return "", false
}

type binding struct {
	endpoint Endpoint
	invoker  *Invoker
}

func (b binding) resolve(p graphql.ResolveParams) (any, error) {
	ctx := p.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return b.invoker.Invoke(ctx, b.endpoint, p.Args)
}

// Bind attaches a proxy resolver to every definition in set.
func Bind(set FieldSet, inv *Invoker) {
	for _, def := range set {
		def.Resolve = binding{endpoint: def.Endpoint, invoker: inv}.resolve
	}
}
