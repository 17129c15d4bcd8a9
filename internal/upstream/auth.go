package upstream

import "context"

type authKey struct{}

// WithAuthorization returns a context carrying the caller's Authorization
// header value. Empty values are not stored.
func WithAuthorization(ctx context.Context, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, authKey{}, value)
}

// AuthorizationFrom returns the credential stored by WithAuthorization.
func AuthorizationFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(authKey{}).(string)
	return v
}
