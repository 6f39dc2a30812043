package canvas

import "context"

type tokenKey struct{}

// WithToken attaches a Canvas API token to the context. The token is carried
// per request so concurrent provider calls on the worker pool never share
// mutable credential state.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom extracts the Canvas API token from the context.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
