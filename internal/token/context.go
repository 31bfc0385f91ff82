package token

import "context"

type identityContextKey struct{}
type rawTokenContextKey struct{}

// ContextWithIdentity attaches the verified subject identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &id)
}

// IdentityFromContext extracts the verified subject identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil || v.SubjectID == "" {
		return Identity{}, false
	}
	return *v, true
}

// ContextWithRaw stores the raw bearer token inside the context.
func ContextWithRaw(ctx context.Context, raw string) context.Context {
	if raw == "" {
		return ctx
	}
	return context.WithValue(ctx, rawTokenContextKey{}, raw)
}

// RawFromContext returns the bearer token if it was previously attached.
func RawFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(rawTokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
