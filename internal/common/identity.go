package common

import "context"

// Identity is the resolved caller of a request.
type Identity struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Anonymous reports whether no identity was resolved.
func (id Identity) Anonymous() bool { return id.Username == "" }

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && !id.Anonymous()
}
