package gate

import "context"

// Grant is the set of capability flags one role holds on one module.
type Grant struct {
	RoleID uint
	Module string
	Read   bool
	Write  bool
	Update bool
	Delete bool
}

// Allows reports whether the grant carries the given capability.
func (g Grant) Allows(c Capability) bool {
	switch c {
	case CanRead:
		return g.Read
	case CanWrite:
		return g.Write
	case CanUpdate:
		return g.Update
	case CanDelete:
		return g.Delete
	}
	return false
}

// Principal is the request-scoped view of the acting user: identity, bypass
// flags, and the grants of every role assigned to them.
type Principal struct {
	UserID    uint
	Username  string
	Superuser bool
	Staff     bool
	Grants    []Grant
}

// Bypass reports whether the principal skips module checks entirely.
func (p *Principal) Bypass() bool {
	return p.Superuser || p.Staff
}

// Has returns true if any of the principal's roles grants c on module.
func (p *Principal) Has(module string, c Capability) bool {
	for _, g := range p.Grants {
		if g.Module == module && g.Allows(c) {
			return true
		}
	}
	return false
}

// PrincipalResolver resolves a user to their principal.
// U is the user type (e.g., uint for userID).
type PrincipalResolver[U any] interface {
	Resolve(ctx context.Context, user U) (*Principal, error)
}

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver[U comparable] struct {
	principals map[U]*Principal
}

// NewStaticResolver creates a resolver with predefined user-principal mappings.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{principals: make(map[U]*Principal)}
}

// Set assigns a principal to a user.
func (r *StaticResolver[U]) Set(user U, p *Principal) {
	r.principals[user] = p
}

// Resolve returns the principal for the given user, or nil if unknown.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (*Principal, error) {
	if p, ok := r.principals[user]; ok {
		return p, nil
	}
	return nil, nil
}

type principalKey struct{}

// WithPrincipal stores the resolved principal in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
