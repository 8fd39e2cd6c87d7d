// Package gate decides whether a principal may perform an action on a module.
//
// The decision itself (Decide) is a pure function of the principal, the module
// and the action. Gate adds principal resolution and optional per-resource
// policies (ownership checks) on top of it.
//
// The package uses generics for the user key:
//   - Gate[uint] for user ID based auth
//   - Gate[string] for username or JWT subject based auth
package gate

import "context"

// Decide applies the role-based access rule:
//   - superusers and staff are always allowed;
//   - an action without a capability mapping is allowed;
//   - a resource without a module is allowed;
//   - otherwise one of the principal's roles must grant the capability on the module.
func Decide(p *Principal, module string, action Action) bool {
	if p == nil {
		return false
	}
	if p.Bypass() {
		return true
	}
	required, ok := action.Capability()
	if !ok {
		return true
	}
	if module == "" {
		return true
	}
	return p.Has(module, required)
}

// Gate resolves principals and applies Decide plus any registered resource policy.
// U is the user key type (must be comparable for zero-value check).
type Gate[U comparable] struct {
	resolver PrincipalResolver[U]
	policies map[string]Policy[U]
}

// NewGate creates a gate with the given principal resolver.
func NewGate[U comparable](resolver PrincipalResolver[U]) *Gate[U] {
	return &Gate[U]{
		resolver: resolver,
		policies: make(map[string]Policy[U]),
	}
}

// Register adds a resource policy for a module (e.g., ownership of notifications).
// Overwrites any existing policy for that module.
func (g *Gate[U]) Register(module string, p Policy[U]) {
	g.policies[module] = p
}

// Principal resolves the principal for user.
// Returns ErrUnauthorized for the zero user or an unknown one.
func (g *Gate[U]) Principal(ctx context.Context, user U) (*Principal, error) {
	var zero U
	if user == zero {
		return nil, ErrUnauthorized
	}
	p, err := g.resolver.Resolve(ctx, user)
	if err != nil || p == nil {
		return nil, ErrUnauthorized
	}
	return p, nil
}

// Authorize checks:
//  1. User resolves to a principal
//  2. Decide allows the action on the module
//  3. If a policy exists for the module and resource is provided, the policy allows it
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, module string, resource any) error {
	p, err := g.Principal(ctx, user)
	if err != nil {
		return err
	}
	return g.AuthorizePrincipal(ctx, p, user, action, module, resource)
}

// AuthorizePrincipal is Authorize for an already resolved principal.
func (g *Gate[U]) AuthorizePrincipal(ctx context.Context, p *Principal, user U, action Action, module string, resource any) error {
	if !Decide(p, module, action) {
		return ErrForbidden
	}
	if resource != nil && !p.Bypass() {
		if policy, ok := g.policies[module]; ok {
			if !policy.Can(ctx, user, action, resource) {
				return ErrForbidden
			}
		}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, module string, resource any) bool {
	return g.Authorize(ctx, user, action, module, resource) == nil
}
