package policy

import (
	"context"

	"github.com/diewo77/multisarl/internal/gate"
)

// Ownable is implemented by resources that belong to one user.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy allows access to resources owned by the acting user.
type OwnershipPolicy struct{}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can checks if the user owns the resource.
// For list/create actions (resource is nil), it always returns true
// since role permissions already control access.
func (p *OwnershipPolicy) Can(_ context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}
