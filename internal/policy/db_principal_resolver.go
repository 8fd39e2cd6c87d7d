package policy

import (
	"context"
	"errors"

	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/models"
	"gorm.io/gorm"
)

// DBPrincipalResolver builds principals from users, user_roles and permissions.
// It implements gate.PrincipalResolver for uint user IDs.
type DBPrincipalResolver struct {
	DB *gorm.DB
}

// NewDBPrincipalResolver creates a new database-backed principal resolver.
func NewDBPrincipalResolver(db *gorm.DB) *DBPrincipalResolver {
	return &DBPrincipalResolver{DB: db}
}

// Resolve loads the user with every permission row of every role they hold.
// Returns nil for unknown or inactive users.
func (r *DBPrincipalResolver) Resolve(ctx context.Context, userID uint) (*gate.Principal, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("UserRoles.Role.Permissions").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}

	p := &gate.Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Superuser: user.IsSuperuser,
		Staff:     user.IsStaff,
	}
	for _, ur := range user.UserRoles {
		if ur.Role == nil {
			continue
		}
		for _, perm := range ur.Role.Permissions {
			p.Grants = append(p.Grants, gate.Grant{
				RoleID: ur.RoleID,
				Module: perm.Module,
				Read:   perm.CanRead,
				Write:  perm.CanWrite,
				Update: perm.CanUpdate,
				Delete: perm.CanDelete,
			})
		}
	}
	return p, nil
}
