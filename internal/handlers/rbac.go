package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
	"github.com/diewo77/multisarl/internal/validation"
	"gorm.io/gorm"
)

// Role and permission edits change what cached principals may do, so every
// write drops the principal cache.

func Roles(env Env) CRUD {
	res := newResource[models.Role](env, models.ModuleAuth, nil)
	res.Preload = []string{"Permissions"}
	res.Order = "role_name, id"
	res.Delete = func(ctx context.Context, id uint) (*models.Role, error) {
		var role models.Role
		err := env.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&role, id).Error; err != nil {
				return err
			}
			if err := tx.Where("role_id = ?", id).Delete(&models.Permission{}).Error; err != nil {
				return err
			}
			if err := tx.Where("role_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
				return err
			}
			return tx.Delete(&role).Error
		})
		return &role, err
	}
	res.Written = func(context.Context, *models.Role) { env.Gate.InvalidateAll() }
	return res
}

func Permissions(env Env) CRUD {
	res := newResource[models.Permission](env, models.ModuleAuth, map[string]string{
		"role": "role_id", "module": "module",
	})
	res.Prepare = func(r *http.Request, p *models.Permission, _ bool) error {
		return requireRef(r.Context(), env.DB, &models.Role{}, p.RoleID, "role")
	}
	res.Written = func(context.Context, *models.Permission) { env.Gate.InvalidateAll() }
	return res
}

func UserRoles(env Env) CRUD {
	res := newResource[models.UserRole](env, models.ModuleAuth, map[string]string{
		"user": "user_id", "role": "role_id",
	})
	res.Prepare = func(r *http.Request, ur *models.UserRole, _ bool) error {
		if err := requireRef(r.Context(), env.DB, &models.User{}, ur.UserID, "user"); err != nil {
			return err
		}
		return requireRef(r.Context(), env.DB, &models.Role{}, ur.RoleID, "role")
	}
	// A reassignment can move the row to another user; dropping everything
	// covers both the old and the new holder.
	res.Written = func(context.Context, *models.UserRole) { env.Gate.InvalidateAll() }
	return res
}

// requireRef reports a does_not_exist violation on field when id has no row.
func requireRef(ctx context.Context, db *gorm.DB, model any, id uint, field string) error {
	if id == 0 {
		return nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &services.ValidationError{Violations: validation.Violations{field: "does_not_exist"}}
	}
	return nil
}

// UserHandler manages accounts. The password is write-only: it is hashed on
// the way in and never serialized.
type UserHandler struct {
	*Resource[models.User, *models.User]
}

func NewUserHandler(env Env) *UserHandler {
	res := newResource[models.User](env, models.ModuleAuth, map[string]string{
		"is_active": "is_active", "username": "username",
	})
	res.Order = "username, id"
	res.Delete = func(ctx context.Context, id uint) (*models.User, error) {
		var u models.User
		err := env.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&u, id).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.AuditLog{}).Where("user_id = ?", id).Update("user_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&u).Error
		})
		return &u, err
	}
	res.Written = func(_ context.Context, u *models.User) { env.Gate.InvalidateUser(u.ID) }
	return &UserHandler{Resource: res}
}

type userPayload struct {
	*models.User
	Password string `json:"password"`
}

func (h *UserHandler) save(w http.ResponseWriter, r *http.Request, u *models.User, created bool) bool {
	id := u.ID
	in := userPayload{User: u}
	if !decodeBody(w, r, &in) {
		return false
	}
	u.ID = id
	if created {
		if in.Password == "" {
			writeError(w, r, &services.ValidationError{Violations: validation.Violations{"password": "required"}})
			return false
		}
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			writeError(w, r, err)
			return false
		}
		u.Password = hash
	}
	if err := h.write(r, u, created); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := &models.User{IsActive: true}
	if !h.save(w, r, u, true) {
		return
	}
	h.Audit.Record(r.Context(), u, models.AuditCreate)
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	action := gate.ActionUpdate
	if r.Method == http.MethodPatch {
		action = gate.ActionPartialUpdate
	}
	u, err := h.load(r, id, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !h.save(w, r, u, false) {
		return
	}
	h.Audit.Record(r.Context(), u, models.AuditUpdate)
	httpx.JSON(w, http.StatusOK, u)
}

// Notifications are scoped to the acting user: other users' rows are
// invisible and new rows always belong to the caller.
func Notifications(env Env) CRUD {
	res := newResource[models.Notification](env, models.ModuleNotifications, map[string]string{"is_read": "is_read"})
	res.Order = "created_at DESC, id DESC"
	res.Scope = func(r *http.Request, q *gorm.DB) *gorm.DB {
		uid, _ := auth.UserIDFromContext(r.Context())
		return q.Where("user_id = ?", uid)
	}
	res.Prepare = func(r *http.Request, n *models.Notification, _ bool) error {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			return gate.ErrUnauthorized
		}
		n.UserID = uid
		return nil
	}
	return res
}

// AuditLogs is read-only and mounted behind the superuser check.
func AuditLogs(env Env) *Resource[models.AuditLog, *models.AuditLog] {
	res := newResource[models.AuditLog](env, "", map[string]string{
		"table_name": "table_name", "action": "action", "user": "user_id", "record_id": "record_id",
	})
	res.Gate = nil
	res.Order = "timestamp DESC, id DESC"
	return res
}
