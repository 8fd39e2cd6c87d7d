package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
)

// User is an account of the back office. Password holds a bcrypt hash and is never serialized.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email       string     `gorm:"size:254" json:"email,omitempty"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	FirstName   string     `gorm:"size:150" json:"first_name,omitempty"`
	LastName    string     `gorm:"size:150" json:"last_name,omitempty"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	IsStaff     bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool       `gorm:"not null;default:false" json:"is_superuser"`
	DateJoined  time.Time  `gorm:"autoCreateTime" json:"date_joined"`
	LastLogin   *time.Time `json:"last_login,omitempty"`

	UserRoles []UserRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string   { return "users" }
func (u *User) PrimaryKey() uint { return u.ID }
func (u *User) String() string   { return u.Username }

func (u *User) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("username", u.Username, v)
	validation.MaxLen("username", u.Username, 150, v)
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		v["email"] = "invalid_email"
	}
	return v
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Permission modules.
const (
	ModuleAuth                = "auth"
	ModuleDashboard           = "dashboard"
	ModuleProjects            = "projects"
	ModuleQuotes              = "quotes"
	ModuleQuoteLines          = "quote_lines"
	ModuleQuoteTrackings      = "quote_trackings"
	ModuleQuoteTrackingLines  = "quote_tracking_lines"
	ModuleQuoteGroups         = "quote_groups"
	ModuleQuoteTrackingGroups = "quote_tracking_groups"
	ModuleBudget              = "budget"
	ModuleHREstimation        = "hr_estimation"
	ModuleInvoices            = "invoices"
	ModuleDocuments           = "documents"
	ModuleNotifications       = "notifications"
	ModuleClients             = "clients"
	ModulePayroll             = "payroll"
	ModuleSuppliers           = "suppliers"
)

// Modules lists every permission module in display order.
var Modules = []string{
	ModuleAuth, ModuleDashboard, ModuleProjects, ModuleQuotes, ModuleQuoteLines,
	ModuleQuoteTrackings, ModuleQuoteTrackingLines, ModuleQuoteGroups, ModuleQuoteTrackingGroups,
	ModuleBudget, ModuleHREstimation, ModuleInvoices, ModuleDocuments, ModuleNotifications,
	ModuleClients, ModulePayroll, ModuleSuppliers,
}

// Role groups permissions; users hold any number of roles.
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	RoleName    string       `gorm:"size:100;not null;uniqueIndex" json:"role_name"`
	Permissions []Permission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
}

func (Role) TableName() string   { return "roles" }
func (r *Role) PrimaryKey() uint { return r.ID }
func (r *Role) String() string   { return r.RoleName }

func (r *Role) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("role_name", r.RoleName, v)
	validation.MaxLen("role_name", r.RoleName, 100, v)
	return v
}

// Permission grants CRUD flags on one module to a role.
type Permission struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RoleID    uint   `gorm:"not null;uniqueIndex:idx_permission_role_module" json:"role"`
	Module    string `gorm:"size:50;not null;uniqueIndex:idx_permission_role_module" json:"module"`
	CanRead   bool   `gorm:"not null;default:false" json:"can_read"`
	CanWrite  bool   `gorm:"not null;default:false" json:"can_write"`
	CanUpdate bool   `gorm:"not null;default:false" json:"can_update"`
	CanDelete bool   `gorm:"not null;default:false" json:"can_delete"`
}

func (Permission) TableName() string   { return "permissions" }
func (p *Permission) PrimaryKey() uint { return p.ID }
func (p *Permission) String() string   { return fmt.Sprintf("Permission object (%d)", p.ID) }

func (p *Permission) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("role", p.RoleID, v)
	validation.Required("module", p.Module, v)
	if p.Module != "" {
		validation.OneOf("module", p.Module, v, Modules...)
	}
	return v
}

// UserRole assigns a role to a user.
type UserRole struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID uint  `gorm:"not null;uniqueIndex:idx_user_role" json:"user"`
	RoleID uint  `gorm:"not null;uniqueIndex:idx_user_role" json:"role"`
	Role   *Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserRole) TableName() string   { return "user_roles" }
func (ur *UserRole) PrimaryKey() uint { return ur.ID }
func (ur *UserRole) String() string   { return fmt.Sprintf("UserRole object (%d)", ur.ID) }

func (ur *UserRole) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("user", ur.UserID, v)
	validation.RequiredID("role", ur.RoleID, v)
	return v
}
