package policy_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/config"
	"github.com/diewo77/multisarl/internal/db"
	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/policy"
	"gorm.io/gorm"
)

type mockOwnable struct {
	userID uint
}

func (m *mockOwnable) GetUserID() uint { return m.userID }

func TestOwnershipPolicy(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	tests := []struct {
		name     string
		user     uint
		resource any
		want     bool
	}{
		{"nil resource", 1, nil, true},
		{"owner", 42, &mockOwnable{userID: 42}, true},
		{"non owner", 99, &mockOwnable{userID: 42}, false},
		{"non ownable", 1, struct{ ID uint }{1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Can(ctx, tt.user, gate.ActionRetrieve, tt.resource); got != tt.want {
				t.Errorf("Can() = %v, want %v", got, tt.want)
			}
		})
	}
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// seedWriter creates a user whose only role may read and create projects.
func seedWriter(t *testing.T, conn *gorm.DB) models.User {
	t.Helper()
	role := models.Role{RoleName: "Saisie", Permissions: []models.Permission{
		{Module: models.ModuleProjects, CanRead: true, CanWrite: true},
	}}
	if err := conn.Create(&role).Error; err != nil {
		t.Fatal(err)
	}
	user := models.User{Username: "writer", Password: "x", IsActive: true}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	if err := conn.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error; err != nil {
		t.Fatal(err)
	}
	return user
}

func TestDBPrincipalResolver(t *testing.T) {
	conn := setupDB(t)
	user := seedWriter(t, conn)
	r := policy.NewDBPrincipalResolver(conn)

	p, err := r.Resolve(context.Background(), user.ID)
	if err != nil || p == nil {
		t.Fatalf("Resolve() = %v, %v", p, err)
	}
	if !gate.Decide(p, models.ModuleProjects, gate.ActionCreate) {
		t.Error("writer should create projects")
	}
	if gate.Decide(p, models.ModuleProjects, gate.ActionDestroy) {
		t.Error("writer should not delete projects")
	}

	if p, err := r.Resolve(context.Background(), 999); err != nil || p != nil {
		t.Errorf("unknown user = %v, %v", p, err)
	}

	conn.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false)
	if p, _ := r.Resolve(context.Background(), user.ID); p != nil {
		t.Error("inactive user resolved")
	}
}

func TestRequirePermission(t *testing.T) {
	conn := setupDB(t)
	user := seedWriter(t, conn)
	ag := policy.NewAuthGate(conn, time.Minute)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, found := gate.PrincipalFromContext(r.Context()); !found {
			t.Error("principal not attached to context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	tests := []struct {
		name   string
		userID uint
		action gate.Action
		want   int
	}{
		{"anonymous", 0, gate.ActionList, http.StatusUnauthorized},
		{"create allowed", user.ID, gate.ActionCreate, http.StatusNoContent},
		{"delete forbidden", user.ID, gate.ActionDestroy, http.StatusForbidden},
		{"custom action allowed", user.ID, gate.Action("pdf"), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/projects", nil)
			if tt.userID != 0 {
				req = req.WithContext(auth.WithUserID(req.Context(), tt.userID))
			}
			rec := httptest.NewRecorder()
			ag.RequirePermission(models.ModuleProjects, tt.action)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthGate_InvalidateUser(t *testing.T) {
	conn := setupDB(t)
	user := seedWriter(t, conn)
	ag := policy.NewAuthGate(conn, time.Hour)
	ctx := auth.WithUserID(context.Background(), user.ID)

	if ag.Can(ctx, gate.ActionDestroy, models.ModuleProjects, nil) {
		t.Fatal("delete should be denied before the grant")
	}
	conn.Model(&models.Permission{}).Where("module = ?", models.ModuleProjects).Update("can_delete", true)
	if ag.Can(ctx, gate.ActionDestroy, models.ModuleProjects, nil) {
		t.Error("cached principal should still deny")
	}
	ag.InvalidateUser(user.ID)
	if !ag.Can(ctx, gate.ActionDestroy, models.ModuleProjects, nil) {
		t.Error("delete should be allowed after invalidation")
	}
}

func TestAuthGate_NotificationOwnership(t *testing.T) {
	conn := setupDB(t)
	user := seedWriter(t, conn)
	ag := policy.NewAuthGate(conn, time.Minute)
	ag.RegisterPolicy(models.ModuleNotifications, policy.NewOwnershipPolicy())
	conn.Create(&models.Permission{RoleID: 1, Module: models.ModuleNotifications, CanRead: true})
	ctx := auth.WithUserID(context.Background(), user.ID)

	own := &models.Notification{UserID: user.ID}
	other := &models.Notification{UserID: user.ID + 1}
	if err := ag.Authorize(ctx, gate.ActionRetrieve, models.ModuleNotifications, own); err != nil {
		t.Errorf("own notification: %v", err)
	}
	if err := ag.Authorize(ctx, gate.ActionRetrieve, models.ModuleNotifications, other); err != gate.ErrForbidden {
		t.Errorf("other notification err = %v, want ErrForbidden", err)
	}
}
