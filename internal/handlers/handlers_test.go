package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/multisarl/internal/audit"
	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/config"
	"github.com/diewo77/multisarl/internal/db"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/policy"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	env   Env
	admin models.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	admin := models.User{Username: "admin", Password: "x", IsActive: true, IsSuperuser: true}
	mustCreate(t, conn, &admin)
	g := policy.NewAuthGate(conn, time.Minute)
	g.RegisterPolicy(models.ModuleNotifications, policy.NewOwnershipPolicy())
	return &fixture{
		db:    conn,
		env:   Env{DB: conn, Audit: audit.NewRecorder(conn), Gate: g},
		admin: admin,
	}
}

func mustCreate(t *testing.T, conn *gorm.DB, v any) {
	t.Helper()
	if err := conn.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// call runs h as user uid. body may be nil, a string or any JSON-encodable value.
func call(t *testing.T, h http.HandlerFunc, method, target string, uid uint, id any, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if id != nil {
		req.SetPathValue("id", fmt.Sprint(id))
	}
	if uid != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func seedProject(t *testing.T, conn *gorm.DB) *models.Project {
	t.Helper()
	c := &models.Client{NomClient: "ACME"}
	mustCreate(t, conn, c)
	p := &models.Project{
		NomProjet:   "Villa",
		ClientID:    c.ID,
		DateDebut:   models.NewDate(2024, 3, 1),
		BudgetTotal: dec("1000"),
	}
	mustCreate(t, conn, p)
	return p
}

func TestResource_ClientLifecycle(t *testing.T) {
	f := setup(t)
	h := Clients(f.env)
	uid := f.admin.ID

	rec := call(t, h.Create, http.MethodPost, "/api/clients", uid, nil, map[string]any{"nom_client": "ACME", "ville": "Rabat"})
	expectStatus(t, rec, http.StatusCreated)
	var created models.Client
	decodeJSON(t, rec, &created)
	if created.ID == 0 || created.Statut != models.ClientStatusActive {
		t.Fatalf("created = %+v", created)
	}

	rec = call(t, h.Create, http.MethodPost, "/api/clients", uid, nil, map[string]any{"ville": "Fès"})
	expectStatus(t, rec, http.StatusBadRequest)
	if want := `{"error":"validation_failed","details":{"nom_client":"required"}}`; strings.TrimSpace(rec.Body.String()) != want {
		t.Errorf("body = %s, want %s", rec.Body.String(), want)
	}

	rec = call(t, h.Create, http.MethodPost, "/api/clients", uid, nil, "{bad")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, h.List, http.MethodGet, "/api/clients?statut=ACTIF", uid, nil, nil)
	expectStatus(t, rec, http.StatusOK)
	var page struct {
		Items []models.Client `json:"items"`
		Total int64           `json:"total"`
	}
	decodeJSON(t, rec, &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Errorf("page = %+v", page)
	}
	rec = call(t, h.List, http.MethodGet, "/api/clients?statut=INACTIF", uid, nil, nil)
	decodeJSON(t, rec, &page)
	if page.Total != 0 {
		t.Errorf("filtered total = %d, want 0", page.Total)
	}

	rec = call(t, h.Update, http.MethodPatch, "/api/clients/x", uid, created.ID, map[string]any{"telephone": "0600"})
	expectStatus(t, rec, http.StatusOK)
	var patched models.Client
	decodeJSON(t, rec, &patched)
	if patched.NomClient != "ACME" || patched.Ville != "Rabat" || patched.Telephone != "0600" {
		t.Errorf("partial update lost fields: %+v", patched)
	}

	rec = call(t, h.Update, http.MethodPut, "/api/clients/x", uid, created.ID, map[string]any{"id": 999, "nom_client": "ACME SA"})
	expectStatus(t, rec, http.StatusOK)
	var stored models.Client
	if err := f.db.First(&stored, created.ID).Error; err != nil || stored.NomClient != "ACME SA" {
		t.Errorf("body id retargeted the write: %+v, %v", stored, err)
	}

	rec = call(t, h.Destroy, http.MethodDelete, "/api/clients/x", uid, created.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = call(t, h.Retrieve, http.MethodGet, "/api/clients/x", uid, created.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	var logs []models.AuditLog
	f.db.Where("table_name = ?", "clients").Order("id").Find(&logs)
	if len(logs) != 4 {
		t.Fatalf("audit rows = %d, want 4", len(logs))
	}
	wantActions := []string{models.AuditCreate, models.AuditUpdate, models.AuditUpdate, models.AuditDelete}
	for i, l := range logs {
		if l.Action != wantActions[i] || l.UserID == nil || *l.UserID != uid {
			t.Errorf("log %d = %+v", i, l)
		}
	}
}

func TestResource_Pagination(t *testing.T) {
	f := setup(t)
	for i := 0; i < 5; i++ {
		mustCreate(t, f.db, &models.Material{Nom: fmt.Sprintf("M%d", i), Unite: "kg"})
	}
	rec := call(t, Materials(f.env).List, http.MethodGet, "/api/budget/materials?limit=2&page=3", f.admin.ID, nil, nil)
	expectStatus(t, rec, http.StatusOK)
	var page struct {
		Items  []models.Material `json:"items"`
		Total  int64             `json:"total"`
		Offset int               `json:"offset"`
	}
	decodeJSON(t, rec, &page)
	if page.Total != 5 || len(page.Items) != 1 || page.Items[0].Nom != "M4" || page.Offset != 4 {
		t.Errorf("page = %+v", page)
	}
}

func TestNotifications_ScopedToCaller(t *testing.T) {
	f := setup(t)
	other := models.User{Username: "other", Password: "x", IsActive: true}
	mustCreate(t, f.db, &other)
	mine := models.Notification{UserID: f.admin.ID, Title: "admin only"}
	mustCreate(t, f.db, &mine)
	h := Notifications(f.env)

	rec := call(t, h.Retrieve, http.MethodGet, "/api/notifications/x", other.ID, mine.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = call(t, h.Create, http.MethodPost, "/api/notifications", other.ID, nil, map[string]any{"title": "hello", "user": f.admin.ID})
	expectStatus(t, rec, http.StatusCreated)
	var n models.Notification
	decodeJSON(t, rec, &n)
	if n.UserID != other.ID {
		t.Errorf("notification owner = %d, want caller %d", n.UserID, other.ID)
	}

	rec = call(t, h.List, http.MethodGet, "/api/notifications", other.ID, nil, nil)
	var page struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, rec, &page)
	if page.Total != 1 {
		t.Errorf("other sees %d notifications, want 1", page.Total)
	}
}
