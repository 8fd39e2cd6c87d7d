package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/config"
	"github.com/diewo77/multisarl/internal/db"
	"github.com/diewo77/multisarl/internal/models"
)

func TestRecord(t *testing.T) {
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	r := NewRecorder(conn)

	client := &models.Client{ID: 7, NomClient: "Atlas BTP"}
	r.Record(auth.WithUserID(context.Background(), 3), client, models.AuditCreate)
	r.Record(context.Background(), client, models.AuditDelete)

	var logs []models.AuditLog
	if err := conn.Order("id").Find(&logs).Error; err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	first := logs[0]
	if first.Table != "clients" || first.RecordID != "7" || first.Action != models.AuditCreate {
		t.Errorf("log = %+v", first)
	}
	if first.UserID == nil || *first.UserID != 3 {
		t.Errorf("user = %v, want 3", first.UserID)
	}
	var details map[string]string
	if err := json.Unmarshal(first.Details, &details); err != nil || details["str_repr"] != "Atlas BTP" {
		t.Errorf("details = %s (%v)", first.Details, err)
	}
	if logs[1].UserID != nil {
		t.Errorf("anonymous write should have no user, got %v", *logs[1].UserID)
	}
}

func TestRecord_NilRecorder(t *testing.T) {
	var r *Recorder
	r.Record(context.Background(), &models.Client{}, models.AuditCreate)
}
