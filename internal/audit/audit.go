// Package audit appends AuditLog rows after successful writes.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder writes audit rows. Failures are logged and never returned, so the
// primary write is not affected.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one row for rec. The acting user is taken from ctx.
func (r *Recorder) Record(ctx context.Context, rec models.Record, action string) {
	if r == nil || rec == nil {
		return
	}
	details, err := json.Marshal(map[string]string{"str_repr": rec.String()})
	if err != nil {
		log.Printf("[AUDIT] encode details for %s: %v", rec.TableName(), err)
		return
	}
	entry := models.AuditLog{
		Table:    rec.TableName(),
		RecordID: strconv.FormatUint(uint64(rec.PrimaryKey()), 10),
		Action:   action,
		Details:  datatypes.JSON(details),
	}
	if uid, ok := auth.UserIDFromContext(ctx); ok {
		entry.UserID = &uid
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("[AUDIT] %s %s#%s: %v", action, entry.Table, entry.RecordID, err)
	}
}
