package handlers

import (
	"context"
	"net/http"
	"reflect"

	"github.com/diewo77/multisarl/internal/audit"
	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/policy"
	"github.com/diewo77/multisarl/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CRUD is the set of handlers mounted for a standard resource.
type CRUD interface {
	List(w http.ResponseWriter, r *http.Request)
	Retrieve(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Resource serves list/retrieve/create/update/destroy for one gorm model.
// PT is the pointer type of T, which must implement models.Record.
//
// Writes are validated, then go through Save and Delete when set (the
// service layer recalculations), or straight to gorm otherwise. Each
// successful write is audited.
type Resource[T any, PT interface {
	*T
	models.Record
}] struct {
	DB     *gorm.DB
	Audit  *audit.Recorder
	Gate   *policy.AuthGate
	Module string

	// Preload and Order apply to list and retrieve.
	Preload []string
	Order   string
	// Filters maps query parameters to equality filters on columns.
	Filters map[string]string
	// Unpaginated lists return a bare array.
	Unpaginated bool

	// Scope restricts every query, such as to the current user's rows.
	Scope func(r *http.Request, q *gorm.DB) *gorm.DB
	// Get replaces the default lookup of one record, bypassing Scope.
	Get func(ctx context.Context, id uint) (PT, error)
	// New returns the record a create request is decoded onto.
	New func(r *http.Request) PT
	// Prepare runs after decoding and before validation.
	Prepare func(r *http.Request, rec PT, created bool) error
	Save    func(ctx context.Context, rec PT, created bool) error
	Delete  func(ctx context.Context, id uint) (PT, error)
	// Written runs after any successful write.
	Written func(ctx context.Context, rec PT)
}

func (res *Resource[T, PT]) query(r *http.Request) *gorm.DB {
	q := res.DB.WithContext(r.Context())
	if res.Scope != nil {
		q = res.Scope(r, q)
	}
	return q
}

func (res *Resource[T, PT]) withPreloads(q *gorm.DB) *gorm.DB {
	for _, p := range res.Preload {
		q = q.Preload(p)
	}
	return q
}

func (res *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	q := res.query(r).Model(PT(new(T)))
	for param, column := range res.Filters {
		if v := r.URL.Query().Get(param); v != "" {
			q = q.Where(clause.Eq{Column: clause.Column{Name: column}, Value: v})
		}
	}
	order := res.Order
	if order == "" {
		order = "id"
	}
	items := []T{}
	if res.Unpaginated {
		if err := res.withPreloads(q).Order(order).Find(&items).Error; err != nil {
			writeError(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, items)
		return
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset := httpx.Pagination(r)
	if err := res.withPreloads(q).Order(order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page{Items: items, Total: total, Limit: limit, Offset: offset})
}

// load fetches one record within scope and applies the object policy for action.
func (res *Resource[T, PT]) load(r *http.Request, id uint, action gate.Action) (PT, error) {
	var rec PT
	if res.Get != nil {
		var err error
		if rec, err = res.Get(r.Context(), id); err != nil {
			return nil, err
		}
	} else {
		rec = PT(new(T))
		if err := res.withPreloads(res.query(r)).First(rec, id).Error; err != nil {
			return nil, err
		}
	}
	if res.Gate != nil {
		if err := res.Gate.Authorize(r.Context(), action, res.Module, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (res *Resource[T, PT]) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := res.load(r, id, gate.ActionRetrieve)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (res *Resource[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	rec := PT(new(T))
	if res.New != nil {
		rec = res.New(r)
	}
	if !decodeBody(w, r, rec) {
		return
	}
	setID(rec, 0)
	if err := res.write(r, rec, true); err != nil {
		writeError(w, r, err)
		return
	}
	res.Audit.Record(r.Context(), rec, models.AuditCreate)
	httpx.JSON(w, http.StatusCreated, rec)
}

// Update serves both PUT and PATCH: the body is decoded onto the stored
// record, so omitted fields keep their values.
func (res *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	action := gate.ActionUpdate
	if r.Method == http.MethodPatch {
		action = gate.ActionPartialUpdate
	}
	rec, err := res.load(r, id, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !decodeBody(w, r, rec) {
		return
	}
	setID(rec, id)
	if err := res.write(r, rec, false); err != nil {
		writeError(w, r, err)
		return
	}
	res.Audit.Record(r.Context(), rec, models.AuditUpdate)
	httpx.JSON(w, http.StatusOK, rec)
}

func (res *Resource[T, PT]) write(r *http.Request, rec PT, created bool) error {
	if res.Prepare != nil {
		if err := res.Prepare(r, rec, created); err != nil {
			return err
		}
	}
	if res.Save != nil {
		if err := res.Save(r.Context(), rec, created); err != nil {
			return err
		}
	} else if err := saveRecord(r.Context(), res.DB, rec, created); err != nil {
		return err
	}
	if res.Written != nil {
		res.Written(r.Context(), rec)
	}
	return nil
}

func (res *Resource[T, PT]) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := res.load(r, id, gate.ActionDestroy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Delete != nil {
		if rec, err = res.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
	} else if err := res.DB.WithContext(r.Context()).Delete(rec).Error; err != nil {
		writeError(w, r, err)
		return
	}
	if res.Written != nil {
		res.Written(r.Context(), rec)
	}
	res.Audit.Record(r.Context(), rec, models.AuditDelete)
	httpx.NoContent(w)
}

// saveRecord validates rec and writes its own columns, leaving associations alone.
func saveRecord(ctx context.Context, db *gorm.DB, rec models.Record, created bool) error {
	if err := services.Validate(rec); err != nil {
		return err
	}
	db = db.WithContext(ctx).Omit(clause.Associations)
	if created {
		return db.Create(rec).Error
	}
	return db.Save(rec).Error
}

// setID overwrites the ID field so a request body cannot retarget a write.
func setID(rec any, id uint) {
	v := reflect.ValueOf(rec).Elem().FieldByName("ID")
	if v.IsValid() && v.CanSet() {
		v.SetUint(uint64(id))
	}
}
