// Package audit persists the append-only trail of state-changing actions.
// Writes are best-effort: a failed audit insert is logged and never surfaces
// to the action that triggered it.
package audit

import (
	"sync"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/models"
)

// Origin carries transport metadata about the caller.
type Origin struct {
	IP        string
	UserAgent string
}

// Entry is one auditable action. Old/NewValues are stored after secret
// fields have been stripped.
type Entry struct {
	Actor     models.Actor
	Action    string
	Table     string
	RecordID  *uint
	OldValues map[string]any
	NewValues map[string]any
	Origin    Origin
}

type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
	wg  sync.WaitGroup
}

func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Record enqueues the entry for persistence. It must only be called after
// the triggering transaction has committed: the write runs on its own
// goroutine with an isolated error boundary, so an audit failure can never
// roll back or fail the business action.
func (r *Recorder) Record(e Entry) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("audit recorder panic", zap.Any("panic", p))
			}
		}()
		r.write(e)
	}()
}

// Wait blocks until all queued entries have been written. Used on shutdown
// and in tests.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) write(e Entry) {
	username := e.Actor.Username
	var userID *uint
	if e.Actor.ID != 0 {
		id := e.Actor.ID
		userID = &id
	}
	if username == "" {
		username = "anonymous"
	}

	row := models.AuditLog{
		UserID:    userID,
		Username:  username,
		Action:    e.Action,
		Table:     e.Table,
		RecordID:  e.RecordID,
		OldValues: Sanitize(e.OldValues),
		NewValues: Sanitize(e.NewValues),
		IPAddress: e.Origin.IP,
		UserAgent: e.Origin.UserAgent,
	}

	if err := r.db.Create(&row).Error; err != nil {
		r.log.Error("audit write failed",
			zap.String("action", e.Action),
			zap.String("table", e.Table),
			zap.Error(err))
	}
}

// secretFields must never appear in stored snapshots.
var secretFields = []string{"password", "password_hash", "token"}

// Sanitize returns a copy of the snapshot with secret-bearing fields
// removed. A nil snapshot stays nil.
func Sanitize(values map[string]any) datatypes.JSONMap {
	if values == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, f := range secretFields {
		delete(out, f)
	}
	return out
}
