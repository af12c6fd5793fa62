package audit

import (
	"context"
	"time"

	"github.com/AIWebFAZ/frdfund/internal/apperr"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

// ListFilter narrows the audit log listing. Zero values mean "no filter".
type ListFilter struct {
	UserID *uint
	Action string
	Table  string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// List returns entries most recent first, plus the total count matching the
// filter for pagination.
func (r *Recorder) List(ctx context.Context, f ListFilter) ([]models.AuditLog, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Table != "" {
		q = q.Where("table_name = ?", f.Table)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrapf(apperr.ErrStoreUnavailable, "count audit logs: %v", err)
	}

	var logs []models.AuditLog
	err := q.Order("created_at desc, id desc").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, apperr.Wrapf(apperr.ErrStoreUnavailable, "list audit logs: %v", err)
	}
	return logs, total, nil
}

// RecordHistory returns every entry for one record, oldest first.
func (r *Recorder) RecordHistory(ctx context.Context, table string, recordID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("table_name = ? AND record_id = ?", table, recordID).
		Order("created_at asc, id asc").
		Find(&logs).Error
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "load record history: %v", err)
	}
	return logs, nil
}

// ActionCount is one row of the per-actor activity summary.
type ActionCount struct {
	Action     string    `json:"action"`
	Count      int64     `json:"count"`
	LastAction time.Time `json:"last_action"`
}

// ActorSummary groups an actor's entries of the last N days by action.
func (r *Recorder) ActorSummary(ctx context.Context, userID uint, days int) ([]ActionCount, error) {
	if days < 1 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var rows []ActionCount
	err := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Select("action, count(*) as count, max(created_at) as last_action").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("action").
		Order("count desc").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "actor summary: %v", err)
	}
	return rows, nil
}
