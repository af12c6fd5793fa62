package approval

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/apperr"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

// Queue resolves which projects currently await a given reviewer.
type Queue struct {
	db *gorm.DB
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

// PendingItem pairs a project with its open approval row.
type PendingItem struct {
	Project  models.Project
	Approval models.Approval
}

// PendingFor returns the projects awaiting the actor's decision, oldest
// submission first. An actor holding several approver roles sees the union;
// an actor with none sees an empty list.
func (q *Queue) PendingFor(ctx context.Context, actor models.Actor) ([]PendingItem, error) {
	var conds []string
	var args []any

	if actor.HasRole(models.RoleProvincialDirector) && len(actor.Provinces) > 0 {
		conds = append(conds, "(project_approvals.approval_level = ? AND projects.province IN ?)")
		args = append(args, models.LevelProvincial, actor.Provinces)
	}
	if actor.HasRole(models.RoleSecretaryGeneral) {
		conds = append(conds, "project_approvals.approval_level = ?")
		args = append(args, models.LevelSecretary)
	}
	if actor.HasRole(models.RoleBoard) {
		conds = append(conds, "project_approvals.approval_level = ?")
		args = append(args, models.LevelBoard)
	}

	if len(conds) == 0 {
		return []PendingItem{}, nil
	}

	var approvals []models.Approval
	err := q.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = project_approvals.project_id").
		Where("project_approvals.status = ?", models.ApprovalPending).
		Where(strings.Join(conds, " OR "), args...).
		Order("projects.submitted_at asc").
		Find(&approvals).Error
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "load pending approvals: %v", err)
	}

	if len(approvals) == 0 {
		return []PendingItem{}, nil
	}

	ids := make([]uint, 0, len(approvals))
	for _, a := range approvals {
		ids = append(ids, a.ProjectID)
	}

	var projects []models.Project
	if err := q.db.WithContext(ctx).Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "load pending projects: %v", err)
	}
	byID := make(map[uint]models.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	items := make([]PendingItem, 0, len(approvals))
	for _, a := range approvals {
		items = append(items, PendingItem{Project: byID[a.ProjectID], Approval: a})
	}
	return items, nil
}
