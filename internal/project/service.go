// Package project implements the funding-project lifecycle: draft creation
// and editing, submission into the approval chain, reviewer decisions, and
// deletion. It is the only writer of project status and approval rows.
package project

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/apperr"
	"github.com/AIWebFAZ/frdfund/internal/approval"
	"github.com/AIWebFAZ/frdfund/internal/audit"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

type Service struct {
	db    *gorm.DB
	audit *audit.Recorder
	log   *zap.Logger
	now   func() time.Time
}

func NewService(db *gorm.DB, recorder *audit.Recorder, log *zap.Logger) *Service {
	return &Service{db: db, audit: recorder, log: log, now: time.Now}
}

type MemberInput struct {
	MemberID   *uint  `json:"member_id"`
	MemberName string `json:"member_name"`
	IDCard     string `json:"id_card"`
	Position   string `json:"position"`
}

type BudgetItemInput struct {
	ItemNo     int             `json:"item_no"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Note       string          `json:"note"`
}

type PlanInput struct {
	PlanNumber      int             `json:"plan_number"`
	PlanName        string          `json:"plan_name"`
	Objectives      string          `json:"objectives"`
	Activities      string          `json:"activities"`
	Budget          decimal.Decimal `json:"budget"`
	ExpectedResults string          `json:"expected_results"`
}

type DraftInput struct {
	ProjectName        string          `json:"project_name"`
	ProjectDescription string          `json:"project_description"`
	OrganizationID     *uint           `json:"organization_id"`
	OrganizationName   string          `json:"organization_name"`
	OrganizationType   string          `json:"organization_type"`
	Province           string          `json:"province"`
	TotalBudget        decimal.Decimal `json:"total_budget"`
	Objectives         string          `json:"objectives"`
	ExpectedResults    string          `json:"expected_results"`
	StartDate          *time.Time      `json:"start_date"`
	EndDate            *time.Time      `json:"end_date"`
	DurationMonths     int             `json:"duration_months"`

	Members     []MemberInput     `json:"members"`
	BudgetItems []BudgetItemInput `json:"budget_items"`
	Plans       []PlanInput       `json:"plans"`
}

// DraftPatch updates a draft. Nil fields are left untouched; non-nil
// collections replace the stored ones entirely.
type DraftPatch struct {
	ProjectName        *string          `json:"project_name"`
	ProjectDescription *string          `json:"project_description"`
	TotalBudget        *decimal.Decimal `json:"total_budget"`
	Objectives         *string          `json:"objectives"`
	ExpectedResults    *string          `json:"expected_results"`
	StartDate          *time.Time       `json:"start_date"`
	EndDate            *time.Time       `json:"end_date"`
	DurationMonths     *int             `json:"duration_months"`
	CurrentStep        *int             `json:"current_step"`

	Members     *[]MemberInput     `json:"members"`
	BudgetItems *[]BudgetItemInput `json:"budget_items"`
	Plans       *[]PlanInput       `json:"plans"`
}

// CreateDraft persists a new draft project together with its member, budget
// and plan collections as one transaction. A draft saved before the wizard's
// naming step gets a placeholder name derived from the organization.
func (s *Service) CreateDraft(ctx context.Context, actor models.Actor, origin audit.Origin, in DraftInput) (*models.Project, error) {
	if actor.ID == 0 {
		return nil, apperr.Wrapf(apperr.ErrUnauthorized, "draft creation requires an authenticated user")
	}

	name := in.ProjectName
	if name == "" {
		orgName := in.OrganizationName
		if orgName == "" {
			orgName = "ไม่ระบุ"
		}
		name = "โครงการร่าง - " + orgName
	}

	p := models.Project{
		ProjectName:        name,
		ProjectDescription: in.ProjectDescription,
		OrganizationID:     in.OrganizationID,
		OrganizationName:   in.OrganizationName,
		OrganizationType:   in.OrganizationType,
		Province:           in.Province,
		TotalBudget:        in.TotalBudget,
		Objectives:         in.Objectives,
		ExpectedResults:    in.ExpectedResults,
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		DurationMonths:     in.DurationMonths,
		CurrentStep:        1,
		Status:             models.StatusDraft,
		CreatedBy:          actor.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if err := insertChildren(tx, p.ID, in.Members, in.BudgetItems, in.Plans); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "create draft: %v", err)
	}

	s.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditCreate,
		Table:    "projects",
		RecordID: &p.ID,
		NewValues: map[string]any{
			"project_name": p.ProjectName,
			"province":     p.Province,
			"total_budget": p.TotalBudget.String(),
			"status":       string(p.Status),
		},
		Origin: origin,
	})

	return &p, nil
}

// UpdateDraft patches a draft's fields and, when provided, replaces its
// child collections. Editing is permitted only while the project is in
// draft: once submitted the record is immutable except through decisions.
func (s *Service) UpdateDraft(ctx context.Context, actor models.Actor, origin audit.Origin, id uint, patch DraftPatch) (*models.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(actor, p); err != nil {
		return nil, err
	}
	if p.Status != models.StatusDraft {
		return nil, apperr.Wrapf(apperr.ErrInvalidState, "only draft projects can be edited, project is %q", p.Status)
	}

	oldValues := map[string]any{
		"project_name": p.ProjectName,
		"total_budget": p.TotalBudget.String(),
		"current_step": p.CurrentStep,
	}

	updates := map[string]any{}
	if patch.ProjectName != nil {
		updates["project_name"] = *patch.ProjectName
	}
	if patch.ProjectDescription != nil {
		updates["project_description"] = *patch.ProjectDescription
	}
	if patch.TotalBudget != nil {
		updates["total_budget"] = *patch.TotalBudget
	}
	if patch.Objectives != nil {
		updates["objectives"] = *patch.Objectives
	}
	if patch.ExpectedResults != nil {
		updates["expected_results"] = *patch.ExpectedResults
	}
	if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		updates["end_date"] = *patch.EndDate
	}
	if patch.DurationMonths != nil {
		updates["duration_months"] = *patch.DurationMonths
	}
	if patch.CurrentStep != nil {
		updates["current_step"] = *patch.CurrentStep
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if patch.Members != nil {
			if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
				return err
			}
		}
		if patch.BudgetItems != nil {
			if err := tx.Where("project_id = ?", id).Delete(&models.BudgetItem{}).Error; err != nil {
				return err
			}
		}
		if patch.Plans != nil {
			if err := tx.Where("project_id = ?", id).Delete(&models.ProjectPlan{}).Error; err != nil {
				return err
			}
		}
		var members []MemberInput
		var items []BudgetItemInput
		var plans []PlanInput
		if patch.Members != nil {
			members = *patch.Members
		}
		if patch.BudgetItems != nil {
			items = *patch.BudgetItems
		}
		if patch.Plans != nil {
			plans = *patch.Plans
		}
		return insertChildren(tx, id, members, items, plans)
	})
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "update draft: %v", err)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	newValues := make(map[string]any, len(updates))
	for k, v := range updates {
		if d, ok := v.(decimal.Decimal); ok {
			newValues[k] = d.String()
			continue
		}
		newValues[k] = v
	}

	s.audit.Record(audit.Entry{
		Actor:     actor,
		Action:    models.AuditUpdate,
		Table:     "projects",
		RecordID:  &id,
		OldValues: oldValues,
		NewValues: newValues,
		Origin:    origin,
	})

	return updated, nil
}

// Submit moves a draft into the approval chain: status becomes
// pending_provincial and the provincial approval row is opened.
func (s *Service) Submit(ctx context.Context, actor models.Actor, origin audit.Origin, id uint) (*models.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(actor, p); err != nil {
		return nil, err
	}
	if p.Status != models.StatusDraft {
		return nil, apperr.Wrapf(apperr.ErrInvalidState, "only draft projects can be submitted, project is %q", p.Status)
	}
	if p.ProjectName == "" {
		return nil, apperr.Wrapf(apperr.ErrValidation, "project must have a name")
	}
	if p.Province == "" {
		return nil, apperr.Wrapf(apperr.ErrValidation, "project must have a province")
	}
	if len(p.BudgetItems) == 0 {
		return nil, apperr.Wrapf(apperr.ErrValidation, "project must have at least one budget item")
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", id, models.StatusDraft).
			Updates(map[string]any{
				"status":       models.StatusPendingProvincial,
				"submitted_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Wrapf(apperr.ErrConflict, "project %d was modified concurrently", id)
		}
		return tx.Create(&models.Approval{
			ProjectID: id,
			Level:     models.LevelProvincial,
			Status:    models.ApprovalPending,
		}).Error
	})
	if err != nil {
		return nil, storeErr("submit project", err)
	}

	s.audit.Record(audit.Entry{
		Actor:     actor,
		Action:    models.AuditUpdate,
		Table:     "projects",
		RecordID:  &id,
		OldValues: map[string]any{"status": string(models.StatusDraft)},
		NewValues: map[string]any{"status": string(models.StatusPendingProvincial)},
		Origin:    origin,
	})

	return s.load(ctx, id)
}

// RecordDecision applies one reviewer action to the project's current
// pending level. The approval close, the status move and the next pending
// row are committed atomically; the audit entry is written only after the
// commit succeeds.
func (s *Service) RecordDecision(ctx context.Context, actor models.Actor, origin audit.Origin, id uint, action models.DecisionAction, comments string) (*models.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyDecision(ctx, actor, origin, p, action, comments)
}

// applyDecision runs against a previously loaded snapshot. If the project's
// status moved between the load and the write, the compare-and-swap fails
// and the caller gets ErrConflict.
func (s *Service) applyDecision(ctx context.Context, actor models.Actor, origin audit.Origin, p *models.Project, action models.DecisionAction, comments string) (*models.Project, error) {
	level, pending := approval.LevelUnderReview(p.Status)
	if !pending {
		return nil, apperr.Wrapf(apperr.ErrInvalidState, "project is not awaiting approval, status is %q", p.Status)
	}

	role, err := actingRole(actor, level)
	if err != nil {
		// A reviewer re-submitting a decision for a level that has already
		// been closed gets InvalidState, not InvalidTransition.
		if errors.Is(err, apperr.ErrInvalidTransition) && s.actorLevelClosed(ctx, actor, p.ID) {
			return nil, apperr.Wrapf(apperr.ErrInvalidState, "approval level already decided for project %d", p.ID)
		}
		return nil, err
	}

	decision, err := approval.Decide(p.Status, role, action, p.TotalBudget)
	if err != nil {
		return nil, err
	}

	now := s.now()
	approvalStatus := models.ApprovalApproved
	if action == models.ActionReject {
		approvalStatus = models.ApprovalRejected
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Approval{}).
			Where("project_id = ? AND approval_level = ? AND status = ?", p.ID, decision.Level, models.ApprovalPending).
			Updates(map[string]any{
				"status":      approvalStatus,
				"approver_id": actor.ID,
				"comments":    comments,
				"approved_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Wrapf(apperr.ErrConflict, "approval at level %q was decided concurrently", decision.Level)
		}

		updates := map[string]any{"status": decision.NextStatus}
		if decision.NextStatus == models.StatusApproved {
			updates["approved_at"] = now
		}
		res = tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", p.ID, p.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Wrapf(apperr.ErrConflict, "project %d changed status during the decision", p.ID)
		}

		if next, ok := approval.LevelUnderReview(decision.NextStatus); ok {
			return tx.Create(&models.Approval{
				ProjectID: p.ID,
				Level:     next,
				Status:    models.ApprovalPending,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("record decision", err)
	}

	auditAction := models.AuditApprove
	if action == models.ActionReject {
		auditAction = models.AuditReject
	}
	s.audit.Record(audit.Entry{
		Actor:     actor,
		Action:    auditAction,
		Table:     "projects",
		RecordID:  &p.ID,
		OldValues: map[string]any{"status": string(p.Status)},
		NewValues: map[string]any{"status": string(decision.NextStatus), "comments": comments},
		Origin:    origin,
	})

	return s.load(ctx, p.ID)
}

// Delete hard-deletes a project and every child record. Admin only.
func (s *Service) Delete(ctx context.Context, actor models.Actor, origin audit.Origin, id uint) error {
	if !actor.HasRole(models.RoleAdmin) {
		return apperr.Wrapf(apperr.ErrUnauthorized, "only admins can delete projects")
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{
			&models.ProjectMember{}, &models.BudgetItem{}, &models.ProjectPlan{},
			&models.Approval{}, &models.Document{},
		} {
			if err := tx.Where("project_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Project{}, id).Error
	})
	if err != nil {
		return apperr.Wrapf(apperr.ErrStoreUnavailable, "delete project: %v", err)
	}

	s.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditDelete,
		Table:    "projects",
		RecordID: &id,
		OldValues: map[string]any{
			"project_name": p.ProjectName,
			"status":       string(p.Status),
			"total_budget": p.TotalBudget.String(),
		},
		Origin: origin,
	})
	return nil
}

// Get returns the project with children, creator and approval history.
func (s *Service) Get(ctx context.Context, id uint) (*models.Project, []models.Approval, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	approvals, err := s.ApprovalHistory(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, approvals, nil
}

type ListFilter struct {
	Status models.ProjectStatus
	Page   int
	Limit  int
}

// List returns projects newest first. Provincial directors without a wider
// role see only their provinces.
func (s *Service) List(ctx context.Context, actor models.Actor, f ListFilter) ([]models.Project, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.Project{}).Order("created_at desc")
	if provinceScoped(actor) {
		q = q.Where("province IN ?", actor.Provinces)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var projects []models.Project
	err := q.Limit(f.Limit).Offset((f.Page - 1) * f.Limit).Find(&projects).Error
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "list projects: %v", err)
	}
	return projects, nil
}

// ApprovalHistory returns every approval row of a project in chain order.
func (s *Service) ApprovalHistory(ctx context.Context, id uint) ([]models.Approval, error) {
	var approvals []models.Approval
	err := s.db.WithContext(ctx).
		Preload("Approver").
		Where("project_id = ?", id).
		Order("created_at asc, id asc").
		Find(&approvals).Error
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "load approval history: %v", err)
	}
	return approvals, nil
}

func (s *Service) load(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("BudgetItems").
		Preload("Plans").
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrapf(apperr.ErrNotFound, "project %d does not exist", id)
	}
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrStoreUnavailable, "load project: %v", err)
	}
	return &p, nil
}

func (s *Service) requireOwnerOrAdmin(actor models.Actor, p *models.Project) error {
	if actor.ID == p.CreatedBy || actor.HasRole(models.RoleAdmin) {
		return nil
	}
	return apperr.Wrapf(apperr.ErrUnauthorized, "project %d belongs to another user", p.ID)
}

// actorLevelClosed reports whether any level the actor decides has already
// been closed on this project.
func (s *Service) actorLevelClosed(ctx context.Context, actor models.Actor, projectID uint) bool {
	var levels []models.ApprovalLevel
	for _, r := range actor.Roles {
		if l, ok := approval.LevelFor(r); ok {
			levels = append(levels, l)
		}
	}
	if len(levels) == 0 {
		return false
	}
	var count int64
	s.db.WithContext(ctx).Model(&models.Approval{}).
		Where("project_id = ? AND approval_level IN ? AND status <> ?", projectID, levels, models.ApprovalPending).
		Count(&count)
	return count > 0
}

// actingRole picks the actor role that decides the given level.
func actingRole(actor models.Actor, level models.ApprovalLevel) (models.Role, error) {
	for _, r := range []models.Role{models.RoleProvincialDirector, models.RoleSecretaryGeneral, models.RoleBoard} {
		l, _ := approval.LevelFor(r)
		if l == level && actor.HasRole(r) {
			return r, nil
		}
	}
	if actor.HasApproverRole() {
		return "", apperr.Wrapf(apperr.ErrInvalidTransition, "none of the actor's roles decide the %q level", level)
	}
	return "", apperr.Wrapf(apperr.ErrUnauthorized, "actor has no approval role")
}

func provinceScoped(actor models.Actor) bool {
	return actor.HasRole(models.RoleProvincialDirector) &&
		len(actor.Provinces) > 0 &&
		!actor.HasRole(models.RoleAdmin) &&
		!actor.HasRole(models.RoleSecretaryGeneral) &&
		!actor.HasRole(models.RoleBoard)
}

func insertChildren(tx *gorm.DB, projectID uint, members []MemberInput, items []BudgetItemInput, plans []PlanInput) error {
	for _, m := range members {
		row := models.ProjectMember{
			ProjectID:  projectID,
			MemberID:   m.MemberID,
			MemberName: m.MemberName,
			IDCard:     m.IDCard,
			Position:   m.Position,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	for _, it := range items {
		row := models.BudgetItem{
			ProjectID:  projectID,
			ItemNo:     it.ItemNo,
			ItemName:   it.ItemName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Note:       it.Note,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	for _, pl := range plans {
		row := models.ProjectPlan{
			ProjectID:       projectID,
			PlanNumber:      pl.PlanNumber,
			PlanName:        pl.PlanName,
			Objectives:      pl.Objectives,
			Activities:      pl.Activities,
			Budget:          pl.Budget,
			ExpectedResults: pl.ExpectedResults,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// storeErr keeps apperr kinds raised inside a transaction intact and wraps
// anything else as a transient store failure.
func storeErr(op string, err error) error {
	for _, kind := range []error{apperr.ErrConflict, apperr.ErrInvalidState, apperr.ErrInvalidTransition, apperr.ErrUnauthorized, apperr.ErrValidation, apperr.ErrNotFound} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return apperr.Wrapf(apperr.ErrStoreUnavailable, "%s: %v", op, err)
}
