package project

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AIWebFAZ/frdfund/internal/apperr"
	"github.com/AIWebFAZ/frdfund/internal/audit"
	"github.com/AIWebFAZ/frdfund/internal/database"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

var (
	owner = models.Actor{ID: 1, Username: "somsri", Roles: []models.Role{models.RoleStaff}}
	admin = models.Actor{ID: 2, Username: "admin", Roles: []models.Role{models.RoleAdmin}}

	directorA = models.Actor{
		ID: 3, Username: "director.a",
		Roles:     []models.Role{models.RoleProvincialDirector},
		Provinces: []string{"A"},
	}
	secretary = models.Actor{ID: 4, Username: "secgen", Roles: []models.Role{models.RoleSecretaryGeneral}}
	board     = models.Actor{ID: 5, Username: "board", Roles: []models.Role{models.RoleBoard}}

	noMeta = audit.Origin{}
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *audit.Recorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	recorder := audit.NewRecorder(db, zap.NewNop())
	return NewService(db, recorder, zap.NewNop()), db, recorder
}

func draftInput(budgetStr string) DraftInput {
	return DraftInput{
		ProjectName:      "โครงการเลี้ยงปลานิล",
		OrganizationName: "กลุ่มเกษตรกรบ้านหนองบัว",
		Province:         "A",
		TotalBudget:      decimal.RequireFromString(budgetStr),
		BudgetItems: []BudgetItemInput{
			{ItemNo: 1, ItemName: "พันธุ์ปลา", Quantity: 1000, UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(10000)},
		},
		Members: []MemberInput{
			{MemberName: "สมชาย ใจดี", IDCard: "1100200300400", Position: "ประธาน"},
		},
		Plans: []PlanInput{
			{PlanNumber: 1, PlanName: "เตรียมบ่อ", Budget: decimal.NewFromInt(5000)},
		},
	}
}

func submit(t *testing.T, svc *Service, id uint) *models.Project {
	t.Helper()
	p, err := svc.Submit(context.Background(), owner, noMeta, id)
	require.NoError(t, err)
	return p
}

func TestCreateDraft(t *testing.T) {
	svc, db, recorder := newTestService(t)

	p, err := svc.CreateDraft(context.Background(), owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, p.Status)
	assert.Equal(t, owner.ID, p.CreatedBy)
	assert.True(t, p.TotalBudget.Equal(decimal.NewFromInt(300000)))

	var members, items, plans int64
	db.Model(&models.ProjectMember{}).Where("project_id = ?", p.ID).Count(&members)
	db.Model(&models.BudgetItem{}).Where("project_id = ?", p.ID).Count(&items)
	db.Model(&models.ProjectPlan{}).Where("project_id = ?", p.ID).Count(&plans)
	assert.EqualValues(t, 1, members)
	assert.EqualValues(t, 1, items)
	assert.EqualValues(t, 1, plans)

	recorder.Wait()
	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditCreate).First(&entry).Error)
	assert.Equal(t, "projects", entry.Table)
	require.NotNil(t, entry.RecordID)
	assert.Equal(t, p.ID, *entry.RecordID)
}

func TestCreateDraftPlaceholderName(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := draftInput("0")
	in.ProjectName = ""
	p, err := svc.CreateDraft(context.Background(), owner, noMeta, in)
	require.NoError(t, err)
	assert.Equal(t, "โครงการร่าง - กลุ่มเกษตรกรบ้านหนองบัว", p.ProjectName)

	in.OrganizationName = ""
	p, err = svc.CreateDraft(context.Background(), owner, noMeta, in)
	require.NoError(t, err)
	assert.Equal(t, "โครงการร่าง - ไม่ระบุ", p.ProjectName)
}

func TestUpdateDraftReplacesBudgetItems(t *testing.T) {
	svc, db, _ := newTestService(t)

	in := draftInput("300000")
	in.BudgetItems = append(in.BudgetItems, BudgetItemInput{
		ItemNo: 2, ItemName: "อาหารปลา", Quantity: 20, UnitPrice: decimal.NewFromInt(500), TotalPrice: decimal.NewFromInt(10000),
	})
	p, err := svc.CreateDraft(context.Background(), owner, noMeta, in)
	require.NoError(t, err)

	replacement := []BudgetItemInput{
		{ItemNo: 1, ItemName: "ปูนขาว", Quantity: 10, UnitPrice: decimal.NewFromInt(100), TotalPrice: decimal.NewFromInt(1000)},
		{ItemNo: 2, ItemName: "เครื่องสูบน้ำ", Quantity: 1, UnitPrice: decimal.NewFromInt(15000), TotalPrice: decimal.NewFromInt(15000)},
		{ItemNo: 3, ItemName: "ค่าแรง", Quantity: 5, UnitPrice: decimal.NewFromInt(300), TotalPrice: decimal.NewFromInt(1500)},
	}
	_, err = svc.UpdateDraft(context.Background(), owner, noMeta, p.ID, DraftPatch{BudgetItems: &replacement})
	require.NoError(t, err)

	var items []models.BudgetItem
	require.NoError(t, db.Where("project_id = ?", p.ID).Order("item_no asc").Find(&items).Error)
	require.Len(t, items, 3)
	assert.Equal(t, "ปูนขาว", items[0].ItemName)
	assert.Equal(t, "ค่าแรง", items[2].ItemName)
}

func TestUpdateDraftPatchesScalars(t *testing.T) {
	svc, _, _ := newTestService(t)

	p, err := svc.CreateDraft(context.Background(), owner, noMeta, draftInput("300000"))
	require.NoError(t, err)

	name := "โครงการเลี้ยงปลานิลแปลงใหญ่"
	budget := decimal.RequireFromString("450000.50")
	step := 4
	updated, err := svc.UpdateDraft(context.Background(), owner, noMeta, p.ID, DraftPatch{
		ProjectName: &name,
		TotalBudget: &budget,
		CurrentStep: &step,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.ProjectName)
	assert.True(t, updated.TotalBudget.Equal(budget))
	assert.Equal(t, 4, updated.CurrentStep)
	// untouched collections survive
	assert.Len(t, updated.BudgetItems, 1)
	assert.Len(t, updated.Members, 1)
}

func TestUpdateDraftOnlyInDraft(t *testing.T) {
	svc, _, _ := newTestService(t)

	p, err := svc.CreateDraft(context.Background(), owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	name := "too late"
	_, err = svc.UpdateDraft(context.Background(), owner, noMeta, p.ID, DraftPatch{ProjectName: &name})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestUpdateDraftOwnership(t *testing.T) {
	svc, _, _ := newTestService(t)

	p, err := svc.CreateDraft(context.Background(), owner, noMeta, draftInput("300000"))
	require.NoError(t, err)

	stranger := models.Actor{ID: 99, Username: "someone", Roles: []models.Role{models.RoleStaff}}
	name := "hijack"
	_, err = svc.UpdateDraft(context.Background(), stranger, noMeta, p.ID, DraftPatch{ProjectName: &name})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestSubmit(t *testing.T) {
	svc, db, _ := newTestService(t)

	p, err := svc.CreateDraft(context.Background(), owner, noMeta, draftInput("300000"))
	require.NoError(t, err)

	submitted := submit(t, svc, p.ID)
	assert.Equal(t, models.StatusPendingProvincial, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	var a models.Approval
	require.NoError(t, db.Where("project_id = ?", p.ID).First(&a).Error)
	assert.Equal(t, models.LevelProvincial, a.Level)
	assert.Equal(t, models.ApprovalPending, a.Status)

	// resubmission is rejected
	_, err = svc.Submit(context.Background(), owner, noMeta, p.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := draftInput("300000")
	in.BudgetItems = nil
	p, err := svc.CreateDraft(context.Background(), owner, noMeta, in)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), owner, noMeta, p.ID)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "at least one budget item")
}

func TestApprovalChainSmallBudget(t *testing.T) {
	svc, db, recorder := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	// provincial director approves
	p1, err := svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "เห็นควรสนับสนุน")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingSecretary, p1.Status)

	var approvals []models.Approval
	require.NoError(t, db.Where("project_id = ?", p.ID).Order("id asc").Find(&approvals).Error)
	require.Len(t, approvals, 2)
	assert.Equal(t, models.ApprovalApproved, approvals[0].Status)
	require.NotNil(t, approvals[0].ApproverID)
	assert.Equal(t, directorA.ID, *approvals[0].ApproverID)
	assert.Equal(t, "เห็นควรสนับสนุน", approvals[0].Comments)
	assert.Equal(t, models.LevelSecretary, approvals[1].Level)
	assert.Equal(t, models.ApprovalPending, approvals[1].Status)

	// secretary approves, budget under threshold: no board level
	p2, err := svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, p2.Status)
	require.NotNil(t, p2.ApprovedAt)

	var count int64
	db.Model(&models.Approval{}).Where("project_id = ?", p.ID).Count(&count)
	assert.EqualValues(t, 2, count)

	recorder.Wait()
	var auditCount int64
	db.Model(&models.AuditLog{}).Where("action = ?", models.AuditApprove).Count(&auditCount)
	assert.EqualValues(t, 2, auditCount)
}

func TestApprovalChainLargeBudgetBoardRejects(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("600000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)

	p1, err := svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingBoard, p1.Status)

	var boardRow models.Approval
	require.NoError(t, db.Where("project_id = ? AND approval_level = ?", p.ID, models.LevelBoard).First(&boardRow).Error)
	assert.Equal(t, models.ApprovalPending, boardRow.Status)

	p2, err := svc.RecordDecision(ctx, board, noMeta, p.ID, models.ActionReject, "งบประมาณสูงเกินไป")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, p2.Status)
	assert.Nil(t, p2.ApprovedAt)

	require.NoError(t, db.Where("project_id = ? AND approval_level = ?", p.ID, models.LevelBoard).First(&boardRow).Error)
	assert.Equal(t, models.ApprovalRejected, boardRow.Status)
}

func TestSecretaryThresholdBoundary(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	run := func(budget string) models.ProjectStatus {
		p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput(budget))
		require.NoError(t, err)
		submit(t, svc, p.ID)
		_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "")
		require.NoError(t, err)
		out, err := svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionApprove, "")
		require.NoError(t, err)
		return out.Status
	}

	assert.Equal(t, models.StatusApproved, run("500000.00"))
	assert.Equal(t, models.StatusPendingBoard, run("500000.01"))
}

func TestRejectionDoesNotReopenEarlierLevels(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)
	_, err = svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionReject, "เอกสารไม่ครบ")
	require.NoError(t, err)

	var provincial models.Approval
	require.NoError(t, db.Where("project_id = ? AND approval_level = ?", p.ID, models.LevelProvincial).First(&provincial).Error)
	assert.Equal(t, models.ApprovalApproved, provincial.Status)
}

func TestRepeatedDecisionFailsInvalidState(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDecisionOnTerminalProject(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("100000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionReject, "")
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionApprove, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDecisionWithoutApproverRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	_, err = svc.RecordDecision(ctx, owner, noMeta, p.ID, models.ActionApprove, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestDecisionWrongLevel(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	// secretary acting while the project is still at the provincial level
	_, err = svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionApprove, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestDecisionProjectNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RecordDecision(context.Background(), directorA, noMeta, 9999, models.ActionApprove, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStaleSnapshotConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	// both "concurrent" reviewers load the same snapshot
	stale, err := svc.load(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)

	// the loser applies its decision against the moved row
	_, err = svc.applyDecision(ctx, directorA, noMeta, stale, models.ActionReject, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestFailedDecisionWritesNoAudit(t *testing.T) {
	svc, db, recorder := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	_, err = svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionApprove, "")
	require.Error(t, err)

	recorder.Wait()
	var count int64
	db.Model(&models.AuditLog{}).Where("action IN ?", []string{models.AuditApprove, models.AuditReject}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestDeleteCascades(t *testing.T) {
	svc, db, recorder := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)

	require.NoError(t, svc.Delete(ctx, admin, noMeta, p.ID))

	for _, child := range []any{
		&models.Project{}, &models.ProjectMember{}, &models.BudgetItem{},
		&models.ProjectPlan{}, &models.Approval{},
	} {
		var count int64
		db.Model(child).Count(&count)
		assert.EqualValues(t, 0, count)
	}

	recorder.Wait()
	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditDelete).First(&entry).Error)
	assert.Equal(t, "projects", entry.Table)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	p, err := svc.CreateDraft(context.Background(), owner, noMeta, draftInput("300000"))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), owner, noMeta, p.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestListScopesProvincialDirector(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inA := draftInput("100000")
	inB := draftInput("100000")
	inB.Province = "B"
	_, err := svc.CreateDraft(ctx, owner, noMeta, inA)
	require.NoError(t, err)
	_, err = svc.CreateDraft(ctx, owner, noMeta, inB)
	require.NoError(t, err)

	projects, err := svc.List(ctx, directorA, ListFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "A", projects[0].Province)

	projects, err = svc.List(ctx, admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestApprovalHistoryOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, owner, noMeta, draftInput("600000"))
	require.NoError(t, err)
	submit(t, svc, p.ID)
	_, err = svc.RecordDecision(ctx, directorA, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)
	_, err = svc.RecordDecision(ctx, secretary, noMeta, p.ID, models.ActionApprove, "")
	require.NoError(t, err)

	history, err := svc.ApprovalHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.LevelProvincial, history[0].Level)
	assert.Equal(t, models.LevelSecretary, history[1].Level)
	assert.Equal(t, models.LevelBoard, history[2].Level)
}

func TestSubmittedAtUsesClock(t *testing.T) {
	svc, _, _ := newTestService(t)
	frozen := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	p, err := svc.CreateDraft(context.Background(), owner, noMeta, draftInput("300000"))
	require.NoError(t, err)
	submitted := submit(t, svc, p.ID)

	require.NotNil(t, submitted.SubmittedAt)
	assert.True(t, submitted.SubmittedAt.Equal(frozen))
}
