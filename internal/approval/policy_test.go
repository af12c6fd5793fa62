package approval

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIWebFAZ/frdfund/internal/apperr"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

func budget(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecideTransitions(t *testing.T) {
	tests := []struct {
		name       string
		current    models.ProjectStatus
		role       models.Role
		action     models.DecisionAction
		budget     decimal.Decimal
		wantLevel  models.ApprovalLevel
		wantStatus models.ProjectStatus
	}{
		{
			name:       "provincial approve",
			current:    models.StatusPendingProvincial,
			role:       models.RoleProvincialDirector,
			action:     models.ActionApprove,
			budget:     budget("300000"),
			wantLevel:  models.LevelProvincial,
			wantStatus: models.StatusPendingSecretary,
		},
		{
			name:       "provincial reject",
			current:    models.StatusPendingProvincial,
			role:       models.RoleProvincialDirector,
			action:     models.ActionReject,
			budget:     budget("300000"),
			wantLevel:  models.LevelProvincial,
			wantStatus: models.StatusRejected,
		},
		{
			name:       "secretary approve small budget",
			current:    models.StatusPendingSecretary,
			role:       models.RoleSecretaryGeneral,
			action:     models.ActionApprove,
			budget:     budget("300000"),
			wantLevel:  models.LevelSecretary,
			wantStatus: models.StatusApproved,
		},
		{
			name:       "secretary approve at exact threshold",
			current:    models.StatusPendingSecretary,
			role:       models.RoleSecretaryGeneral,
			action:     models.ActionApprove,
			budget:     budget("500000.00"),
			wantLevel:  models.LevelSecretary,
			wantStatus: models.StatusApproved,
		},
		{
			name:       "secretary approve one satang over threshold",
			current:    models.StatusPendingSecretary,
			role:       models.RoleSecretaryGeneral,
			action:     models.ActionApprove,
			budget:     budget("500000.01"),
			wantLevel:  models.LevelSecretary,
			wantStatus: models.StatusPendingBoard,
		},
		{
			name:       "secretary reject",
			current:    models.StatusPendingSecretary,
			role:       models.RoleSecretaryGeneral,
			action:     models.ActionReject,
			budget:     budget("900000"),
			wantLevel:  models.LevelSecretary,
			wantStatus: models.StatusRejected,
		},
		{
			name:       "board approve",
			current:    models.StatusPendingBoard,
			role:       models.RoleBoard,
			action:     models.ActionApprove,
			budget:     budget("900000"),
			wantLevel:  models.LevelBoard,
			wantStatus: models.StatusApproved,
		},
		{
			name:       "board reject",
			current:    models.StatusPendingBoard,
			role:       models.RoleBoard,
			action:     models.ActionReject,
			budget:     budget("900000"),
			wantLevel:  models.LevelBoard,
			wantStatus: models.StatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decide(tt.current, tt.role, tt.action, tt.budget)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, d.Level)
			assert.Equal(t, tt.wantStatus, d.NextStatus)
		})
	}
}

func TestDecideUnknownRole(t *testing.T) {
	for _, role := range []models.Role{models.RoleStaff, models.RoleAdmin, "auditor", ""} {
		_, err := Decide(models.StatusPendingProvincial, role, models.ActionApprove, budget("100000"))
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, "role %q", role)
	}
}

func TestDecideLevelMismatch(t *testing.T) {
	tests := []struct {
		current models.ProjectStatus
		role    models.Role
	}{
		{models.StatusPendingProvincial, models.RoleSecretaryGeneral},
		{models.StatusPendingProvincial, models.RoleBoard},
		{models.StatusPendingSecretary, models.RoleProvincialDirector},
		{models.StatusPendingSecretary, models.RoleBoard},
		{models.StatusPendingBoard, models.RoleProvincialDirector},
		{models.StatusPendingBoard, models.RoleSecretaryGeneral},
		{models.StatusDraft, models.RoleProvincialDirector},
		{models.StatusApproved, models.RoleBoard},
		{models.StatusRejected, models.RoleSecretaryGeneral},
	}
	for _, tt := range tests {
		_, err := Decide(tt.current, tt.role, models.ActionApprove, budget("100000"))
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "%s acting on %s", tt.role, tt.current)
	}
}

func TestDecideUnknownAction(t *testing.T) {
	_, err := Decide(models.StatusPendingProvincial, models.RoleProvincialDirector, "defer", budget("100000"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
