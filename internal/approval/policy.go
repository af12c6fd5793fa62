// Package approval holds the decision rules of the three-level review chain
// and the pending-queue resolver for reviewers.
package approval

import (
	"github.com/shopspring/decimal"

	"github.com/AIWebFAZ/frdfund/internal/apperr"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

// BoardThreshold is the budget above which secretary approval routes to the
// board instead of approving directly. The bound is inclusive: a budget equal
// to the threshold approves without the board.
var BoardThreshold = decimal.NewFromInt(500000)

// Decision is the outcome of one reviewer action: which level it closes and
// the status the project moves to.
type Decision struct {
	Level      models.ApprovalLevel
	NextStatus models.ProjectStatus
}

// LevelFor maps an approver role to the level it decides.
func LevelFor(role models.Role) (models.ApprovalLevel, bool) {
	switch role {
	case models.RoleProvincialDirector:
		return models.LevelProvincial, true
	case models.RoleSecretaryGeneral:
		return models.LevelSecretary, true
	case models.RoleBoard:
		return models.LevelBoard, true
	}
	return "", false
}

// PendingStatusFor is the project status in which the given level is under
// review.
func PendingStatusFor(level models.ApprovalLevel) models.ProjectStatus {
	switch level {
	case models.LevelProvincial:
		return models.StatusPendingProvincial
	case models.LevelSecretary:
		return models.StatusPendingSecretary
	default:
		return models.StatusPendingBoard
	}
}

// LevelUnderReview is the inverse of PendingStatusFor. ok is false when the
// status is not a pending one.
func LevelUnderReview(status models.ProjectStatus) (models.ApprovalLevel, bool) {
	switch status {
	case models.StatusPendingProvincial:
		return models.LevelProvincial, true
	case models.StatusPendingSecretary:
		return models.LevelSecretary, true
	case models.StatusPendingBoard:
		return models.LevelBoard, true
	}
	return "", false
}

// Decide computes the level to close and the next project status for one
// reviewer action. Pure function: no store access, no side effects.
func Decide(current models.ProjectStatus, role models.Role, action models.DecisionAction, totalBudget decimal.Decimal) (Decision, error) {
	level, ok := LevelFor(role)
	if !ok {
		return Decision{}, apperr.Wrapf(apperr.ErrUnauthorized, "role %q cannot decide approvals", role)
	}

	if action != models.ActionApprove && action != models.ActionReject {
		return Decision{}, apperr.Wrapf(apperr.ErrValidation, "action must be approve or reject, got %q", action)
	}

	if PendingStatusFor(level) != current {
		return Decision{}, apperr.Wrapf(apperr.ErrInvalidTransition,
			"%s cannot decide a project in status %q", role, current)
	}

	if action == models.ActionReject {
		return Decision{Level: level, NextStatus: models.StatusRejected}, nil
	}

	switch level {
	case models.LevelProvincial:
		return Decision{Level: level, NextStatus: models.StatusPendingSecretary}, nil
	case models.LevelSecretary:
		if totalBudget.GreaterThan(BoardThreshold) {
			return Decision{Level: level, NextStatus: models.StatusPendingBoard}, nil
		}
		return Decision{Level: level, NextStatus: models.StatusApproved}, nil
	default:
		return Decision{Level: level, NextStatus: models.StatusApproved}, nil
	}
}
