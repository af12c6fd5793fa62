package approval

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AIWebFAZ/frdfund/internal/database"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedPending(t *testing.T, db *gorm.DB, name, province string, level models.ApprovalLevel, submittedAt time.Time) uint {
	t.Helper()
	p := models.Project{
		ProjectName: name,
		Province:    province,
		TotalBudget: decimal.NewFromInt(100000),
		Status:      PendingStatusFor(level),
		CreatedBy:   1,
		SubmittedAt: &submittedAt,
	}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&models.Approval{
		ProjectID: p.ID,
		Level:     level,
		Status:    models.ApprovalPending,
	}).Error)
	return p.ID
}

func TestPendingForProvincialScopedToProvinces(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)

	inA := seedPending(t, db, "rice mill", "A", models.LevelProvincial, time.Now().Add(-time.Hour))
	seedPending(t, db, "fish pond", "B", models.LevelProvincial, time.Now())

	actor := models.Actor{
		ID:        7,
		Roles:     []models.Role{models.RoleProvincialDirector},
		Provinces: []string{"A"},
	}

	items, err := q.PendingFor(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, inA, items[0].Project.ID)
	assert.Equal(t, models.LevelProvincial, items[0].Approval.Level)
}

func TestPendingForOrderedBySubmissionTime(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := seedPending(t, db, "newer", "A", models.LevelProvincial, base.Add(2*time.Hour))
	oldest := seedPending(t, db, "oldest", "A", models.LevelProvincial, base)
	middle := seedPending(t, db, "middle", "A", models.LevelProvincial, base.Add(time.Hour))

	actor := models.Actor{
		Roles:     []models.Role{models.RoleProvincialDirector},
		Provinces: []string{"A"},
	}

	items, err := q.PendingFor(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []uint{oldest, middle, newer}, []uint{
		items[0].Project.ID, items[1].Project.ID, items[2].Project.ID,
	})
}

func TestPendingForSecretarySeesAllProvinces(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)

	seedPending(t, db, "one", "A", models.LevelSecretary, time.Now())
	seedPending(t, db, "two", "B", models.LevelSecretary, time.Now())
	seedPending(t, db, "provincial only", "A", models.LevelProvincial, time.Now())

	actor := models.Actor{Roles: []models.Role{models.RoleSecretaryGeneral}}

	items, err := q.PendingFor(context.Background(), actor)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, models.LevelSecretary, it.Approval.Level)
	}
}

func TestPendingForMultiRoleUnion(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)

	seedPending(t, db, "provincial A", "A", models.LevelProvincial, time.Now())
	seedPending(t, db, "provincial B", "B", models.LevelProvincial, time.Now())
	seedPending(t, db, "board case", "C", models.LevelBoard, time.Now())

	actor := models.Actor{
		Roles:     []models.Role{models.RoleProvincialDirector, models.RoleBoard},
		Provinces: []string{"A"},
	}

	items, err := q.PendingFor(context.Background(), actor)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestPendingForWithoutApproverRole(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)

	seedPending(t, db, "waiting", "A", models.LevelProvincial, time.Now())

	items, err := q.PendingFor(context.Background(), models.Actor{
		Roles: []models.Role{models.RoleStaff},
	})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPendingForSkipsClosedApprovals(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)

	id := seedPending(t, db, "decided", "A", models.LevelProvincial, time.Now())
	require.NoError(t, db.Model(&models.Approval{}).
		Where("project_id = ?", id).
		Update("status", models.ApprovalApproved).Error)

	items, err := q.PendingFor(context.Background(), models.Actor{
		Roles:     []models.Role{models.RoleProvincialDirector},
		Provinces: []string{"A"},
	})
	require.NoError(t, err)
	assert.Empty(t, items)
}
