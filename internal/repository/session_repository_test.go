package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"traffic-counter-go/internal/database"
	"traffic-counter-go/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{DSN: filepath.Join(t.TempDir(), "repo.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })
	return db
}

func newSession(id string, startedAt time.Time) *model.Session {
	return &model.Session{
		ID:                  id,
		Name:                "Session " + id,
		ConfidenceThreshold: 0.1,
		LineRatio:           0.6,
		Status:              model.SessionRunning,
		StartedAt:           startedAt,
		ClassCounts: []model.ClassCount{
			{VehicleClass: "car", Count: 0},
			{VehicleClass: "motorcycle", Count: 0},
			{VehicleClass: "bus", Count: 0},
			{VehicleClass: "truck", Count: 0},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	session := newSession("s1", time.Now())
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Session s1", got.Name)
	require.Equal(t, model.SessionRunning, got.Status)
	require.Len(t, got.ClassCounts, 4)
	require.Equal(t, "car", got.ClassCounts[0].VehicleClass)
	require.Empty(t, got.Crossings)
}

func TestGetMissing(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReplacesChildren(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	session := newSession("s1", time.Now())
	require.NoError(t, repo.Create(ctx, session))

	finished := time.Now()
	session.Status = model.SessionCompleted
	session.FinishedAt = &finished
	session.FramesProcessed = 3
	session.TotalCount = 1
	session.ClassCounts[0].Count = 1
	session.Crossings = []model.CrossingEvent{
		{TrackID: 7, VehicleClass: "car", FrameIndex: 2, PreviousY: 100, CurrentY: 650, LineY: 432},
	}
	require.NoError(t, repo.Update(ctx, session))
	// повторное обновление не дублирует дочерние записи
	require.NoError(t, repo.Update(ctx, session))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, model.SessionCompleted, got.Status)
	require.NotNil(t, got.FinishedAt)
	require.Equal(t, int64(3), got.FramesProcessed)
	require.Equal(t, 1, got.TotalCount)
	require.Len(t, got.ClassCounts, 4)
	require.Equal(t, 1, got.ClassCounts[0].Count)
	require.Len(t, got.Crossings, 1)
	require.Equal(t, int64(7), got.Crossings[0].TrackID)
}

func TestUpdateMissing(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	err := repo.Update(context.Background(), newSession("missing", time.Now()))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newSession(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	sessions, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, sessions, 2)
	require.Equal(t, "s4", sessions[0].ID)
	require.Equal(t, "s3", sessions[1].ID)
	require.Len(t, sessions[0].ClassCounts, 4)

	sessions, _, err = repo.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "s0", sessions[0].ID)
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("s1", time.Now())))
	require.NoError(t, repo.Delete(ctx, "s1"))

	_, err := repo.GetByID(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)

	var counts int64
	require.NoError(t, db.Model(&model.ClassCount{}).Where("session_id = ?", "s1").Count(&counts).Error)
	require.Zero(t, counts)

	require.ErrorIs(t, repo.Delete(ctx, "s1"), ErrNotFound)
}
