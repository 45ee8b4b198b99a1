package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/models"
)

func setupShiftTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Shift{}, &models.AttendanceRecord{}))
	return db
}

func newTestShift(supervisorID string) *models.Shift {
	return &models.Shift{
		ID:             uuid.NewString(),
		SupervisorID:   supervisorID,
		SupervisorName: "Supervisor " + supervisorID,
		Location:       "Main Campus",
		Status:         models.ShiftStatusActive,
		StartTime:      time.Now().UTC(),
	}
}

func TestShiftRepositoryActiveBySupervisor(t *testing.T) {
	db := setupShiftTestDB(t)
	repo := NewShiftRepository(db)

	active, err := repo.ActiveBySupervisor(context.Background(), "S1")
	require.NoError(t, err)
	require.Nil(t, active)

	shift := newTestShift("S1")
	require.NoError(t, repo.Create(context.Background(), shift))

	active, err = repo.ActiveBySupervisor(context.Background(), "S1")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, shift.ID, active.ID)

	other, err := repo.ActiveBySupervisor(context.Background(), "S2")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestShiftRepositoryCloseGuardsOwnershipAndState(t *testing.T) {
	db := setupShiftTestDB(t)
	repo := NewShiftRepository(db)

	shift := newTestShift("S1")
	require.NoError(t, repo.Create(context.Background(), shift))

	affected, err := repo.Close(context.Background(), shift.ID, "S2", time.Now().UTC())
	require.NoError(t, err)
	require.Zero(t, affected, "another supervisor must not close the shift")

	endTime := time.Now().UTC()
	affected, err = repo.Close(context.Background(), shift.ID, "S1", endTime)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	closed, err := repo.GetByID(context.Background(), shift.ID)
	require.NoError(t, err)
	require.Equal(t, models.ShiftStatusClosed, closed.Status)
	require.NotNil(t, closed.EndTime)

	affected, err = repo.Close(context.Background(), shift.ID, "S1", time.Now().UTC())
	require.NoError(t, err)
	require.Zero(t, affected, "closing twice must be a no-op")
}

func TestShiftRepositoryIncrementScans(t *testing.T) {
	db := setupShiftTestDB(t)
	repo := NewShiftRepository(db)

	shift := newTestShift("S1")
	require.NoError(t, repo.Create(context.Background(), shift))

	require.NoError(t, repo.IncrementScans(context.Background(), shift.ID))
	require.NoError(t, repo.IncrementScans(context.Background(), shift.ID))

	stored, err := repo.GetByID(context.Background(), shift.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), stored.TotalScans)
}

func TestShiftRepositoryListFiltersByDateAndStatus(t *testing.T) {
	db := setupShiftTestDB(t)
	repo := NewShiftRepository(db)

	today := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	yesterday := today.Add(-24 * time.Hour)

	first := newTestShift("S1")
	first.StartTime = today
	second := newTestShift("S2")
	second.StartTime = today.Add(2 * time.Hour)
	old := newTestShift("S1")
	old.StartTime = yesterday
	old.Status = models.ShiftStatusClosed

	require.NoError(t, repo.Create(context.Background(), first))
	require.NoError(t, repo.Create(context.Background(), second))
	require.NoError(t, repo.Create(context.Background(), old))

	shifts, err := repo.List(context.Background(), ShiftFilter{Date: "2024-01-15"})
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	require.Equal(t, second.ID, shifts[0].ID, "most recent shift first")

	closed, err := repo.List(context.Background(), ShiftFilter{Status: models.ShiftStatusClosed})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	require.Equal(t, old.ID, closed[0].ID)
}

func TestShiftRepositoryGetWithRecordsOrdersRoster(t *testing.T) {
	db := setupShiftTestDB(t)
	repo := NewShiftRepository(db)
	attendance := NewAttendanceRepository(db)

	shift := newTestShift("S1")
	require.NoError(t, repo.Create(context.Background(), shift))

	base := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	late := newTestRecord(shift.ID, "STU-2", "b@x.com")
	late.ScanTime = base.Add(10 * time.Minute)
	early := newTestRecord(shift.ID, "STU-1", "a@x.com")
	early.ScanTime = base

	require.NoError(t, attendance.Create(context.Background(), late))
	require.NoError(t, attendance.Create(context.Background(), early))

	stored, err := repo.GetWithRecords(context.Background(), shift.ID)
	require.NoError(t, err)
	require.Len(t, stored.Records, 2)
	require.Equal(t, "STU-1", stored.Records[0].StudentID, "roster ordered by scan time")
}
