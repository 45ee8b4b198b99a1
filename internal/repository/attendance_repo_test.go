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

func setupAttendanceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Shift{}, &models.AttendanceRecord{}))
	return db
}

func newTestRecord(shiftID, studentID, email string) *models.AttendanceRecord {
	now := time.Now().UTC()
	return &models.AttendanceRecord{
		ID:           uuid.NewString(),
		ShiftID:      shiftID,
		StudentID:    studentID,
		StudentName:  "Student " + studentID,
		StudentEmail: email,
		Date:         models.DayBucket(now),
		ScanTime:     now,
		Status:       models.AttendanceStatusPresent,
		SupervisorID: "S1",
		QRScanned:    true,
		Verified:     true,
	}
}

func TestAttendanceRepositoryUniqueEmailPerShift(t *testing.T) {
	db := setupAttendanceTestDB(t)
	repo := NewAttendanceRepository(db)

	shiftID := uuid.NewString()
	first := newTestRecord(shiftID, "STU-1", "a@x.com")
	require.NoError(t, repo.Create(context.Background(), first))

	duplicate := newTestRecord(shiftID, "STU-1", "a@x.com")
	err := repo.Create(context.Background(), duplicate)
	require.ErrorIs(t, err, ErrDuplicateRecord)

	// Same student in a different shift is fine under the shift-scoped policy.
	other := newTestRecord(uuid.NewString(), "STU-1", "a@x.com")
	require.NoError(t, repo.Create(context.Background(), other))
}

func TestAttendanceRepositoryFindByEmailAndShift(t *testing.T) {
	db := setupAttendanceTestDB(t)
	repo := NewAttendanceRepository(db)

	shiftID := uuid.NewString()
	record := newTestRecord(shiftID, "STU-1", "a@x.com")
	require.NoError(t, repo.Create(context.Background(), record))

	found, err := repo.FindByEmailAndShift(context.Background(), "a@x.com", shiftID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, record.ID, found.ID)

	missing, err := repo.FindByEmailAndShift(context.Background(), "b@x.com", shiftID)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAttendanceRepositoryFindByStudentAndSlot(t *testing.T) {
	db := setupAttendanceTestDB(t)
	repo := NewAttendanceRepository(db)

	record := newTestRecord(uuid.NewString(), "STU-1", "a@x.com")
	record.AppointmentSlot = "first"
	require.NoError(t, repo.Create(context.Background(), record))

	found, err := repo.FindByStudentAndSlot(context.Background(), "STU-1", "a@x.com", record.Date, "first")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.FindByStudentAndSlot(context.Background(), "STU-1", "a@x.com", record.Date, "second")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAttendanceRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupAttendanceTestDB(t)
	repo := NewAttendanceRepository(db)

	shiftID := uuid.NewString()
	for i := 0; i < 3; i++ {
		record := newTestRecord(shiftID, fmt.Sprintf("STU-%d", i), fmt.Sprintf("s%d@x.com", i))
		record.ScanTime = record.ScanTime.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(context.Background(), record))
	}
	otherShift := newTestRecord(uuid.NewString(), "STU-9", "s9@x.com")
	otherShift.SupervisorID = "S2"
	require.NoError(t, repo.Create(context.Background(), otherShift))

	records, total, err := repo.List(context.Background(), AttendanceFilter{ShiftID: shiftID, Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, records, 2)
	require.Equal(t, "STU-2", records[0].StudentID, "newest scan first in the global view")

	bySupervisor, total, err := repo.List(context.Background(), AttendanceFilter{SupervisorID: "S2"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, bySupervisor, 1)
}

func TestAttendanceRepositoryCountByShift(t *testing.T) {
	db := setupAttendanceTestDB(t)
	repo := NewAttendanceRepository(db)

	shiftID := uuid.NewString()
	require.NoError(t, repo.Create(context.Background(), newTestRecord(shiftID, "STU-1", "a@x.com")))
	require.NoError(t, repo.Create(context.Background(), newTestRecord(shiftID, "STU-2", "b@x.com")))

	count, err := repo.CountByShift(context.Background(), shiftID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestAttendanceRepositoryDelete(t *testing.T) {
	db := setupAttendanceTestDB(t)
	repo := NewAttendanceRepository(db)

	record := newTestRecord(uuid.NewString(), "STU-1", "a@x.com")
	require.NoError(t, repo.Create(context.Background(), record))

	require.NoError(t, repo.Delete(context.Background(), record.ID))

	err := repo.Delete(context.Background(), record.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
