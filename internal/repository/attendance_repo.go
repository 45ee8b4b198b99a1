package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/models"
)

// ErrDuplicateRecord signals the storage-level uniqueness constraint fired on
// insert. It is the canonical duplicate signal: the application-level
// pre-check only exists to hand the conflicting record back to the caller.
var ErrDuplicateRecord = errors.New("attendance record already exists")

// AttendanceFilter narrows record listings for the admin dashboard.
type AttendanceFilter struct {
	Date         string
	SupervisorID string
	ShiftID      string
	Page         int
	Limit        int
}

// AttendanceRepository persists scan records.
type AttendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (models.AttendanceRecord, error)
	FindByEmailAndShift(ctx context.Context, email, shiftID string) (*models.AttendanceRecord, error)
	FindByStudentAndSlot(ctx context.Context, studentID, email, date, slot string) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter AttendanceFilter) ([]models.AttendanceRecord, int64, error)
	ListByShift(ctx context.Context, shiftID string) ([]models.AttendanceRecord, error)
	CountByShift(ctx context.Context, shiftID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs the attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return models.AttendanceRecord{}, err
	}
	return record, nil
}

func (r *attendanceRepository) FindByEmailAndShift(ctx context.Context, email, shiftID string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_email = ? AND shift_id = ?", email, shiftID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepository) FindByStudentAndSlot(ctx context.Context, studentID, email, date, slot string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND student_email = ? AND date = ? AND appointment_slot = ?", studentID, email, date, slot).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]models.AttendanceRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AttendanceRecord{})

	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.SupervisorID != "" {
		query = query.Where("supervisor_id = ?", filter.SupervisorID)
	}
	if filter.ShiftID != "" {
		query = query.Where("shift_id = ?", filter.ShiftID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var records []models.AttendanceRecord
	if err := query.Order("scan_time DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *attendanceRepository) ListByShift(ctx context.Context, shiftID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("scan_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) CountByShift(ctx context.Context, shiftID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
		Where("shift_id = ?", shiftID).
		Count(&count).Error
	return count, err
}

func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.AttendanceRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isUniqueViolation matches the duplicate-key errors produced by the Postgres
// driver (SQLSTATE 23505) and by SQLite in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := err.Error()
	return strings.Contains(message, "SQLSTATE 23505") ||
		strings.Contains(message, "duplicate key value") ||
		strings.Contains(message, "UNIQUE constraint failed")
}
