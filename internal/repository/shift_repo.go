package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/models"
)

// ShiftFilter narrows shift listings for the admin monitoring view.
type ShiftFilter struct {
	Date         string
	Status       string
	SupervisorID string
}

// ShiftRepository persists supervisor shifts.
type ShiftRepository interface {
	Create(ctx context.Context, shift *models.Shift) error
	GetByID(ctx context.Context, id string) (models.Shift, error)
	GetWithRecords(ctx context.Context, id string) (models.Shift, error)
	ActiveBySupervisor(ctx context.Context, supervisorID string) (*models.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]models.Shift, error)
	Close(ctx context.Context, id, supervisorID string, endTime time.Time) (int64, error)
	IncrementScans(ctx context.Context, id string) error
}

type shiftRepository struct {
	db *gorm.DB
}

// NewShiftRepository constructs the shift repository.
func NewShiftRepository(db *gorm.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

func (r *shiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepository) GetByID(ctx context.Context, id string) (models.Shift, error) {
	var shift models.Shift
	if err := r.db.WithContext(ctx).First(&shift, "id = ?", id).Error; err != nil {
		return models.Shift{}, err
	}
	return shift, nil
}

func (r *shiftRepository) GetWithRecords(ctx context.Context, id string) (models.Shift, error) {
	var shift models.Shift
	query := r.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("scan_time ASC")
		})
	if err := query.First(&shift, "id = ?", id).Error; err != nil {
		return models.Shift{}, err
	}
	return shift, nil
}

func (r *shiftRepository) ActiveBySupervisor(ctx context.Context, supervisorID string) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).
		Where("supervisor_id = ? AND status = ?", supervisorID, models.ShiftStatusActive).
		Order("start_time DESC").
		First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepository) List(ctx context.Context, filter ShiftFilter) ([]models.Shift, error) {
	query := r.db.WithContext(ctx).Model(&models.Shift{})

	if filter.Date != "" {
		dayStart, err := time.Parse("2006-01-02", filter.Date)
		if err == nil {
			query = query.Where("start_time >= ? AND start_time < ?", dayStart, dayStart.Add(24*time.Hour))
		}
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SupervisorID != "" {
		query = query.Where("supervisor_id = ?", filter.SupervisorID)
	}

	var shifts []models.Shift
	if err := query.Order("start_time DESC").Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// Close transitions an active shift to closed in a single guarded UPDATE so a
// double close cannot overwrite the original end time. The returned row count
// distinguishes "not found or not yours" from "already closed" at the caller.
func (r *shiftRepository) Close(ctx context.Context, id, supervisorID string, endTime time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND supervisor_id = ? AND status = ?", id, supervisorID, models.ShiftStatusActive).
		Updates(map[string]interface{}{
			"status":   models.ShiftStatusClosed,
			"end_time": endTime,
		})
	return result.RowsAffected, result.Error
}

// IncrementScans bumps the derived counter atomically in the database; the
// roster append itself is the record insert, so a retried call for the same
// record never runs twice past the attendance unique index.
func (r *shiftRepository) IncrementScans(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ?", id).
		UpdateColumn("total_scans", gorm.Expr("total_scans + 1")).Error
}
