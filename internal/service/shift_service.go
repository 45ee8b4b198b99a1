package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/models"
	"github.com/noah-isme/unibus-go-api/internal/observability"
	"github.com/noah-isme/unibus-go-api/internal/repository"
)

// ErrShiftAlreadyOpen indicates the supervisor already has an active shift.
var ErrShiftAlreadyOpen = errors.New("supervisor already has an active shift")

// ErrShiftNotFound indicates the shift does not exist or is not owned by the
// requesting supervisor.
var ErrShiftNotFound = errors.New("shift not found")

// ErrShiftClosed indicates the shift has already been closed.
var ErrShiftClosed = errors.New("shift already closed")

// ShiftService owns the shift lifecycle: open, close, lookup, roster.
type ShiftService interface {
	Open(ctx context.Context, req dto.OpenShiftRequest) (dto.ShiftResponse, error)
	Close(ctx context.Context, shiftID, supervisorID string) (dto.ShiftResponse, error)
	Active(ctx context.Context, supervisorID string) (*dto.ShiftResponse, error)
	Roster(ctx context.Context, shiftID string) (dto.ShiftRosterResponse, error)
	List(ctx context.Context, date, status string) ([]dto.ShiftResponse, error)
}

type shiftService struct {
	shifts    repository.ShiftRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewShiftService constructs the shift lifecycle service.
func NewShiftService(shifts repository.ShiftRepository, validate *validator.Validate, logger zerolog.Logger) ShiftService {
	return &shiftService{
		shifts:    shifts,
		validator: validate,
		logger:    logger.With().Str("component", "shift_service").Logger(),
		now:       time.Now,
	}
}

func (s *shiftService) Open(ctx context.Context, req dto.OpenShiftRequest) (dto.ShiftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ShiftResponse{}, err
	}

	supervisorID := strings.TrimSpace(req.SupervisorID)
	existing, err := s.shifts.ActiveBySupervisor(ctx, supervisorID)
	if err != nil {
		return dto.ShiftResponse{}, err
	}
	if existing != nil {
		return dto.NewShiftResponse(*existing), ErrShiftAlreadyOpen
	}

	shift := models.Shift{
		ID:             uuid.NewString(),
		SupervisorID:   supervisorID,
		SupervisorName: strings.TrimSpace(req.SupervisorName),
		Location:       strings.TrimSpace(req.Location),
		Status:         models.ShiftStatusActive,
		StartTime:      s.now().UTC(),
		TotalScans:     0,
	}

	if err := s.shifts.Create(ctx, &shift); err != nil {
		return dto.ShiftResponse{}, err
	}

	observability.ShiftsOpenedTotal().Inc()
	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("supervisor_id", shift.SupervisorID).
		Str("location", shift.Location).
		Msg("shift opened")

	return dto.NewShiftResponse(shift), nil
}

func (s *shiftService) Close(ctx context.Context, shiftID, supervisorID string) (dto.ShiftResponse, error) {
	endTime := s.now().UTC()
	affected, err := s.shifts.Close(ctx, shiftID, supervisorID, endTime)
	if err != nil {
		return dto.ShiftResponse{}, err
	}

	if affected == 0 {
		// Distinguish a missing/foreign shift from a double close.
		shift, err := s.shifts.GetByID(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ShiftResponse{}, ErrShiftNotFound
			}
			return dto.ShiftResponse{}, err
		}
		if shift.SupervisorID != supervisorID {
			return dto.ShiftResponse{}, ErrShiftNotFound
		}
		return dto.ShiftResponse{}, ErrShiftClosed
	}

	shift, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return dto.ShiftResponse{}, err
	}

	observability.ShiftsClosedTotal().Inc()
	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("supervisor_id", supervisorID).
		Int64("total_scans", shift.TotalScans).
		Msg("shift closed")

	return dto.NewShiftResponse(shift), nil
}

func (s *shiftService) Active(ctx context.Context, supervisorID string) (*dto.ShiftResponse, error) {
	shift, err := s.shifts.ActiveBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, nil
	}

	response := dto.NewShiftResponse(*shift)
	return &response, nil
}

// Roster returns the shift with its ordered records. Closed shifts remain
// queryable as historical, read-only data.
func (s *shiftService) Roster(ctx context.Context, shiftID string) (dto.ShiftRosterResponse, error) {
	shift, err := s.shifts.GetWithRecords(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ShiftRosterResponse{}, ErrShiftNotFound
		}
		return dto.ShiftRosterResponse{}, err
	}

	return dto.ShiftRosterResponse{
		Shift:   dto.NewShiftResponse(shift),
		Records: dto.NewAttendanceRecordResponseSlice(shift.Records),
	}, nil
}

func (s *shiftService) List(ctx context.Context, date, status string) ([]dto.ShiftResponse, error) {
	shifts, err := s.shifts.List(ctx, repository.ShiftFilter{Date: date, Status: status})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ShiftResponse, 0, len(shifts))
	for _, shift := range shifts {
		responses = append(responses, dto.NewShiftResponse(shift))
	}
	return responses, nil
}
