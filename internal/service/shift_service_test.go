package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/models"
	"github.com/noah-isme/unibus-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type shiftRepoStub struct {
	shifts     map[string]*models.Shift
	closeCalls int
}

func newShiftRepoStub() *shiftRepoStub {
	return &shiftRepoStub{shifts: make(map[string]*models.Shift)}
}

func (s *shiftRepoStub) Create(_ context.Context, shift *models.Shift) error {
	copied := *shift
	s.shifts[shift.ID] = &copied
	return nil
}

func (s *shiftRepoStub) GetByID(_ context.Context, id string) (models.Shift, error) {
	if shift, ok := s.shifts[id]; ok {
		return *shift, nil
	}
	return models.Shift{}, gorm.ErrRecordNotFound
}

func (s *shiftRepoStub) GetWithRecords(ctx context.Context, id string) (models.Shift, error) {
	return s.GetByID(ctx, id)
}

func (s *shiftRepoStub) ActiveBySupervisor(_ context.Context, supervisorID string) (*models.Shift, error) {
	for _, shift := range s.shifts {
		if shift.SupervisorID == supervisorID && shift.Status == models.ShiftStatusActive {
			copied := *shift
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *shiftRepoStub) List(_ context.Context, filter repository.ShiftFilter) ([]models.Shift, error) {
	var result []models.Shift
	for _, shift := range s.shifts {
		if filter.Status != "" && shift.Status != filter.Status {
			continue
		}
		if filter.SupervisorID != "" && shift.SupervisorID != filter.SupervisorID {
			continue
		}
		result = append(result, *shift)
	}
	return result, nil
}

func (s *shiftRepoStub) Close(_ context.Context, id, supervisorID string, endTime time.Time) (int64, error) {
	s.closeCalls++
	shift, ok := s.shifts[id]
	if !ok || shift.SupervisorID != supervisorID || shift.Status != models.ShiftStatusActive {
		return 0, nil
	}
	shift.Status = models.ShiftStatusClosed
	shift.EndTime = &endTime
	return 1, nil
}

func (s *shiftRepoStub) IncrementScans(_ context.Context, id string) error {
	if shift, ok := s.shifts[id]; ok {
		shift.TotalScans++
	}
	return nil
}

func TestShiftServiceOpen(t *testing.T) {
	repo := newShiftRepoStub()
	svc := NewShiftService(repo, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	shift, err := svc.Open(context.Background(), dto.OpenShiftRequest{
		SupervisorID:   "S1",
		SupervisorName: "Sara",
		Location:       "Main Campus",
	})
	require.NoError(t, err)
	require.Equal(t, models.ShiftStatusActive, shift.Status)
	require.Equal(t, int64(0), shift.TotalScans)
	require.NotEmpty(t, shift.ID)
}

func TestShiftServiceOpenConflict(t *testing.T) {
	repo := newShiftRepoStub()
	svc := NewShiftService(repo, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	_, err := svc.Open(context.Background(), dto.OpenShiftRequest{SupervisorID: "S1", SupervisorName: "Sara", Location: "Main Campus"})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), dto.OpenShiftRequest{SupervisorID: "S1", SupervisorName: "Sara", Location: "North Gate"})
	require.ErrorIs(t, err, ErrShiftAlreadyOpen)
	require.Len(t, repo.shifts, 1)
}

func TestShiftServiceOpenValidation(t *testing.T) {
	svc := NewShiftService(newShiftRepoStub(), validator.New(validator.WithRequiredStructEnabled()), testLogger())

	_, err := svc.Open(context.Background(), dto.OpenShiftRequest{SupervisorID: "S1"})
	require.Error(t, err)
}

func TestShiftServiceClose(t *testing.T) {
	repo := newShiftRepoStub()
	svc := NewShiftService(repo, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	opened, err := svc.Open(context.Background(), dto.OpenShiftRequest{SupervisorID: "S1", SupervisorName: "Sara", Location: "Main Campus"})
	require.NoError(t, err)

	closed, err := svc.Close(context.Background(), opened.ID, "S1")
	require.NoError(t, err)
	require.Equal(t, models.ShiftStatusClosed, closed.Status)
	require.NotNil(t, closed.EndTime)
}

func TestShiftServiceCloseNotFound(t *testing.T) {
	svc := NewShiftService(newShiftRepoStub(), validator.New(validator.WithRequiredStructEnabled()), testLogger())

	_, err := svc.Close(context.Background(), "missing", "S1")
	require.ErrorIs(t, err, ErrShiftNotFound)
}

func TestShiftServiceCloseWrongSupervisor(t *testing.T) {
	repo := newShiftRepoStub()
	svc := NewShiftService(repo, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	opened, err := svc.Open(context.Background(), dto.OpenShiftRequest{SupervisorID: "S1", SupervisorName: "Sara", Location: "Main Campus"})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), opened.ID, "S2")
	require.ErrorIs(t, err, ErrShiftNotFound)
}

func TestShiftServiceCloseTwice(t *testing.T) {
	repo := newShiftRepoStub()
	svc := NewShiftService(repo, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	opened, err := svc.Open(context.Background(), dto.OpenShiftRequest{SupervisorID: "S1", SupervisorName: "Sara", Location: "Main Campus"})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), opened.ID, "S1")
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), opened.ID, "S1")
	require.ErrorIs(t, err, ErrShiftClosed)
}

func TestShiftServiceActive(t *testing.T) {
	repo := newShiftRepoStub()
	svc := NewShiftService(repo, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	active, err := svc.Active(context.Background(), "S1")
	require.NoError(t, err)
	require.Nil(t, active)

	opened, err := svc.Open(context.Background(), dto.OpenShiftRequest{SupervisorID: "S1", SupervisorName: "Sara", Location: "Main Campus"})
	require.NoError(t, err)

	active, err = svc.Active(context.Background(), "S1")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, opened.ID, active.ID)
}
