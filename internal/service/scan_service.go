package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/models"
	"github.com/noah-isme/unibus-go-api/internal/observability"
	"github.com/noah-isme/unibus-go-api/internal/qr"
	"github.com/noah-isme/unibus-go-api/internal/repository"
)

// Duplicate policies. The shift-scoped policy is canonical: the shift is the
// unit of work, and the storage-level unique index backs it. The day-slot
// policy survives for deployments that scope scans by appointment slot.
const (
	DuplicatePolicyShift   = "shift"
	DuplicatePolicyDaySlot = "day-slot"
)

// ErrNoActiveShift indicates the targeted shift is missing, closed, or owned
// by a different supervisor.
var ErrNoActiveShift = errors.New("no active shift for supervisor")

// ErrAmbiguousIdentity indicates the QR payload resolved to a low-confidence
// synthetic identity and the supervisor has not confirmed it.
var ErrAmbiguousIdentity = errors.New("ambiguous identity requires supervisor confirmation")

// ErrRecordNotFound indicates the attendance record does not exist.
var ErrRecordNotFound = errors.New("attendance record not found")

const duplicateReason = "already scanned"

// ScanPublisher fans out accepted scans to live monitors. Publishing is best
// effort and never blocks or fails a registration.
type ScanPublisher interface {
	PublishScan(ctx context.Context, event dto.ScanEvent)
}

// ScanService orchestrates scan registration: identity resolution, shift
// check, duplicate guard, enrichment, persistence, roster append.
type ScanService interface {
	RegisterScan(ctx context.Context, req dto.ScanRequest) (dto.ScanResult, error)
	DeleteRecord(ctx context.Context, id string, actor ActivityActor) error
}

type scanService struct {
	shifts        repository.ShiftRepository
	attendance    repository.AttendanceRepository
	students      repository.StudentRepository
	subscriptions repository.SubscriptionRepository
	resolver      *qr.Resolver
	validator     *validator.Validate
	policy        string
	minimumPaid   float64
	publisher     ScanPublisher
	activity      ActivityRecorder
	logger        zerolog.Logger
	now           func() time.Time
}

// ScanServiceConfig groups the scan service dependencies.
type ScanServiceConfig struct {
	Shifts        repository.ShiftRepository
	Attendance    repository.AttendanceRepository
	Students      repository.StudentRepository
	Subscriptions repository.SubscriptionRepository
	Resolver      *qr.Resolver
	Validator     *validator.Validate
	Policy        string
	MinimumPaid   float64
	Publisher     ScanPublisher
	Activity      ActivityRecorder
	Logger        zerolog.Logger
}

// NewScanService constructs the scan service.
func NewScanService(cfg ScanServiceConfig) ScanService {
	policy := cfg.Policy
	if policy != DuplicatePolicyDaySlot {
		policy = DuplicatePolicyShift
	}

	return &scanService{
		shifts:        cfg.Shifts,
		attendance:    cfg.Attendance,
		students:      cfg.Students,
		subscriptions: cfg.Subscriptions,
		resolver:      cfg.Resolver,
		validator:     cfg.Validator,
		policy:        policy,
		minimumPaid:   cfg.MinimumPaid,
		publisher:     cfg.Publisher,
		activity:      cfg.Activity,
		logger:        cfg.Logger.With().Str("component", "scan_service").Logger(),
		now:           time.Now,
	}
}

func (s *scanService) RegisterScan(ctx context.Context, req dto.ScanRequest) (dto.ScanResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ScanResult{}, err
	}

	identity := s.resolver.Resolve(req.Payload())

	if identity.LowConfidence() && !req.Confirmed {
		observability.ScansRejectedTotal().WithLabelValues("ambiguous_identity").Inc()
		return dto.ScanResult{}, ErrAmbiguousIdentity
	}

	shift, err := s.requireActiveShift(ctx, req.ShiftID, req.SupervisorID)
	if err != nil {
		return dto.ScanResult{}, err
	}

	scanTime := s.now().UTC()
	day := models.DayBucket(scanTime)

	if existing, err := s.findDuplicate(ctx, identity, req, day); err != nil {
		return dto.ScanResult{}, err
	} else if existing != nil {
		return s.rejectDuplicate(*existing), nil
	}

	record := s.buildRecord(identity, req, shift, scanTime, day)
	s.enrich(ctx, &record, identity)

	if err := s.attendance.Create(ctx, &record); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			// Lost a race with a concurrent scan; the unique index caught it.
			// Surface the winner as the existing record.
			if existing, lookupErr := s.attendance.FindByEmailAndShift(ctx, record.StudentEmail, record.ShiftID); lookupErr == nil && existing != nil {
				return s.rejectDuplicate(*existing), nil
			}
			return dto.ScanResult{Accepted: false, Reason: duplicateReason}, nil
		}
		return dto.ScanResult{}, err
	}

	if err := s.shifts.IncrementScans(ctx, shift.ID); err != nil {
		s.logger.Warn().Err(err).Str("shift_id", shift.ID).Msg("failed to bump shift scan counter")
	}

	observability.ScansAcceptedTotal().Inc()
	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("student_id", record.StudentID).
		Str("qr_source", record.QRSource).
		Msg("attendance recorded")

	if s.publisher != nil {
		s.publisher.PublishScan(ctx, dto.ScanEvent{
			ShiftID:      shift.ID,
			SupervisorID: shift.SupervisorID,
			StudentID:    record.StudentID,
			StudentName:  record.StudentName,
			Location:     shift.Location,
			ScanTime:     record.ScanTime,
			TotalScans:   shift.TotalScans + 1,
		})
	}

	response := dto.NewAttendanceRecordResponse(record)
	response.SubscriptionStatus = s.subscriptionStatus(ctx, record.StudentEmail, scanTime)
	return dto.ScanResult{Accepted: true, Record: &response}, nil
}

func (s *scanService) requireActiveShift(ctx context.Context, shiftID, supervisorID string) (models.Shift, error) {
	shift, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Shift{}, ErrNoActiveShift
		}
		return models.Shift{}, err
	}

	if !shift.IsActive() || shift.SupervisorID != supervisorID {
		return models.Shift{}, ErrNoActiveShift
	}
	return shift, nil
}

func (s *scanService) findDuplicate(ctx context.Context, identity qr.Identity, req dto.ScanRequest, day string) (*models.AttendanceRecord, error) {
	email := duplicateKeyEmail(identity)

	if s.policy == DuplicatePolicyDaySlot {
		return s.attendance.FindByStudentAndSlot(ctx, identity.StudentID, email, day, req.AppointmentSlot)
	}
	return s.attendance.FindByEmailAndShift(ctx, email, req.ShiftID)
}

func (s *scanService) rejectDuplicate(existing models.AttendanceRecord) dto.ScanResult {
	observability.ScansRejectedTotal().WithLabelValues("duplicate").Inc()
	response := dto.NewAttendanceRecordResponse(existing)
	return dto.ScanResult{Accepted: false, Reason: duplicateReason, Existing: &response}
}

func (s *scanService) buildRecord(identity qr.Identity, req dto.ScanRequest, shift models.Shift, scanTime time.Time, day string) models.AttendanceRecord {
	stationLocation := strings.TrimSpace(req.Location)
	if stationLocation == "" {
		stationLocation = shift.Location
	}

	return models.AttendanceRecord{
		ID:              uuid.NewString(),
		ShiftID:         shift.ID,
		StudentID:       identity.StudentID,
		StudentName:     identity.FullName,
		StudentEmail:    duplicateKeyEmail(identity),
		StudentPhone:    identity.PhoneNumber,
		College:         identity.College,
		Grade:           identity.Grade,
		Major:           identity.Major,
		Address:         identity.Address,
		Date:            day,
		ScanTime:        scanTime,
		Status:          models.AttendanceStatusPresent,
		AppointmentSlot: strings.TrimSpace(req.AppointmentSlot),
		StationName:     shift.Location,
		StationLocation: stationLocation,
		StationLat:      req.StationLat,
		StationLng:      req.StationLng,
		SupervisorID:    shift.SupervisorID,
		SupervisorName:  shift.SupervisorName,
		QRScanned:       true,
		Verified:        true,
		QRSource:        string(identity.Source),
		RawPayload:      rawPayload(req.Payload()),
	}
}

// enrich overlays the registered student profile onto QR-supplied fields.
// Enrichment is best effort: a failed lookup logs a warning and the record
// keeps the payload values.
func (s *scanService) enrich(ctx context.Context, record *models.AttendanceRecord, identity qr.Identity) {
	if s.students == nil {
		return
	}

	student, err := s.students.FindByStudentID(ctx, identity.StudentID)
	if err == nil && student == nil && identity.Email != "" {
		student, err = s.students.FindByEmail(ctx, identity.Email)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("student_id", identity.StudentID).Msg("student enrichment failed")
		return
	}
	if student == nil {
		return
	}

	record.StudentName = student.FullName
	if student.Email != "" {
		record.StudentEmail = student.Email
	}
	if record.StudentPhone == "" {
		record.StudentPhone = student.PhoneNumber
	}
	if record.College == "" {
		record.College = student.College
	}
	if record.Grade == "" {
		record.Grade = student.Grade
	}
	if record.Major == "" {
		record.Major = student.Major
	}
	if record.Address == "" {
		record.Address = student.Address
	}
}

func (s *scanService) subscriptionStatus(ctx context.Context, email string, now time.Time) string {
	if s.subscriptions == nil || email == "" {
		return ""
	}

	subscription, err := s.subscriptions.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Warn().Err(err).Str("student_email", email).Msg("subscription lookup failed")
		return ""
	}
	if subscription == nil {
		return ""
	}
	return subscription.Status(now, s.minimumPaid)
}

func (s *scanService) DeleteRecord(ctx context.Context, id string, actor ActivityActor) error {
	record, err := s.attendance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	if err := s.attendance.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "attendance.deleted",
			EntityType: "attendance_record",
			EntityID:   id,
			Metadata: map[string]interface{}{
				"student_id": record.StudentID,
				"shift_id":   record.ShiftID,
				"date":       record.Date,
			},
		})
	}

	return nil
}

// duplicateKeyEmail keeps the duplicate key stable for payloads that carry no
// email: the synthetic address is derived from the student id so the unique
// index still applies per shift.
func duplicateKeyEmail(identity qr.Identity) string {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email != "" {
		return email
	}
	return strings.ToLower(identity.StudentID) + "@scan.local"
}

func rawPayload(payload string) datatypes.JSON {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return datatypes.JSON(trimmed)
	}
	encoded, err := json.Marshal(trimmed)
	if err != nil {
		return nil
	}
	return datatypes.JSON(encoded)
}
