package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/models"
	"github.com/noah-isme/unibus-go-api/internal/repository"
)

const defaultLiveWindowMinutes = 5

// ReportService computes live counts and historical views for the supervisor
// card and the admin records table. All operations are read-only.
type ReportService interface {
	LiveCount(ctx context.Context, shiftID string, windowMinutes int) (dto.LiveCountResponse, error)
	ListRecords(ctx context.Context, req dto.RecordListRequest) (dto.RecordListResponse, error)
	ListRecordsBySupervisor(ctx context.Context, supervisorID, date string, page int) (dto.GroupedRecordsResponse, error)
	ActiveShifts(ctx context.Context, date string) ([]dto.ShiftResponse, error)
}

type reportService struct {
	shifts     repository.ShiftRepository
	attendance repository.AttendanceRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReportService constructs the reporting service. The cache TTL should
// stay below the client polling interval so dashboards never see counts older
// than one poll.
func NewReportService(shifts repository.ShiftRepository, attendance repository.AttendanceRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ReportService {
	return &reportService{
		shifts:     shifts,
		attendance: attendance,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "report_service").Logger(),
		now:        time.Now,
	}
}

func (s *reportService) LiveCount(ctx context.Context, shiftID string, windowMinutes int) (dto.LiveCountResponse, error) {
	if windowMinutes <= 0 {
		windowMinutes = defaultLiveWindowMinutes
	}

	tracer := otel.Tracer("github.com/noah-isme/unibus-go-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.live_count")
	span.SetAttributes(
		attribute.String("report.shift_id", shiftID),
		attribute.Int("report.window_minutes", windowMinutes),
	)
	defer span.End()

	cacheKey := fmt.Sprintf("livecount:%s:%d", shiftID, windowMinutes)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.LiveCountResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("report.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read live count cache")
		}
	}

	if _, err := s.shifts.GetByID(ctx, shiftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "shift_not_found")
			return dto.LiveCountResponse{}, ErrShiftNotFound
		}
		span.RecordError(err)
		return dto.LiveCountResponse{}, err
	}

	total, err := s.attendance.CountByShift(ctx, shiftID)
	if err != nil {
		span.RecordError(err)
		return dto.LiveCountResponse{}, err
	}

	records, err := s.attendance.ListByShift(ctx, shiftID)
	if err != nil {
		span.RecordError(err)
		return dto.LiveCountResponse{}, err
	}

	now := s.now().UTC()
	cutoff := now.Add(-time.Duration(windowMinutes) * time.Minute)
	recent := 0
	for _, record := range records {
		if record.ScanTime.After(cutoff) {
			recent++
		}
	}

	response := dto.LiveCountResponse{
		ShiftID:       shiftID,
		Total:         total,
		WindowMinutes: windowMinutes,
		RecentCount:   recent,
		GeneratedAt:   now,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store live count cache")
			}
		}
	}

	return response, nil
}

func (s *reportService) ListRecords(ctx context.Context, req dto.RecordListRequest) (dto.RecordListResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/unibus-go-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.list_records")
	defer span.End()

	filter := repository.AttendanceFilter{
		Date:         req.Date,
		SupervisorID: req.SupervisorID,
		ShiftID:      req.ShiftID,
		Page:         req.Page,
		Limit:        req.Limit,
	}

	records, total, err := s.attendance.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return dto.RecordListResponse{}, err
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.Limit,
		TotalItems: total,
	}
	if req.Limit > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.Limit)))
	} else {
		pagination.TotalPages = 1
	}

	span.SetAttributes(attribute.Int64("report.total_records", total))

	return dto.RecordListResponse{
		Records:    dto.NewAttendanceRecordResponseSlice(records),
		Pagination: pagination,
	}, nil
}

// ListRecordsBySupervisor groups records per shift and paginates by shift:
// each of the supervisor's shifts on the date is one logical page, most
// recent shift first, records ordered by scan time within it.
func (s *reportService) ListRecordsBySupervisor(ctx context.Context, supervisorID, date string, page int) (dto.GroupedRecordsResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/unibus-go-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.list_by_supervisor")
	span.SetAttributes(attribute.String("report.supervisor_id", supervisorID))
	defer span.End()

	shifts, err := s.shifts.List(ctx, repository.ShiftFilter{SupervisorID: supervisorID, Date: date})
	if err != nil {
		span.RecordError(err)
		return dto.GroupedRecordsResponse{}, err
	}

	if page <= 0 {
		page = 1
	}

	response := dto.GroupedRecordsResponse{
		Groups:     []dto.ShiftGroup{},
		Pagination: dto.ShiftPaginationMeta{Page: page, TotalShifts: len(shifts)},
	}

	if page > len(shifts) {
		return response, nil
	}

	shift := shifts[page-1]
	records, err := s.attendance.ListByShift(ctx, shift.ID)
	if err != nil {
		span.RecordError(err)
		return dto.GroupedRecordsResponse{}, err
	}

	response.Groups = append(response.Groups, dto.ShiftGroup{
		Shift:   dto.NewShiftResponse(shift),
		Records: dto.NewAttendanceRecordResponseSlice(records),
	})

	return response, nil
}

func (s *reportService) ActiveShifts(ctx context.Context, date string) ([]dto.ShiftResponse, error) {
	shifts, err := s.shifts.List(ctx, repository.ShiftFilter{Date: date, Status: models.ShiftStatusActive})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ShiftResponse, 0, len(shifts))
	for _, shift := range shifts {
		responses = append(responses, dto.NewShiftResponse(shift))
	}
	return responses, nil
}
