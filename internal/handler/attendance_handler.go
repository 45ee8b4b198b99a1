package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/service"
	"github.com/noah-isme/unibus-go-api/internal/utils"
)

// AttendanceHandler exposes scan registration and the admin records table.
type AttendanceHandler struct {
	scans   service.ScanService
	reports service.ReportService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(scans service.ScanService, reports service.ReportService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		scans:   scans,
		reports: reports,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// RegisterScanRoute wires the scan endpoint onto the shifts group.
func (h *AttendanceHandler) RegisterScanRoute(router fiber.Router) {
	router.Post("/scan", h.scan)
}

// RegisterAdminRoutes wires the records table and hard delete onto the
// attendance group.
func (h *AttendanceHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/all-records", h.listRecords)
	router.Delete("/delete/:id", h.deleteRecord)
}

func (h *AttendanceHandler) scan(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.scans.RegisterScan(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAmbiguousIdentity):
			return utils.SendError(c, fiber.StatusBadRequest, "ambiguous identity requires confirmation")
		case errors.Is(err, service.ErrNoActiveShift):
			return utils.SendError(c, fiber.StatusConflict, "no active shift for supervisor")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid scan payload")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("shift_id", req.ShiftID).Msg("failed to register scan")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to register scan")
	}

	if !result.Accepted {
		return c.Status(fiber.StatusConflict).JSON(utils.APIResponse{
			Success: false,
			Message: result.Reason,
			Data:    result,
		})
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance recorded", result)
}

func (h *AttendanceHandler) listRecords(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	if limit <= 0 {
		limit = 25
	}

	supervisorID := c.Query("supervisorId")

	// The supervisor-scoped view paginates by shift and groups records
	// underneath; pass flat=true to fall back to row pagination.
	if supervisorID != "" && !c.QueryBool("flat") {
		grouped, err := h.reports.ListRecordsBySupervisor(c.Context(), supervisorID, c.Query("date"), page)
		if err != nil {
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to list grouped records")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to list records")
		}
		return utils.SendSuccess(c, "records retrieved", grouped)
	}

	result, err := h.reports.ListRecords(c.Context(), dto.RecordListRequest{
		Date:         c.Query("date"),
		SupervisorID: supervisorID,
		ShiftID:      c.Query("shiftId"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list records")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list records")
	}

	return utils.SendSuccess(c, "records retrieved", result)
}

func (h *AttendanceHandler) deleteRecord(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.scans.DeleteRecord(c.Context(), id, activityActorFromContext(c)); err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "attendance record not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("record_id", id).Msg("failed to delete record")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete record")
	}

	return utils.SendSuccess(c, "attendance record deleted", nil)
}
