package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/service"
	"github.com/noah-isme/unibus-go-api/internal/utils"
)

// ShiftHandler exposes the shift lifecycle endpoints: open, close, lookup of
// the active shift, roster, listing and the live count card.
type ShiftHandler struct {
	shifts  service.ShiftService
	reports service.ReportService
	logger  zerolog.Logger
}

// NewShiftHandler constructs the handler.
func NewShiftHandler(shifts service.ShiftService, reports service.ReportService, logger zerolog.Logger) *ShiftHandler {
	return &ShiftHandler{
		shifts:  shifts,
		reports: reports,
		logger:  logger.With().Str("component", "shift_handler").Logger(),
	}
}

// Register wires the shift routes onto the group.
func (h *ShiftHandler) Register(router fiber.Router) {
	router.Get("/active", h.active)
	router.Get("", h.list)
	router.Post("", h.open)
	router.Put("/:id/close", h.close)
	router.Get("/:id/attendance", h.roster)
	router.Get("/:id/live-count", h.liveCount)
}

func (h *ShiftHandler) open(c *fiber.Ctx) error {
	var req dto.OpenShiftRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	shift, err := h.shifts.Open(c.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrShiftAlreadyOpen) {
			return utils.SendError(c, fiber.StatusConflict, "supervisor already has an open shift")
		}
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid shift payload")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to open shift")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to open shift")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "shift opened", shift)
}

func (h *ShiftHandler) close(c *fiber.Ctx) error {
	var req dto.CloseShiftRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	supervisorID := strings.TrimSpace(req.SupervisorID)
	if supervisorID == "" {
		supervisorID = userIDFromContext(c)
	}
	if supervisorID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "supervisorId is required")
	}

	shiftID := c.Params("id")
	shift, err := h.shifts.Close(c.Context(), shiftID, supervisorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShiftNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "shift not found")
		case errors.Is(err, service.ErrShiftClosed):
			return utils.SendError(c, fiber.StatusConflict, "shift already closed")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("shift_id", shiftID).Msg("failed to close shift")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to close shift")
	}

	return utils.SendSuccess(c, "shift closed", shift)
}

func (h *ShiftHandler) active(c *fiber.Ctx) error {
	supervisorID := strings.TrimSpace(c.Query("supervisorId"))
	if supervisorID == "" {
		supervisorID = userIDFromContext(c)
	}
	if supervisorID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "supervisorId is required")
	}

	shift, err := h.shifts.Active(c.Context(), supervisorID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to look up active shift")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to look up active shift")
	}
	if shift == nil {
		return utils.SendError(c, fiber.StatusNotFound, "no active shift")
	}

	return utils.SendSuccess(c, "active shift retrieved", shift)
}

func (h *ShiftHandler) roster(c *fiber.Ctx) error {
	roster, err := h.shifts.Roster(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "shift not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load roster")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load roster")
	}

	return utils.SendSuccess(c, "roster retrieved", roster)
}

func (h *ShiftHandler) list(c *fiber.Ctx) error {
	shifts, err := h.shifts.List(c.Context(), c.Query("date"), c.Query("status"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list shifts")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list shifts")
	}

	return utils.SendSuccess(c, "shifts retrieved", shifts)
}

func (h *ShiftHandler) liveCount(c *fiber.Ctx) error {
	window, err := parseQueryInt(c, "window")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid window")
	}

	count, err := h.reports.LiveCount(c.Context(), c.Params("id"), window)
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "shift not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute live count")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute live count")
	}

	if count.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "live count computed", count)
}
