package dto

import (
	"time"

	"github.com/noah-isme/unibus-go-api/internal/models"
)

// OpenShiftRequest is the payload for opening a new supervisor shift.
type OpenShiftRequest struct {
	SupervisorID   string `json:"supervisorId" validate:"required,min=1,max=64"`
	SupervisorName string `json:"supervisorName" validate:"required,min=1,max=255"`
	Location       string `json:"location" validate:"required,min=1,max=255"`
}

// CloseShiftRequest is the payload for closing an active shift.
type CloseShiftRequest struct {
	ShiftID      string `json:"shiftId" validate:"required"`
	SupervisorID string `json:"supervisorId" validate:"required"`
}

// ShiftResponse serializes a shift for API consumers.
type ShiftResponse struct {
	ID             string     `json:"id"`
	SupervisorID   string     `json:"supervisor_id"`
	SupervisorName string     `json:"supervisor_name"`
	Location       string     `json:"location"`
	Status         string     `json:"status"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	TotalScans     int64      `json:"total_scans"`
}

// NewShiftResponse maps a shift model to its response shape.
func NewShiftResponse(shift models.Shift) ShiftResponse {
	return ShiftResponse{
		ID:             shift.ID,
		SupervisorID:   shift.SupervisorID,
		SupervisorName: shift.SupervisorName,
		Location:       shift.Location,
		Status:         shift.Status,
		StartTime:      shift.StartTime,
		EndTime:        shift.EndTime,
		TotalScans:     shift.TotalScans,
	}
}

// ShiftRosterResponse carries a shift with its ordered attendance roster.
type ShiftRosterResponse struct {
	Shift   ShiftResponse              `json:"shift"`
	Records []AttendanceRecordResponse `json:"records"`
}
