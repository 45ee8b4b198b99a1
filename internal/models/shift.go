package models

import "time"

// Shift status values. A shift is born active and ends closed; closed is
// terminal and makes the shift and its roster read-only.
const (
	ShiftStatusActive = "active"
	ShiftStatusClosed = "closed"
)

// Shift represents a supervisor's bounded scanning session at a bus station.
type Shift struct {
	ID             string             `gorm:"primaryKey;size:36" json:"id"`
	SupervisorID   string             `gorm:"size:64;not null;index:idx_shifts_supervisor_status" json:"supervisor_id"`
	SupervisorName string             `gorm:"size:255" json:"supervisor_name"`
	Location       string             `gorm:"size:255" json:"location"`
	Status         string             `gorm:"size:16;not null;index:idx_shifts_supervisor_status" json:"status"`
	StartTime      time.Time          `gorm:"not null;index" json:"start_time"`
	EndTime        *time.Time         `json:"end_time,omitempty"`
	TotalScans     int64              `gorm:"not null;default:0" json:"total_scans"`
	Records        []AttendanceRecord `gorm:"foreignKey:ShiftID" json:"records,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// IsActive reports whether the shift still accepts scans.
func (s Shift) IsActive() bool {
	return s.Status == ShiftStatusActive
}
