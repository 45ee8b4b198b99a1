package models

import (
	"time"

	"gorm.io/datatypes"
)

// AttendanceStatus is the only status a scan can produce today; absences are
// derived by reporting, never stored.
const AttendanceStatusPresent = "Present"

// AttendanceRecord is one successful QR scan bound to a shift.
//
// The composite unique index on (student_email, shift_id) is the canonical
// duplicate guard: a concurrent scan that slips past the application-level
// pre-check fails the insert instead of producing a second record.
type AttendanceRecord struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	ShiftID         string         `gorm:"size:36;not null;uniqueIndex:uniq_attendance_email_shift" json:"shift_id"`
	StudentID       string         `gorm:"size:64;not null;index:idx_attendance_student_date" json:"student_id"`
	StudentName     string         `gorm:"size:255" json:"student_name"`
	StudentEmail    string         `gorm:"size:255;not null;uniqueIndex:uniq_attendance_email_shift;index:idx_attendance_email_date" json:"student_email"`
	StudentPhone    string         `gorm:"size:64" json:"student_phone,omitempty"`
	College         string         `gorm:"size:255" json:"college,omitempty"`
	Grade           string         `gorm:"size:64" json:"grade,omitempty"`
	Major           string         `gorm:"size:255" json:"major,omitempty"`
	Address         string         `gorm:"size:512" json:"address,omitempty"`
	Date            string         `gorm:"size:10;not null;index:idx_attendance_student_date;index:idx_attendance_email_date;index:idx_attendance_supervisor_date" json:"date"`
	ScanTime        time.Time      `gorm:"not null" json:"scan_time"`
	Status          string         `gorm:"size:16;not null" json:"status"`
	AppointmentSlot string         `gorm:"size:32" json:"appointment_slot,omitempty"`
	StationName     string         `gorm:"size:255" json:"station_name,omitempty"`
	StationLocation string         `gorm:"size:255" json:"station_location,omitempty"`
	StationLat      float64        `json:"station_lat,omitempty"`
	StationLng      float64        `json:"station_lng,omitempty"`
	SupervisorID    string         `gorm:"size:64;not null;index:idx_attendance_supervisor_date" json:"supervisor_id"`
	SupervisorName  string         `gorm:"size:255" json:"supervisor_name"`
	QRScanned       bool           `gorm:"not null;default:true" json:"qr_scanned"`
	Verified        bool           `gorm:"not null;default:true" json:"verified"`
	QRSource        string         `gorm:"size:16" json:"qr_source"`
	RawPayload      datatypes.JSON `json:"raw_payload,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// DayBucket formats a scan timestamp into the UTC calendar-day key stored in
// the Date column.
func DayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
