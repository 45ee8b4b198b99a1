package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/unibus-go-api/internal/models"
)

// ScanRequest is the payload submitted when a supervisor scans a student QR
// code. Old clients send qrData, newer ones qrCodeData; both are accepted.
type ScanRequest struct {
	ShiftID         string  `json:"shiftId" validate:"required"`
	QRCodeData      string  `json:"qrCodeData"`
	QRData          string  `json:"qrData"`
	SupervisorID    string  `json:"supervisorId" validate:"required"`
	Location        string  `json:"location"`
	AppointmentSlot string  `json:"appointmentSlot"`
	StationLat      float64 `json:"stationLat"`
	StationLng      float64 `json:"stationLng"`
	Confirmed       bool    `json:"confirmed"`
}

// Payload returns whichever QR field the client populated.
func (r ScanRequest) Payload() string {
	if strings.TrimSpace(r.QRCodeData) != "" {
		return r.QRCodeData
	}
	return r.QRData
}

// AttendanceRecordResponse serializes a persisted scan.
type AttendanceRecordResponse struct {
	ID                 string    `json:"id"`
	ShiftID            string    `json:"shift_id"`
	StudentID          string    `json:"student_id"`
	StudentName        string    `json:"student_name"`
	StudentEmail       string    `json:"student_email,omitempty"`
	StudentPhone       string    `json:"student_phone,omitempty"`
	College            string    `json:"college,omitempty"`
	Grade              string    `json:"grade,omitempty"`
	Major              string    `json:"major,omitempty"`
	Address            string    `json:"address,omitempty"`
	Date               string    `json:"date"`
	ScanTime           time.Time `json:"scan_time"`
	Status             string    `json:"status"`
	AppointmentSlot    string    `json:"appointment_slot,omitempty"`
	StationName        string    `json:"station_name,omitempty"`
	StationLocation    string    `json:"station_location,omitempty"`
	SupervisorID       string    `json:"supervisor_id"`
	SupervisorName     string    `json:"supervisor_name,omitempty"`
	QRSource           string    `json:"qr_source"`
	Verified           bool      `json:"verified"`
	SubscriptionStatus string    `json:"subscription_status,omitempty"`
}

// NewAttendanceRecordResponse maps a record model to its response shape.
func NewAttendanceRecordResponse(record models.AttendanceRecord) AttendanceRecordResponse {
	return AttendanceRecordResponse{
		ID:              record.ID,
		ShiftID:         record.ShiftID,
		StudentID:       record.StudentID,
		StudentName:     record.StudentName,
		StudentEmail:    record.StudentEmail,
		StudentPhone:    record.StudentPhone,
		College:         record.College,
		Grade:           record.Grade,
		Major:           record.Major,
		Address:         record.Address,
		Date:            record.Date,
		ScanTime:        record.ScanTime,
		Status:          record.Status,
		AppointmentSlot: record.AppointmentSlot,
		StationName:     record.StationName,
		StationLocation: record.StationLocation,
		SupervisorID:    record.SupervisorID,
		SupervisorName:  record.SupervisorName,
		QRSource:        record.QRSource,
		Verified:        record.Verified,
	}
}

// NewAttendanceRecordResponseSlice maps a list of records.
func NewAttendanceRecordResponseSlice(records []models.AttendanceRecord) []AttendanceRecordResponse {
	responses := make([]AttendanceRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewAttendanceRecordResponse(record))
	}
	return responses
}

// ScanResult is the outcome of a scan registration. Exactly one of Record and
// Existing is populated: a rejected duplicate carries the conflicting record
// so the supervisor UI can show who already scanned.
type ScanResult struct {
	Accepted bool                      `json:"accepted"`
	Reason   string                    `json:"reason,omitempty"`
	Record   *AttendanceRecordResponse `json:"record,omitempty"`
	Existing *AttendanceRecordResponse `json:"existing,omitempty"`
}
