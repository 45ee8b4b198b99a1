package models

import "time"

// Student mirrors the registration service's student profile. This service
// reads it for scan enrichment and never owns its lifecycle.
type Student struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      string    `gorm:"size:64;uniqueIndex;not null" json:"student_id"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName       string    `gorm:"size:255;not null" json:"full_name"`
	PhoneNumber    string    `gorm:"size:64" json:"phone_number,omitempty"`
	College        string    `gorm:"size:255" json:"college,omitempty"`
	Grade          string    `gorm:"size:64" json:"grade,omitempty"`
	Major          string    `gorm:"size:255" json:"major,omitempty"`
	Address        string    `gorm:"size:512" json:"address,omitempty"`
	ProfilePhoto   string    `gorm:"size:512" json:"profile_photo,omitempty"`
	DaysRegistered int       `json:"days_registered"`
	RemainingDays  int       `json:"remaining_days"`
	AttendanceRate float64   `json:"attendance_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
