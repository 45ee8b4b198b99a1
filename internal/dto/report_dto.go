package dto

import "time"

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// LiveCountResponse is the polling payload for the supervisor live card.
type LiveCountResponse struct {
	ShiftID       string    `json:"shift_id"`
	Total         int64     `json:"total"`
	WindowMinutes int       `json:"window_minutes"`
	RecentCount   int       `json:"recent_count"`
	GeneratedAt   time.Time `json:"generated_at"`
	CacheHit      bool      `json:"cache_hit,omitempty"`
}

// RecordListRequest carries the admin records-table filters.
type RecordListRequest struct {
	Date         string
	SupervisorID string
	ShiftID      string
	Page         int
	Limit        int
}

// RecordListResponse is the flat, offset-paginated global records view.
type RecordListResponse struct {
	Records    []AttendanceRecordResponse `json:"records"`
	Pagination PaginationMeta             `json:"pagination"`
}

// ShiftGroup is one logical page of the supervisor-scoped view: a single
// shift with its records grouped underneath.
type ShiftGroup struct {
	Shift   ShiftResponse              `json:"shift"`
	Records []AttendanceRecordResponse `json:"records"`
}

// ShiftPaginationMeta paginates by shift rather than by row: page N of M
// shifts, most recent shift first.
type ShiftPaginationMeta struct {
	Page        int `json:"page"`
	TotalShifts int `json:"total_shifts"`
}

// GroupedRecordsResponse is the supervisor-scoped records view.
type GroupedRecordsResponse struct {
	Groups     []ShiftGroup        `json:"groups"`
	Pagination ShiftPaginationMeta `json:"pagination"`
}

// ScanEvent is broadcast to live monitors whenever a scan is accepted.
type ScanEvent struct {
	ShiftID      string    `json:"shift_id"`
	SupervisorID string    `json:"supervisor_id"`
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name"`
	Location     string    `json:"location,omitempty"`
	ScanTime     time.Time `json:"scan_time"`
	TotalScans   int64     `json:"total_scans"`
}
