package models

import "time"

// TimeLayout is the wire and storage format for reservation window bounds.
// Zero-padded HH:MM compares correctly both as a string and in SQL.
const TimeLayout = "15:04"

// Reservation is a request for a lab on a date over a half-open time
// window [StartTime, EndTime).
type Reservation struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	UserName       string     `json:"user_name"`
	LabID          int64      `json:"lab_id"`
	LabName        string     `json:"lab_name"`
	Date           time.Time  `json:"date"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	Purpose        string     `json:"purpose"`
	Status         string     `json:"status"`
	DecisionReason string     `json:"decision_reason,omitempty"`
	DecidedBy      *int64     `json:"decided_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int64      `json:"version"`
}

// Overlaps reports whether two half-open windows on the same lab and date
// share any instant. Back-to-back windows do not overlap.
func (r *Reservation) Overlaps(start, end string) bool {
	return r.StartTime < end && start < r.EndTime
}

// Window is an occupied slot returned by availability queries.
type Window struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}
