package models

import "time"

// Issue is a fault report filed against a lab or one of its computers.
type Issue struct {
	ID           int64      `json:"id"`
	LabID        int64      `json:"lab_id"`
	LabName      string     `json:"lab_name"`
	Computer     string     `json:"computer,omitempty"`
	ReporterID   int64      `json:"reporter_id"`
	ReporterName string     `json:"reporter_name"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	AssignedTo   *int64     `json:"assigned_to,omitempty"`
	AssignedName string     `json:"assigned_name,omitempty"`
	ResolvedBy   *int64     `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IssueComment is one record of the append-only history trail. Comments are
// never edited or deleted, except together with the parent issue.
type IssueComment struct {
	ID         int64     `json:"id"`
	IssueID    int64     `json:"issue_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
