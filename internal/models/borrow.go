package models

import "time"

// BorrowRequest tracks one user's request to borrow a quantity of an item
// for a date range. Counters on the item are only touched on approval and
// return; a pending request reserves nothing.
type BorrowRequest struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	UserName        string     `json:"user_name"`
	ItemID          int64      `json:"item_id"`
	ItemName        string     `json:"item_name"`
	Quantity        int64      `json:"quantity"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	DecisionReason  string     `json:"decision_reason,omitempty"`
	DecidedBy       *int64     `json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	ReturnCondition string     `json:"return_condition,omitempty"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Version         int64      `json:"version"`
}
