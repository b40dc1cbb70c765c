package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBorrowSubmitted = "borrow_submitted"
	EventBorrowApproved  = "borrow_approved"
	EventBorrowRejected  = "borrow_rejected"
	EventBorrowCancelled = "borrow_cancelled"
	EventBorrowReturned  = "borrow_returned"

	EventReservationSubmitted = "reservation_submitted"
	EventReservationApproved  = "reservation_approved"
	EventReservationRejected  = "reservation_rejected"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationCompleted = "reservation_completed"

	EventIssueReported = "issue_reported"
	EventIssueAssigned = "issue_assigned"
	EventIssueResolved = "issue_resolved"
)

// BorrowEventPayload is the minimal borrow snapshot for event consumers.
type BorrowEventPayload struct {
	RequestID int64     `json:"request_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	ItemID    int64     `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Quantity  int64     `json:"quantity"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
	ActorID   int64     `json:"actor_id,omitempty"`
	ActorName string    `json:"actor_name,omitempty"`
}

// ReservationEventPayload is the minimal reservation snapshot for event
// consumers.
type ReservationEventPayload struct {
	ReservationID int64     `json:"reservation_id"`
	UserID        int64     `json:"user_id"`
	UserName      string    `json:"user_name"`
	LabID         int64     `json:"lab_id"`
	LabName       string    `json:"lab_name"`
	Date          time.Time `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	ActorID       int64     `json:"actor_id,omitempty"`
	ActorName     string    `json:"actor_name,omitempty"`
}

// IssueEventPayload is the minimal issue snapshot for event consumers.
type IssueEventPayload struct {
	IssueID      int64  `json:"issue_id"`
	LabID        int64  `json:"lab_id"`
	LabName      string `json:"lab_name"`
	Computer     string `json:"computer,omitempty"`
	ReporterID   int64  `json:"reporter_id"`
	ReporterName string `json:"reporter_name"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	AssignedName string `json:"assigned_name,omitempty"`
	ActorID      int64  `json:"actor_id,omitempty"`
	ActorName    string `json:"actor_name,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
