package domain

import (
	"context"
	"time"

	"geocms/internal/models"
)

// Repository is the storage surface the services depend on.
type Repository interface {
	// Items and labs
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItemByName(ctx context.Context, name string) (*models.Item, error)
	GetActiveItems(ctx context.Context) ([]*models.Item, error)
	GetLabByID(ctx context.Context, id int64) (*models.Lab, error)
	GetActiveLabs(ctx context.Context) ([]*models.Lab, error)

	// Borrow workflow
	CreateBorrowRequestWithLock(ctx context.Context, req *models.BorrowRequest) error
	ApproveBorrowRequest(ctx context.Context, id, version, approverID int64) error
	ReturnBorrowRequest(ctx context.Context, id, version, staffID int64, condition string) error
	UpdateBorrowStatusWithVersion(ctx context.Context, id, version int64, from, to string, actorID int64, reason string) error
	GetBorrowRequest(ctx context.Context, id int64) (*models.BorrowRequest, error)
	GetUserBorrowRequests(ctx context.Context, userID int64) ([]*models.BorrowRequest, error)
	GetBorrowRequestsByStatus(ctx context.Context, status string) ([]*models.BorrowRequest, error)
	GetAllBorrowRequests(ctx context.Context) ([]*models.BorrowRequest, error)

	// Reservation workflow
	CreateReservationWithLock(ctx context.Context, res *models.Reservation) error
	UpdateReservationStatusWithVersion(ctx context.Context, id, version int64, from, to string, actorID int64, reason string) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	GetLabWindows(ctx context.Context, labID int64, date time.Time) ([]models.Window, error)
	GetUserReservations(ctx context.Context, userID int64) ([]*models.Reservation, error)
	GetReservationsByStatus(ctx context.Context, status string) ([]*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	GetDailyReservations(ctx context.Context, start, end time.Time) (map[string][]*models.Reservation, error)

	// Issue workflow
	CreateIssue(ctx context.Context, issue *models.Issue) error
	AssignIssue(ctx context.Context, id int64, technicianID int64, technicianName string, actorID int64, actorName string) error
	ResolveIssue(ctx context.Context, id, resolverID int64, resolverName, note string) error
	AddIssueComment(ctx context.Context, comment *models.IssueComment) error
	DeleteIssue(ctx context.Context, id int64) error
	GetIssue(ctx context.Context, id int64) (*models.Issue, error)
	GetIssueComments(ctx context.Context, issueID int64) ([]*models.IssueComment, error)
	GetIssuesByStatus(ctx context.Context, status string) ([]*models.Issue, error)
	GetUserIssues(ctx context.Context, reporterID int64) ([]*models.Issue, error)
	GetAllIssues(ctx context.Context) ([]*models.Issue, error)

	// Users
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUsersByRole(ctx context.Context, role string) ([]*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserActivity(ctx context.Context, id int64) error

	VerifyLedger(ctx context.Context, itemID int64) error
}

// SessionRepository stores opaque-token sessions.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SessionManager is the API-facing session surface.
type SessionManager interface {
	Create(ctx context.Context, user *models.User) (*models.Session, error)
	Resolve(ctx context.Context, token string) (*models.Session, error)
	Destroy(ctx context.Context, token string) error
}

// EventPublisher publishes serialized domain events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier pushes human-readable workflow notifications to staff.
type Notifier interface {
	NotifyStaff(text string)
}

// SheetsWriter mirrors portal state into spreadsheets.
type SheetsWriter interface {
	ReplaceTimetableSheet(ctx context.Context, startDate, endDate time.Time,
		daily map[string][]*models.Reservation, labs []*models.Lab) error
	ReplaceLedgerSheet(ctx context.Context, items []*models.Item, requests []*models.BorrowRequest) error
}

// SyncWorker schedules spreadsheet synchronization.
type SyncWorker interface {
	EnqueueTimetableSync(ctx context.Context, startDate, endDate time.Time) error
	EnqueueLedgerSync(ctx context.Context) error
}

// BorrowService is the borrow workflow surface consumed by the API.
type BorrowService interface {
	SubmitRequest(ctx context.Context, session *models.Session, itemID, quantity int64, startDate, endDate time.Time, notes string) (*models.BorrowRequest, error)
	Approve(ctx context.Context, session *models.Session, id, version int64) error
	Reject(ctx context.Context, session *models.Session, id, version int64, reason string) error
	Cancel(ctx context.Context, session *models.Session, id, version int64) error
	Return(ctx context.Context, session *models.Session, id, version int64, condition string) error
	Get(ctx context.Context, session *models.Session, id int64) (*models.BorrowRequest, error)
	List(ctx context.Context, session *models.Session, status string) ([]*models.BorrowRequest, error)
}

// ReservationService is the lab reservation workflow surface.
type ReservationService interface {
	SubmitRequest(ctx context.Context, session *models.Session, labID int64, date time.Time, startTime, endTime, purpose string) (*models.Reservation, error)
	Approve(ctx context.Context, session *models.Session, id, version int64) error
	Reject(ctx context.Context, session *models.Session, id, version int64, reason string) error
	Cancel(ctx context.Context, session *models.Session, id, version int64) error
	Complete(ctx context.Context, session *models.Session, id, version int64) error
	Get(ctx context.Context, session *models.Session, id int64) (*models.Reservation, error)
	List(ctx context.Context, session *models.Session, status string) ([]*models.Reservation, error)
	Availability(ctx context.Context, labID int64, date time.Time) ([]models.Window, error)
}

// IssueService is the issue-report workflow surface.
type IssueService interface {
	Report(ctx context.Context, session *models.Session, labID int64, computer, title, description string) (*models.Issue, error)
	Assign(ctx context.Context, session *models.Session, id, technicianID int64) error
	Resolve(ctx context.Context, session *models.Session, id int64, note string) error
	Comment(ctx context.Context, session *models.Session, id int64, body string) (*models.IssueComment, error)
	Delete(ctx context.Context, session *models.Session, id int64) error
	Get(ctx context.Context, session *models.Session, id int64) (*models.Issue, []*models.IssueComment, error)
	List(ctx context.Context, session *models.Session, status string) ([]*models.Issue, error)
}

// UserService manages portal accounts and authentication.
type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Technicians(ctx context.Context) ([]*models.User, error)
}
