package models

// User roles.
const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// Request statuses shared by the borrow and reservation workflows.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusReturned  = "returned"  // borrow only
	StatusCompleted = "completed" // reservation only
)

// Issue statuses.
const (
	IssuePending    = "pending"
	IssueInProgress = "in_progress"
	IssueResolved   = "resolved"
)

// Item return conditions.
const (
	ConditionGood    = "good"
	ConditionDamaged = "damaged"
)

const (
	// DefaultSessionTTL is the session lifetime in Redis, in seconds.
	DefaultSessionTTL = 24 * 60 * 60

	// DefaultRateLimitRequests is the number of API requests allowed per window.
	DefaultRateLimitRequests = 60

	// DefaultRateLimitWindow is the rate limit window in seconds.
	DefaultRateLimitWindow = 60

	// DefaultLoginAttempts is the number of login attempts allowed per
	// username per rate limit window.
	DefaultLoginAttempts = 10

	// WorkerQueueSize is the in-memory sync worker queue size.
	WorkerQueueSize = 1000

	// DefaultExportRangeDays is the default timetable export range.
	DefaultExportRangeDays = 14
)

// requestTransitions is the shared state machine for borrow requests and
// lab reservations. Keys are current statuses, values the statuses that
// may follow. Anything absent is terminal.
var requestTransitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusReturned, StatusCompleted},
}

// CanTransition reports whether a request may move from one status to
// another. Terminal statuses (rejected, cancelled, returned, completed)
// allow no further moves.
func CanTransition(from, to string) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a request status permits no further transitions.
func IsTerminal(status string) bool {
	return len(requestTransitions[status]) == 0
}

// IsValidRole reports whether the role is one of the portal roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleLecturer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaffRole reports whether the role may approve, reject, assign or resolve.
func IsStaffRole(role string) bool {
	return role == RoleStaff || role == RoleAdmin
}
