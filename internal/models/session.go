package models

import "time"

// Session is the request-scoped principal stored in Redis under an opaque
// token. It replaces ambient global session state: handlers receive the
// resolved session explicitly.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsStaff reports whether the session's role may take staff actions.
func (s *Session) IsStaff() bool {
	return IsStaffRole(s.Role)
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
