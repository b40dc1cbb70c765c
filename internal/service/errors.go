package service

import "errors"

var (
	// ErrPermissionDenied means the authenticated user may not perform the
	// operation on this resource.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidCredentials covers unknown usernames and wrong passwords
	// alike, so a login failure does not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled means the account exists but has been deactivated.
	ErrAccountDisabled = errors.New("account disabled")
)
