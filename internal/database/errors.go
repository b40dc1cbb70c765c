package database

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotAvailable is returned when an item has fewer available units
	// than the requested quantity.
	ErrNotAvailable = errors.New("insufficient available quantity")

	// ErrOverlap is returned when a reservation window conflicts with an
	// existing pending or approved reservation on the same lab and date.
	ErrOverlap = errors.New("time window overlaps an existing reservation")

	// ErrInvalidTransition is returned when a request is not in the status
	// the transition requires, including any attempt to leave a terminal
	// status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrentModification is returned when an optimistic version
	// check fails because another writer got there first.
	ErrConcurrentModification = errors.New("record was modified concurrently")

	// ErrPastDate is returned for submissions dated in the past.
	ErrPastDate = errors.New("date is in the past")

	// ErrDateTooFar is returned when the requested date exceeds the
	// configured horizon.
	ErrDateTooFar = errors.New("date is too far in the future")

	// ErrInvalidTimeWindow is returned when end <= start or a bound does
	// not parse as HH:MM.
	ErrInvalidTimeWindow = errors.New("invalid time window")

	// ErrInvalidQuantity is returned for non-positive borrow quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidCondition is returned when a return condition is neither
	// good nor damaged.
	ErrInvalidCondition = errors.New("invalid return condition")

	// ErrInvalidTitle is returned for empty titles and comment bodies.
	ErrInvalidTitle = errors.New("text must not be empty")

	// ErrAlreadyResolved is returned when resolving an issue that is
	// already resolved.
	ErrAlreadyResolved = errors.New("issue is already resolved")
)
