package core

import "errors"

var (
	// ErrNotFound is returned by single-document loads for unknown ids.
	ErrNotFound = errors.New("not found")

	// ErrSubscriptionClosed is returned when an operation is attempted on a
	// cancelled subscription.
	ErrSubscriptionClosed = errors.New("subscription closed")
)
