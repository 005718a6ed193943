package repository

import "errors"

var (
	// ErrSubscriptionNotFound is returned when no subscription has the requested ID.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrVersionConflict is returned when a subscription was modified since it was read.
	ErrVersionConflict = errors.New("subscription was modified concurrently")
)
