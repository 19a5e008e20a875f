package model

import "errors"

var (
	// ErrSessionNotFound is returned when a session is not registered with the broker.
	ErrSessionNotFound = errors.New("session not found")

	// ErrJobNotFound is returned when a job record does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrBrokerStopped is returned when the broker has already been stopped.
	ErrBrokerStopped = errors.New("broker stopped")

	// ErrNotAccepting is returned when a connection arrives while the broker is not accepting.
	ErrNotAccepting = errors.New("broker is not accepting connections")

	// ErrConnClosed is returned when writing to a connection that has been closed.
	ErrConnClosed = errors.New("connection closed")

	// ErrCSVRequired is returned when an analysis request carries no CSV payload.
	ErrCSVRequired = errors.New("csv data is required")

	// ErrClientKeyRequired is returned when an analysis request carries no client key.
	ErrClientKeyRequired = errors.New("clientKey is required")
)
