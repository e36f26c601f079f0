package domain

import "errors"

// Domain errors represent error conditions in the lifepad domain.
// They are wrapped with context by callers and checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("lifepad: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("lifepad: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("lifepad: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("lifepad: invalid configuration")

	// ErrShutdownRequested is returned by the tick loop when the input
	// boundary asked the process to quit.
	ErrShutdownRequested = errors.New("lifepad: shutdown requested")

	// ErrScanConflict is returned by a radio when another discovery scan is
	// already running on the adapter.
	ErrScanConflict = errors.New("lifepad: scan already in progress")

	// ErrConnectFailure is returned when a radio-level connection attempt fails.
	ErrConnectFailure = errors.New("lifepad: connect failed")

	// ErrMalformedTelemetry is returned when a notification payload cannot be
	// decoded to an integer.
	ErrMalformedTelemetry = errors.New("lifepad: malformed telemetry")

	// ErrUnknownPeripheral is returned for an address that is not part of the
	// peripheral table.
	ErrUnknownPeripheral = errors.New("lifepad: unknown peripheral")
)
