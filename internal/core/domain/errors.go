package domain

import "errors"

// Domain errors represent pipeline failures distinct from the raw
// infrastructure errors the adapters return.
var (
	// ErrNotFound indicates a requested entity (run, step) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates the configuration cannot drive a run.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownStep indicates a step ID outside the bootstrap plan.
	ErrUnknownStep = errors.New("unknown step")

	// ErrStepFailed indicates a bootstrap step failed; the run aborts at
	// the first occurrence, mirroring shell -e semantics.
	ErrStepFailed = errors.New("step failed")

	// ErrDaemonNotReady indicates monetdbd did not become reachable
	// within the readiness timeout.
	ErrDaemonNotReady = errors.New("daemon not ready")

	// ErrVerifyFailed indicates one or more post-bootstrap checks failed.
	ErrVerifyFailed = errors.New("verification failed")

	// ErrNothingToResume indicates --resume was given but the journal
	// holds no interrupted run.
	ErrNothingToResume = errors.New("no interrupted run to resume")
)
