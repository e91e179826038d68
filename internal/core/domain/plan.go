package domain

import "time"

// StepID identifies one bootstrap step.
type StepID string

// The bootstrap steps, in execution order.
const (
	// StepPackages installs the OS packages needed to build MonetDB.
	StepPackages StepID = "packages"

	// StepFetch downloads and unpacks the MonetDB source tarball.
	StepFetch StepID = "fetch"

	// StepBuild configures, compiles and installs the unpacked source.
	StepBuild StepID = "build"

	// StepFarm creates the database farm, configures it and starts monetdbd.
	StepFarm StepID = "farm"

	// StepDatabase creates and releases the test database.
	StepDatabase StepID = "database"

	// StepDeps installs the test-time Python dependencies.
	StepDeps StepID = "deps"
)

// StepOrder is the canonical execution order. Bootstrap runs the steps
// in exactly this sequence and stops at the first failure.
var StepOrder = []StepID{
	StepPackages,
	StepFetch,
	StepBuild,
	StepFarm,
	StepDatabase,
	StepDeps,
}

// KnownStep reports whether id names one of the bootstrap steps.
func KnownStep(id StepID) bool {
	for _, s := range StepOrder {
		if s == id {
			return true
		}
	}
	return false
}

// Step is one entry in a bootstrap plan.
type Step struct {
	// ID is the step identifier.
	ID StepID

	// Description is the human-readable label shown in progress output.
	Description string
}

// StepStatus is the lifecycle state of a step within a run.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult records the outcome of a single step execution.
type StepResult struct {
	// StepID links the result to its step.
	StepID StepID

	// Status is the final state of the step.
	Status StepStatus

	// StartedAt is when execution began. Zero for skipped steps.
	StartedAt time.Time

	// FinishedAt is when execution ended. Zero for skipped steps.
	FinishedAt time.Time

	// Error is the failure message, empty unless Status is StepFailed.
	Error string
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunStatus is the lifecycle state of a whole bootstrap run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run records one invocation of the bootstrap pipeline.
type Run struct {
	// ID is the unique run identifier.
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended. Zero while the run is live.
	FinishedAt time.Time

	// Status is the final (or current) state of the run.
	Status RunStatus

	// Steps holds the per-step outcomes in execution order.
	Steps []StepResult
}

// CompletedSteps returns the IDs of the steps that finished successfully.
func (r *Run) CompletedSteps() []StepID {
	var done []StepID
	for _, s := range r.Steps {
		if s.Status == StepCompleted {
			done = append(done, s.StepID)
		}
	}
	return done
}
