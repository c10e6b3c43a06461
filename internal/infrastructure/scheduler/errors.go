package scheduler

import "errors"

var (
	// ErrJobNotFound is returned when running a job name that was never registered
	ErrJobNotFound = errors.New("scheduler: job not found")

	// ErrJobRunning is returned when a run overlaps with one already in progress
	ErrJobRunning = errors.New("scheduler: job already running")

	// ErrDuplicateJob is returned when registering a name twice
	ErrDuplicateJob = errors.New("scheduler: job already registered")
)
