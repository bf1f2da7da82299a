package service

import "errors"

var (
	// ErrRunInProgress is returned when a run lock is already held
	ErrRunInProgress = errors.New("a pipeline run is already in progress")

	// ErrNotRetryable is returned when retrying a run that is not in a
	// failed or timeout state
	ErrNotRetryable = errors.New("can only retry failed or timed out runs")

	// ErrRunNotRunning is returned when stopping a run that is not running
	ErrRunNotRunning = errors.New("run is not running")
)
