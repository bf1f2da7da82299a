package service

import (
	"time"

	"claimspipe/internal/domain"
)

// CheckTimeout reports whether a run has been going longer than the
// configured limit. It only looks at elapsed wall time; callers decide what
// a positive answer means for the run's status.
func CheckTimeout(run *domain.Run, timeoutMinutes int, now time.Time) bool {
	elapsed := now.Sub(run.StartTime())
	return elapsed > time.Duration(timeoutMinutes)*time.Minute
}
