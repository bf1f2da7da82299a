package service

import (
	"testing"
	"time"

	"claimspipe/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestCheckTimeout(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	tests := []struct {
		name    string
		elapsed time.Duration
		limit   int
		want    bool
	}{
		{"well within limit", 5 * time.Minute, 60, false},
		{"exactly at limit", 60 * time.Minute, 60, false},
		{"just over limit", 61 * time.Minute, 60, true},
		{"short limit", 2 * time.Minute, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &domain.Run{StartedAt: now.Add(-tt.elapsed).UnixMilli()}
			assert.Equal(t, tt.want, CheckTimeout(run, tt.limit, now))
		})
	}
}
