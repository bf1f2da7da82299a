package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunDefaults(t *testing.T) {
	run := NewRun(InputFiles{MCNVerdicts: "mcn.csv"})

	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, RunRecordType, run.RecordType)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, CurrentStepStarting, run.CurrentStep)
	assert.NotZero(t, run.StartedAt)
	assert.Empty(t, run.StartedSteps)
}

func TestRunStatusIsTerminal(t *testing.T) {
	assert.False(t, RunStatusRunning.IsTerminal())
	for _, s := range []RunStatus{RunStatusCompleted, RunStatusFailed, RunStatusStopped, RunStatusTimeout} {
		assert.True(t, s.IsTerminal(), string(s))
	}
}

func TestFindStepAndRunningStep(t *testing.T) {
	run := NewRun(InputFiles{})
	run.StartedSteps = []StepRecord{
		{Name: "connect_vpn", Status: StepStatusCompleted},
		{Name: "export_views", Status: StepStatusRunning},
	}

	found := run.FindStep("connect_vpn")
	require.NotNil(t, found)
	assert.Equal(t, StepStatusCompleted, found.Status)
	assert.Nil(t, run.FindStep("upload_drive"))

	running := run.RunningStep()
	require.NotNil(t, running)
	assert.Equal(t, "export_views", running.Name)
}

func TestCompletedStepCount(t *testing.T) {
	run := NewRun(InputFiles{})
	run.StartedSteps = []StepRecord{
		{Name: "a", Status: StepStatusCompleted},
		{Name: "b", Status: StepStatusSkipped},
		{Name: "c", Status: StepStatusCompleted},
		{Name: "d", Status: StepStatusError},
	}
	assert.Equal(t, 2, run.CompletedStepCount())
}

func TestInputFilesUploadedLabels(t *testing.T) {
	files := InputFiles{
		Claims:      ClaimFiles{MatterEntertainment: "me.csv", Matter2: "m2.csv"},
		JFMVerdicts: "jfm.csv",
	}
	assert.Equal(t, []string{"Claims (ME)", "Claims (M2)", "JFM Verdicts"}, files.UploadedLabels())
	assert.False(t, files.IsEmpty())
	assert.True(t, InputFiles{}.IsEmpty())
}
