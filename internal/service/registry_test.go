package service

import (
	"testing"

	"claimspipe/internal/config"
	"claimspipe/internal/domain"
	"claimspipe/internal/drive"
	"claimspipe/internal/logger"
	"claimspipe/internal/steps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, driveName string) *Registry {
	t.Helper()
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	cfg := &config.Config{
		ExportRoot:         t.TempDir(),
		ExportFolderFormat: "2006-01-02_15-04-05",
	}
	runtime := steps.NewRuntime(log, cfg, nil, &fakeMLClient{}, drive.NewMockClient(log, driveName))
	return NewRegistry(runtime)
}

func TestRegistryStepOrder(t *testing.T) {
	registry := newTestRegistry(t, "team-drive")

	assert.Equal(t, []string{
		steps.StepConnectVPN,
		steps.StepValidateInputCSVs,
		steps.StepBackupTables,
		steps.StepProcessClaimsMatter,
		steps.StepProcessClaimsM2,
		steps.StepProcessMCNVerdicts,
		steps.StepProcessJFMVerdicts,
		steps.StepExportViews,
		steps.StepEnrichML,
		steps.StepUploadDrive,
	}, registry.Names())
}

func TestRegistryFileConditions(t *testing.T) {
	registry := newTestRegistry(t, "team-drive")

	tests := []struct {
		step  string
		files domain.InputFiles
		want  bool
	}{
		{steps.StepProcessClaimsMatter, domain.InputFiles{Claims: domain.ClaimFiles{MatterEntertainment: "me.csv"}}, true},
		{steps.StepProcessClaimsMatter, domain.InputFiles{}, false},
		{steps.StepProcessClaimsM2, domain.InputFiles{Claims: domain.ClaimFiles{Matter2: "m2.csv"}}, true},
		{steps.StepProcessClaimsM2, domain.InputFiles{Claims: domain.ClaimFiles{MatterEntertainment: "me.csv"}}, false},
		{steps.StepProcessMCNVerdicts, domain.InputFiles{MCNVerdicts: "mcn.csv"}, true},
		{steps.StepProcessMCNVerdicts, domain.InputFiles{}, false},
		{steps.StepProcessJFMVerdicts, domain.InputFiles{JFMVerdicts: "jfm.csv"}, true},
		{steps.StepProcessJFMVerdicts, domain.InputFiles{}, false},
	}

	for _, tt := range tests {
		desc := registry.Find(tt.step)
		require.NotNil(t, desc, tt.step)
		require.NotNil(t, desc.Condition, tt.step)
		assert.Equal(t, tt.want, desc.Condition(tt.files), tt.step)
	}
}

func TestRegistryUnconditionalSteps(t *testing.T) {
	registry := newTestRegistry(t, "team-drive")

	for _, name := range []string{
		steps.StepConnectVPN,
		steps.StepValidateInputCSVs,
		steps.StepBackupTables,
		steps.StepExportViews,
		steps.StepUploadDrive,
	} {
		desc := registry.Find(name)
		require.NotNil(t, desc, name)
		assert.Nil(t, desc.Condition, name)
	}
}

func TestRegistryEnrichRequiresDrive(t *testing.T) {
	withDrive := newTestRegistry(t, "team-drive")
	desc := withDrive.Find(steps.StepEnrichML)
	require.NotNil(t, desc)
	assert.True(t, desc.Condition(domain.InputFiles{}))

	withoutDrive := newTestRegistry(t, "")
	desc = withoutDrive.Find(steps.StepEnrichML)
	require.NotNil(t, desc)
	assert.False(t, desc.Condition(domain.InputFiles{}))
}

func TestRegistryFindUnknownStep(t *testing.T) {
	registry := newTestRegistry(t, "team-drive")
	assert.Nil(t, registry.Find("no_such_step"))
}
