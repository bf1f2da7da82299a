package steps

import (
	"context"
	"time"
	"testing"

	"claimspipe/internal/config"
	"claimspipe/internal/domain"
	"claimspipe/internal/drive"
	"claimspipe/internal/logger"
	"claimspipe/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	cfg := &config.Config{
		SkipVPN:            true,
		ExportRoot:         t.TempDir(),
		ExportFolderFormat: "2006-01-02_15-04-05",
	}
	return NewRuntime(log, cfg, nil, ml.NewHTTPClient(log, ""), drive.NewMockClient(log, ""))
}

func TestValidateInputCSVsAcceptsKnownColumns(t *testing.T) {
	rt := newTestRuntime(t)

	claims := writeTempCSV(t, "claim_id,video_id,channel_id,asset_labels\nc1,v1,ch1,Jesus Film\n")
	verdicts := writeTempCSV(t, "video_id,verdict,media_component_id,language_id,wave,no_code\nv1,J,mc1,529,1,\n")

	pc := domain.NewPipelineContext(domain.InputFiles{
		Claims:      domain.ClaimFiles{MatterEntertainment: claims},
		MCNVerdicts: verdicts,
	}, domain.RunOptions{}, "run-1", time.Now())

	outcome, err := rt.ValidateInputCSVs(context.Background(), pc)
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Equal(t, true, pc.Outputs["validated"])
}

func TestValidateInputCSVsRejectsUnknownColumns(t *testing.T) {
	rt := newTestRuntime(t)

	verdicts := writeTempCSV(t, "video_id,verdict,not_a_column\nv1,J,x\n")

	pc := domain.NewPipelineContext(domain.InputFiles{
		JFMVerdicts: verdicts,
	}, domain.RunOptions{}, "run-1", time.Now())

	_, err := rt.ValidateInputCSVs(context.Background(), pc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV validation failed")
	assert.Contains(t, err.Error(), "jfm_verdicts")
	assert.Contains(t, err.Error(), "not_a_column")
}

func TestValidateInputCSVsNormalizesExpressionColumns(t *testing.T) {
	rt := newTestRuntime(t)

	claims := writeTempCSV(t, `claim_id,"REPLACE(channel_display_name, "","", "" "")",video_id`+"\nc1,Channel,v1\n")

	pc := domain.NewPipelineContext(domain.InputFiles{
		Claims: domain.ClaimFiles{MatterEntertainment: claims},
	}, domain.RunOptions{}, "run-1", time.Now())

	_, err := rt.ValidateInputCSVs(context.Background(), pc)
	assert.NoError(t, err)
}

func TestValidateInputCSVsSkipsMissingFiles(t *testing.T) {
	rt := newTestRuntime(t)

	pc := domain.NewPipelineContext(domain.InputFiles{}, domain.RunOptions{}, "run-1", time.Now())

	_, err := rt.ValidateInputCSVs(context.Background(), pc)
	assert.NoError(t, err)
}

func TestValidateInputCSVsReportsUnreadableFile(t *testing.T) {
	rt := newTestRuntime(t)

	pc := domain.NewPipelineContext(domain.InputFiles{
		MCNVerdicts: "does/not/exist.csv",
	}, domain.RunOptions{}, "run-1", time.Now())

	_, err := rt.ValidateInputCSVs(context.Background(), pc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mcn_verdicts")
}
