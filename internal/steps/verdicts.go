package steps

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
)

const verdictInsertBatch = 1000

// ProcessMCNVerdicts applies reviewer verdicts to the MCN claims table
func (r *Runtime) ProcessMCNVerdicts(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	if pc.Files.MCNVerdicts == "" {
		return nil, nil
	}
	return nil, r.processVerdictFile(ctx, pc, pc.Files.MCNVerdicts, "mcn")
}

// ProcessJFMVerdicts applies reviewer verdicts to the channel videos table
func (r *Runtime) ProcessJFMVerdicts(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	if pc.Files.JFMVerdicts == "" {
		return nil, nil
	}
	return nil, r.processVerdictFile(ctx, pc, pc.Files.JFMVerdicts, "jfm")
}

type verdictRow struct {
	videoID          string
	verdict          string
	mediaComponentID sql.NullString
	languageID       sql.NullString
	wave             string
	noCode           sql.NullString
}

func (r *Runtime) processVerdictFile(ctx context.Context, pc *domain.PipelineContext, path, kind string) error {
	log := r.logger.With(logger.String("verdict_kind", kind))

	tableName := fmt.Sprintf("%s_verdicts_%s", kind, dateCompact(time.Now()))
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			video_id VARCHAR(191) PRIMARY KEY,
			verdict VARCHAR(1),
			media_component_id VARCHAR(255),
			language_id VARCHAR(255),
			wave VARCHAR(100),
			no_code VARCHAR(255)
		)`, tableName)); err != nil {
		return fmt.Errorf("failed to create verdicts table: %w", err)
	}

	_, rows, err := readCSV(path)
	if err != nil {
		return err
	}

	cleaned := make([]verdictRow, 0, len(rows))
	for _, row := range rows {
		v := verdictRow{
			videoID:          row["video_id"],
			verdict:          row["verdict"],
			mediaComponentID: nullable(row["media_component_id"]),
			languageID:       nullable(row["language_id"]),
			wave:             row["wave"],
			noCode:           nullable(row["no_code"]),
		}
		if v.verdict == "" {
			v.verdict = "U"
		}
		if v.wave == "" {
			v.wave = "0"
		}
		cleaned = append(cleaned, v)
	}

	for i := 0; i < len(cleaned); i += verdictInsertBatch {
		end := i + verdictInsertBatch
		if end > len(cleaned) {
			end = len(cleaned)
		}
		if err := r.insertVerdictBatch(ctx, tableName, cleaned[i:end]); err != nil {
			return err
		}
	}

	targetTable := "youtube_mcn_claims"
	timestampField := "verdict_last_updated_date"
	if kind == "jfm" {
		targetTable = "youtube_channel_videos"
		timestampField = "updated_at"
	}

	// A '-' verdict value explicitly clears the warehouse field; NULL leaves
	// it alone
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s c, %s v
		SET c.verdict = CASE WHEN v.verdict IS NOT NULL THEN v.verdict ELSE c.verdict END,
			c.wave = CASE WHEN v.wave IS NOT NULL THEN v.wave ELSE c.wave END,
			c.media_component_id = CASE
				WHEN v.media_component_id IS NULL THEN c.media_component_id
				WHEN v.media_component_id = '-' THEN NULL
				ELSE v.media_component_id
			END,
			c.language_id = CASE
				WHEN v.language_id IS NULL THEN c.language_id
				WHEN v.language_id = '-' THEN NULL
				ELSE v.language_id
			END,
			c.no_code = CASE WHEN v.no_code IS NOT NULL THEN v.no_code ELSE c.no_code END,
			c.%s = NOW()
		WHERE c.video_id = v.video_id`, targetTable, tableName, timestampField)); err != nil {
		return fmt.Errorf("failed to apply verdicts: %w", err)
	}

	invalidMCIDs, err := r.invalidMediaComponentIDs(ctx, tableName)
	if err != nil {
		return err
	}
	invalidLanguageIDs, err := r.invalidLanguageIDs(ctx, tableName)
	if err != nil {
		return err
	}

	pc.Outputs[kind+"Verdicts"] = map[string]any{
		"processed":          len(cleaned),
		"invalidMCIDs":       invalidMCIDs,
		"invalidLanguageIDs": invalidLanguageIDs,
	}

	log.Info("verdicts processed",
		logger.Int("rows", len(cleaned)),
		logger.String("target_table", targetTable))
	return nil
}

func (r *Runtime) insertVerdictBatch(ctx context.Context, table string, batch []verdictRow) error {
	if len(batch) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"INSERT INTO %s (video_id, verdict, media_component_id, language_id, wave, no_code) VALUES ",
		table))

	args := make([]any, 0, len(batch)*6)
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?)")
		args = append(args, row.videoID, row.verdict, row.mediaComponentID, row.languageID, row.wave, row.noCode)
	}
	sb.WriteString(" ON DUPLICATE KEY UPDATE verdict = VALUES(verdict)")

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert verdict batch: %w", err)
	}
	return nil
}

func nullable(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
