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

const (
	jfmAssetLabel    = "Jesus Film"
	ownedChannelID   = "UCCtcQHR6-mQHQh6G06IPlDA"
	claimInsertBatch = 1000
)

// ProcessClaims loads a claims report into the warehouse. Rows are filtered
// down to Jesus Film assets plus owner uploads on the JFM channel, staged
// into a dated report table, then merged into youtube_mcn_claims.
func (r *Runtime) ProcessClaims(ctx context.Context, pc *domain.PipelineContext, source string) (*domain.StepOutcome, error) {
	var path string
	switch source {
	case "matter_entertainment":
		path = pc.Files.Claims.MatterEntertainment
	case "matter_2":
		path = pc.Files.Claims.Matter2
	}
	if path == "" {
		return nil, nil
	}

	log := r.logger.With(logger.String("claims_source", source))

	tableName := fmt.Sprintf("claim_report_%s_%s", dateCompact(time.Now()), source)
	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s LIKE youtube_mcn_claims`, tableName)); err != nil {
		return nil, fmt.Errorf("failed to create report table: %w", err)
	}

	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	filtered := rows[:0]
	for _, row := range rows {
		if strings.Contains(row["asset_labels"], jfmAssetLabel) ||
			(row["claim_origin"] == "WEB_UPLOAD_BY_OWNER" && row["channel_id"] == ownedChannelID) {
			row["claim_report_source"] = source
			filtered = append(filtered, row)
		}
	}

	columns := append(append([]string{}, header...), "claim_report_source")
	for i := 0; i < len(filtered); i += claimInsertBatch {
		end := i + claimInsertBatch
		if end > len(filtered) {
			end = len(filtered)
		}
		if err := r.insertClaimBatch(ctx, tableName, columns, filtered[i:end]); err != nil {
			return nil, err
		}
		if i%50000 == 0 {
			log.Info("loading claims",
				logger.Int("processed", i),
				logger.Int("total", len(filtered)))
		}
	}

	// Merge claims for videos the warehouse has not seen yet
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO youtube_mcn_claims
		SELECT * FROM `+tableName+`
		WHERE video_id NOT IN (SELECT video_id FROM youtube_mcn_claims)
		AND video_id != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to merge new claims: %w", err)
	}
	newClaims, _ := result.RowsAffected()

	invalidMCIDs, err := r.invalidMediaComponentIDs(ctx, "youtube_mcn_claims")
	if err != nil {
		return nil, err
	}
	invalidLanguageIDs, err := r.invalidLanguageIDs(ctx, "youtube_mcn_claims")
	if err != nil {
		return nil, err
	}

	summary, _ := pc.Outputs["claimsProcessed"].(map[string]any)
	if summary == nil {
		summary = map[string]any{}
	}
	summary[source] = map[string]any{
		"total":              len(filtered),
		"new":                newClaims,
		"invalidMCIDs":       invalidMCIDs,
		"invalidLanguageIDs": invalidLanguageIDs,
	}
	pc.Outputs["claimsProcessed"] = summary

	log.Info("claims processed",
		logger.Int("total", len(filtered)),
		logger.Int64("new", newClaims))
	return nil, nil
}

func (r *Runtime) insertClaimBatch(ctx context.Context, table string, columns []string, batch []map[string]string) error {
	if len(batch) == 0 {
		return nil
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ",")))

	args := make([]any, 0, len(batch)*len(columns))
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(placeholder)
		for _, col := range columns {
			args = append(args, row[col])
		}
	}
	sb.WriteString(" ON DUPLICATE KEY UPDATE claim_last_updated_date = NOW()")

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert claim batch: %w", err)
	}
	return nil
}

// invalidMediaComponentIDs finds media component IDs the BI views don't know
func (r *Runtime) invalidMediaComponentIDs(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT media_component_id FROM `+table+` v
		WHERE v.media_component_id IS NOT NULL
		AND v.media_component_id != '-'
		AND v.media_component_id NOT IN (
			SELECT media_component_id FROM bi_view_media_component
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to check media component IDs: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// invalidLanguageIDs finds language IDs with no matching WESS language
func (r *Runtime) invalidLanguageIDs(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT language_id FROM `+table+` v
		WHERE v.language_id IS NOT NULL
		AND v.language_id != '-'
		AND CONVERT(v.language_id USING utf8mb4) COLLATE utf8mb4_bin NOT IN (
			SELECT CONVERT(wess_language_id USING utf8mb4) COLLATE utf8mb4_bin FROM bi_view_media_language
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to check language IDs: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
