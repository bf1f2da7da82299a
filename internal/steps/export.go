package steps

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
)

var exportViews = []struct {
	view string
	file string
}{
	{"export_all_claims", "all_claims.csv"},
	{"export_owned_videos", "owned_videos.csv"},
	{"export_unprocessed_claims", "unprocessed_claims.csv"},
}

// ExportViews dumps the warehouse export views to CSV files in the run's
// export folder. Views with no rows are skipped.
func (r *Runtime) ExportViews(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	exportDir := r.ExportDir(pc.StartedAt)
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export folder: %w", err)
	}

	exported := map[string]any{}
	for _, ev := range exportViews {
		r.logger.Info("exporting view", logger.String("view", ev.view))

		filePath := filepath.Join(exportDir, ev.file)
		rows, err := r.exportView(ctx, ev.view, filePath)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			r.logger.Info("no data in view", logger.String("view", ev.view))
			continue
		}

		exported[ev.view] = map[string]any{
			"path": filePath,
			"rows": rows,
		}
	}

	pc.Outputs["exports"] = exported
	r.logger.Info("views exported",
		logger.Int("count", len(exported)),
		logger.String("folder", exportDir))
	return nil, nil
}

// exportView streams one view to a CSV file and returns the row count
func (r *Runtime) exportView(ctx context.Context, view, filePath string) (int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT * FROM `+view)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", view, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to read columns of %s: %w", view, err)
	}

	var writer *csv.Writer
	var file *os.File
	count := 0

	values := make([]sql.RawBytes, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return 0, fmt.Errorf("failed to scan %s: %w", view, err)
		}

		// Only create the file once the view turns out to be non-empty
		if file == nil {
			file, err = os.Create(filePath)
			if err != nil {
				return 0, fmt.Errorf("failed to create %s: %w", filePath, err)
			}
			defer file.Close()
			writer = csv.NewWriter(file)
			if err := writer.Write(columns); err != nil {
				return 0, err
			}
		}

		record := make([]string, len(values))
		for i, v := range values {
			record[i] = string(v)
		}
		if err := writer.Write(record); err != nil {
			return 0, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", view, err)
	}

	if writer != nil {
		writer.Flush()
		if err := writer.Error(); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", filePath, err)
		}
	}
	return count, nil
}
