package steps

import (
	"context"
	"fmt"
	"strings"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
)

var verdictColumns = []string{
	"video_id", "verdict", "media_component_id", "language_id", "wave", "no_code",
}

// validColumns lists the columns that exist in the warehouse tables, per
// input file kind
var validColumns = map[string][]string{
	"claims": {
		"claim_id", "claim_status", "claim_status_detail", "claim_origin", "claim_type",
		"asset_id", "video_id", "uploader", "channel_id", "channel_display_name",
		"video_title", "views", "matching_duration", "longest_match", "content_type",
		"reference_video_id", "reference_id", "claim_policy_id", "asset_policy_id",
		"claim_policy_monetize", "claim_policy_track", "claim_policy_block",
		"asset_policy_monetize", "asset_policy_track", "asset_policy_block",
		"claim_created_date", "video_upload_date", "custom_id", "video_duration_sec",
		"asset_title", "asset_labels", "tms", "director", "studio", "season",
		"episode_number", "episode_title", "release_date", "hfa_song_code",
		"isrc", "grid", "artist", "album", "record_label", "upc", "iswc", "writers",
	},
	"mcn_verdicts": verdictColumns,
	"jfm_verdicts": verdictColumns,
}

// ValidateInputCSVs checks every uploaded file's header against the columns
// the warehouse tables actually have. Columns the tables don't know about
// fail the run before any data moves.
func (r *Runtime) ValidateInputCSVs(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	files := map[string]string{
		"claims":       pc.Files.Claims.MatterEntertainment,
		"mcn_verdicts": pc.Files.MCNVerdicts,
		"jfm_verdicts": pc.Files.JFMVerdicts,
	}
	if pc.Files.Claims.Matter2 != "" {
		files["claims_matter_2"] = pc.Files.Claims.Matter2
	}

	var errs []string
	for kind, path := range files {
		if path == "" {
			continue
		}
		allowed := validColumns[kind]
		if allowed == nil && strings.HasPrefix(kind, "claims") {
			allowed = validColumns["claims"]
		}
		if allowed == nil {
			continue
		}

		header, err := readHeader(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", kind, err))
			continue
		}

		var invalid []string
		for _, col := range header {
			if !contains(allowed, col) {
				invalid = append(invalid, col)
			}
		}
		if len(invalid) > 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid columns (don't exist in table): %s",
				kind, strings.Join(invalid, ", ")))
			continue
		}

		r.logger.Info("CSV validated",
			logger.String("file", kind),
			logger.Int("columns", len(header)))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("CSV validation failed:\n%s", strings.Join(errs, "\n"))
	}

	pc.Outputs["validated"] = true
	return nil, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
