package steps

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Some upstream claim exports carry SQL expressions as column names.
// Map them back to the real table columns.
var normalizedColumns = map[string]string{
	`REPLACE(channel_display_name, ",", " ")`: "channel_display_name",
	`REPLACE(video_title, ",", " ")`:          "video_title",
}

// cleanValue trims whitespace, stray carriage returns and the leading/
// trailing quotes Excel likes to add
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, "\r", "")
	v = strings.TrimPrefix(v, "'")
	v = strings.TrimSuffix(v, "'")
	return v
}

// cleanRow cleans every value in a parsed CSV row
func cleanRow(row map[string]string) map[string]string {
	cleaned := make(map[string]string, len(row))
	for k, v := range row {
		cleaned[k] = cleanValue(v)
	}
	return cleaned
}

// normalizeHeader rewrites known expression-style column names
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		col = cleanValue(col)
		if real, ok := normalizedColumns[col]; ok {
			col = real
		}
		out[i] = col
	}
	return out
}

// readHeader reads just the header row of a CSV file
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file appears to be empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return normalizeHeader(header), nil
}

// readCSV reads a whole CSV file into cleaned header-keyed rows
func readCSV(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("file appears to be empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	header = normalizeHeader(header)

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, cleanRow(row))
	}

	return header, rows, nil
}
