package steps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCleanValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  padded  ", "padded"},
		{"line\r", "line"},
		{"'quoted'", "quoted"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanValue(tt.in))
	}
}

func TestNormalizeHeaderRewritesExpressionColumns(t *testing.T) {
	header := normalizeHeader([]string{
		"claim_id",
		`REPLACE(channel_display_name, ",", " ")`,
		`REPLACE(video_title, ",", " ")`,
		" video_id ",
	})
	assert.Equal(t, []string{"claim_id", "channel_display_name", "video_title", "video_id"}, header)
}

func TestReadHeader(t *testing.T) {
	path := writeTempCSV(t, "video_id,verdict,wave\nabc,J,1\n")

	header, err := readHeader(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"video_id", "verdict", "wave"}, header)
}

func TestReadHeaderEmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")

	_, err := readHeader(path)
	assert.ErrorContains(t, err, "empty")
}

func TestReadCSVCleansRows(t *testing.T) {
	path := writeTempCSV(t, "video_id,verdict\n 'abc' ,J\ndef,\n")

	header, rows, err := readCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"video_id", "verdict"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "abc", rows[0]["video_id"])
	assert.Equal(t, "J", rows[0]["verdict"])
	assert.Equal(t, "def", rows[1]["video_id"])
	assert.Equal(t, "", rows[1]["verdict"])
}

func TestReadCSVToleratesRaggedRows(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n1,2\n")

	_, rows, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0]["b"])
	_, hasC := rows[0]["c"]
	assert.False(t, hasC)
}
