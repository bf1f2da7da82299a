package dto

// ExportFile is one file in a run's export folder
type ExportFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// ListExportsRequest has no body; the run ID comes from the path
type ListExportsRequest struct{}

// ListExportsResponse lists a run's export folder contents
type ListExportsResponse struct {
	RunID  string       `json:"run_id"`
	Folder string       `json:"folder"`
	Files  []ExportFile `json:"files"`
}
