package drive

import "context"

// UploadResult describes the remote folder an export landed in
type UploadResult struct {
	FolderID  string `json:"folder_id"`
	FolderURL string `json:"folder_url"`
}

// Client defines interface for uploading export folders to shared storage
type Client interface {
	// Configured reports whether a target drive is set up
	Configured() bool

	// UploadFolder mirrors a local export folder into the shared drive
	// and returns where it landed
	UploadFolder(ctx context.Context, localPath, folderName string) (*UploadResult, error)
}
