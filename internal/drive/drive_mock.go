package drive

import (
	"context"
	"fmt"

	"claimspipe/internal/logger"
)

type mockClient struct {
	logger    logger.Logger
	driveName string
}

// NewMockClient creates a mock drive client that logs uploads. An empty
// drive name leaves the client unconfigured, which skips the enrichment
// and upload steps.
func NewMockClient(log logger.Logger, driveName string) Client {
	return &mockClient{
		logger:    log.With(logger.String("component", "drive_mock")),
		driveName: driveName,
	}
}

func (m *mockClient) Configured() bool {
	return m.driveName != ""
}

func (m *mockClient) UploadFolder(ctx context.Context, localPath, folderName string) (*UploadResult, error) {
	if !m.Configured() {
		return nil, fmt.Errorf("no shared drive configured")
	}

	m.logger.Info("MOCK: drive upload",
		logger.String("drive", m.driveName),
		logger.String("local_path", localPath),
		logger.String("folder", folderName),
	)

	return &UploadResult{
		FolderID:  folderName,
		FolderURL: fmt.Sprintf("https://drive.google.com/drive/folders/%s", folderName),
	}, nil
}
