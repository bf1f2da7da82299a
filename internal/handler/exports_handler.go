package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"claimspipe/commons/error_handler"
	"claimspipe/commons/handler"
	"claimspipe/internal/dto"
	"claimspipe/internal/logger"
	"claimspipe/internal/repository"
	repoiface "claimspipe/internal/repository/iface"
	"claimspipe/internal/steps"

	"github.com/gin-gonic/gin"
)

// ExportsHandler serves the export folder listing and file downloads
type ExportsHandler struct {
	logger  logger.Logger
	runRepo repoiface.RunRepository
	runtime *steps.Runtime
}

func NewExportsHandler(
	log logger.Logger,
	runRepo repoiface.RunRepository,
	runtime *steps.Runtime,
) *ExportsHandler {
	return &ExportsHandler{
		logger:  log.With(logger.String("component", "exports_handler")),
		runRepo: runRepo,
		runtime: runtime,
	}
}

func (h *ExportsHandler) ListExportsService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.ListExportsRequest],
) (dto.ListExportsResponse, *error_handler.ErrorCollection) {
	runID := ioutil.PathParams["runId"]
	if runID == "" {
		return dto.ListExportsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "run id is required", nil)
	}

	run, err := h.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return dto.ListExportsResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeNotFound, "Run not found", nil)
		}
		h.logger.Error("failed to load run", logger.Error(err))
		return dto.ListExportsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Failed to list exports", nil)
	}

	folder := h.runtime.RunFolderName(run.StartTime())
	entries, err := os.ReadDir(h.runtime.ExportDir(run.StartTime()))
	if err != nil {
		if os.IsNotExist(err) {
			return dto.ListExportsResponse{RunID: runID, Folder: folder, Files: []dto.ExportFile{}}, nil
		}
		h.logger.Error("failed to read export folder", logger.Error(err))
		return dto.ListExportsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "Failed to list exports", nil)
	}

	files := make([]dto.ExportFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, dto.ExportFile{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
		})
	}

	return dto.ListExportsResponse{
		RunID:  runID,
		Folder: folder,
		Files:  files,
	}, nil
}

// DownloadExport streams one export file. It bypasses the JSON envelope and
// is registered directly on the router.
func (h *ExportsHandler) DownloadExport() gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.Param("runId")
		filename := c.Param("filename")

		// Only CSVs, and no path traversal
		if filename == "" || !strings.HasSuffix(filename, ".csv") ||
			strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
			return
		}

		run, err := h.runRepo.GetByID(c.Request.Context(), runID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}

		path := filepath.Join(h.runtime.ExportDir(run.StartTime()), filename)
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}

		c.FileAttachment(path, filename)
	}
}
