package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
	// PerRun places each run's files in BaseOutputDir/<runID>.
	PerRun bool
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string, perRun bool) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
		PerRun:        perRun,
	}
}

// RunDir returns the directory a run writes into, creating it if needed.
func (om *OutputManager) RunDir(runID string) (string, error) {
	dir := om.BaseOutputDir
	if om.PerRun && runID != "" {
		dir = filepath.Join(om.BaseOutputDir, filepath.Base(runID))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

// GetOutputFilePath generates a full path for an output file
func (om *OutputManager) GetOutputFilePath(runID, fileName string) (string, error) {
	dir, err := om.RunDir(runID)
	if err != nil {
		return "", err
	}

	// Clean the filename to remove any path separators
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

// GetDownloadURL generates a download URL for a file
func (om *OutputManager) GetDownloadURL(runID, fileName string) string {
	return fmt.Sprintf("/api/v1/download/%s/%s", runID, filepath.Base(fileName))
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
