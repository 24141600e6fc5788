// Package validation checks stats file names and input directories before
// ingestion touches them.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// supported extensions for stats files.
var supportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// FileValidator provides common file validation for the server and the
// bulk loader.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateUploadName rejects names that are empty, contain path separators
// or carry an unsupported extension. It returns the bare file name.
func (v *FileValidator) ValidateUploadName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		v.logger.Warn("rejected file name with path components",
			slog.String("file_name", name))
		return "", fmt.Errorf("file name %q must not contain path components", name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
	return name, nil
}

// ValidateInputDirectory validates that the input directory exists and is
// actually a directory.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
