package console

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DefaultExportName is used when an export is given no file name.
const DefaultExportName = "export.csv"

// Exporter writes CSV exports into a directory.
type Exporter struct {
	dir    string
	logger *zap.Logger
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir, logger: logger}
}

// Write stores content under name and returns the file's path. A relative
// name is placed in the export directory.
func (e *Exporter) Write(name, content string) (string, error) {
	if name == "" {
		name = DefaultExportName
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dir, name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("could not create export directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("could not write export: %w", err)
	}

	e.logger.Debug("Export written", zap.String("path", path), zap.Int("bytes", len(content)))
	return path, nil
}
