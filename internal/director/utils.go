package director

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/motionreel/internal/system"
)

// DefaultDocumentsDir is where generated documents are stored
var DefaultDocumentsDir = filepath.Join("internal", "scenarios")

// GenerateDocumentPath creates a timestamped document filename in dir
func GenerateDocumentPath(dir string) string {
	if dir == "" {
		dir = DefaultDocumentsDir
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("timeline_%s.yaml", timestamp))
}

// FindLatestDocument finds the most recently modified document in dir
func FindLatestDocument(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDocumentsDir
	}
	path, err := system.FindLatestFile(dir, ".yaml", ".yml")
	if err != nil {
		return "", fmt.Errorf("no timeline documents: %w", err)
	}
	return path, nil
}
