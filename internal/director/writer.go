package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/motionreel/internal/timeline"
)

// WriteDocument writes a document to a YAML file
func WriteDocument(doc *Document, path string) error {
	if doc.Version == "" {
		doc.Version = CurrentVersion
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// ReadDocument reads a document from a YAML file and validates its timeline
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DecodeDocument parses a YAML document
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.Version == "" {
		doc.Version = CurrentVersion
	}
	if doc.Timeline.Config.TrackCount <= 0 {
		doc.Timeline.Config.TrackCount = timeline.DefaultTrackCount
	}
	if err := timeline.Validate(doc.Timeline); err != nil {
		return nil, err
	}

	return &doc, nil
}
