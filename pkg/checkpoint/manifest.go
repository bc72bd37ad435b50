package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Status is the lifecycle state of a collection run
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// Manifest describes a raw checkpoint file. It sits next to the CSV with a
// .json extension.
type Manifest struct {
	Target        string    `json:"target"`
	RawFile       string    `json:"raw_file"`
	Status        Status    `json:"status"`
	FollowerCount int       `json:"follower_count"`
	Cap           int       `json:"cap,omitempty"`
	Collected     int       `json:"collected"`
	Failed        int       `json:"failed"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

// ManifestPath returns the manifest path belonging to a raw CSV path
func ManifestPath(rawPath string) string {
	return strings.TrimSuffix(rawPath, ".csv") + ".json"
}

// LoadManifest reads a manifest from disk
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var m Manifest
	if err := json.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// SaveManifest writes m to path atomically
func SaveManifest(path string, m *Manifest) error {
	m.UpdatedAt = time.Now()

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync manifest file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close manifest file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace manifest file: %w", err)
	}

	return nil
}
