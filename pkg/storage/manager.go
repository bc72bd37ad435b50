package storage

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"igaudit/pkg/checkpoint"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/models"
)

// ExportPrefix starts every scored export file name
const ExportPrefix = "instagram_fake_followers_"

// ExportFileName returns the export file name for time t
func ExportFileName(t time.Time) string {
	return ExportPrefix + t.Format(checkpoint.TimestampLayout) + ".csv"
}

// Manager handles result exports within an output directory
type Manager struct {
	outputDir string
	exports   map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		exports:   make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records exports left by earlier runs
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, ExportPrefix) && filepath.Ext(name) == ".csv" {
			m.exports[name] = true
		}
	}

	return nil
}

// SortForExport returns a copy of results ordered by descending probability,
// ties kept in collection order
func SortForExport(results []models.ScoredFollower) []models.ScoredFollower {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b models.ScoredFollower) int {
		if c := cmp.Compare(b.Score.FakeProbability, a.Score.FakeProbability); c != 0 {
			return c
		}
		return cmp.Compare(a.Order, b.Order)
	})
	return sorted
}

// ExportScored writes results to a new timestamped file in the output
// directory and returns its path. The slice passed in is never modified.
func (m *Manager) ExportScored(results []models.ScoredFollower) (string, error) {
	name := ExportFileName(time.Now())

	m.mu.Lock()
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; m.exists(name); i++ {
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	m.exports[name] = true
	m.mu.Unlock()

	path := filepath.Join(m.outputDir, name)
	if err := WriteScored(path, results); err != nil {
		m.mu.Lock()
		delete(m.exports, name)
		m.mu.Unlock()
		return "", err
	}
	return path, nil
}

func (m *Manager) exists(name string) bool {
	if m.exports[name] {
		return true
	}
	_, err := os.Stat(filepath.Join(m.outputDir, name))
	return err == nil
}

// WriteScored atomically writes results to path sorted for export. Failures
// are reported as export_failed errors.
func WriteScored(path string, results []models.ScoredFollower) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ScoredHeader); err != nil {
		return errs.ExportFailed("encode", err)
	}
	for _, s := range SortForExport(results) {
		if err := w.Write(EncodeScored(s)); err != nil {
			return errs.ExportFailed("encode", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.ExportFailed("encode", err)
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return errs.ExportFailed("write", err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file, syncs it and renames it
// over path
func writeFileAtomic(path string, data []byte) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	if err == nil {
		err = out.Sync()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// LoadScored reads a scored export back
func LoadScored(path string) ([]models.ScoredFollower, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	rows, err := checkpoint.ReadRows(data, ScoredHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export %s: %w", path, err)
	}

	results := make([]models.ScoredFollower, 0, len(rows))
	for i, row := range rows {
		s, err := DecodeScored(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		results = append(results, s)
	}
	return results, nil
}

// LoadRaw reads a raw checkpoint file for replay without re-collecting
func LoadRaw(path string) ([]models.FollowerRecord, error) {
	return checkpoint.Load(path)
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// ListExports returns the export file names known to the manager, sorted
func (m *Manager) ListExports() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
