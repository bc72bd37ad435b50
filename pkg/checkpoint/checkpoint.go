package checkpoint

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"igaudit/pkg/logger"
	"igaudit/pkg/models"
)

// TimestampLayout formats run timestamps in file names
const TimestampLayout = "20060102_150405"

// FileName returns the raw checkpoint file name for a run started at t
func FileName(target string, t time.Time) string {
	return fmt.Sprintf("raw_followers_%s_%s.csv", target, t.Format(TimestampLayout))
}

// Writer appends raw follower rows to a checkpoint file. Every Append is
// flushed and fsynced before it returns, so a row is either fully on disk or
// absent once the next item is attempted.
type Writer struct {
	path     string
	file     *os.File
	csv      *csv.Writer
	manifest Manifest
	logger   logger.Logger
	closed   bool
}

// Create opens a new checkpoint in dir for target. An empty dir selects the
// per-user data directory.
func Create(dir, target string, followerCount, limit int, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if dir == "" {
		dataDir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		dir = dataDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	now := time.Now()
	file, path, err := createUnique(dir, FileName(target, now))
	if err != nil {
		return nil, err
	}

	w := &Writer{
		path:   path,
		file:   file,
		csv:    csv.NewWriter(file),
		logger: log,
		manifest: Manifest{
			Target:        target,
			RawFile:       filepath.Base(path),
			Status:        StatusRunning,
			FollowerCount: followerCount,
			Cap:           limit,
			CreatedAt:     now,
			Version:       1,
		},
	}

	if err := w.writeRow(RawHeader); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write checkpoint header: %w", err)
	}
	if err := SaveManifest(ManifestPath(path), &w.manifest); err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}

	log.InfoWithFields("Checkpoint created", map[string]interface{}{
		"target": target,
		"path":   path,
	})
	return w, nil
}

// createUnique creates name in dir, adding a numeric suffix if a run in the
// same second already claimed it
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]

	path := filepath.Join(dir, name)
	for i := 2; ; i++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, os.ErrExist) || i > 100 {
			return nil, "", fmt.Errorf("failed to create checkpoint file: %w", err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

func (w *Writer) writeRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Append durably commits one record
func (w *Writer) Append(rec models.FollowerRecord) error {
	if w.closed {
		return errors.New("checkpoint is closed")
	}
	if err := w.writeRow(EncodeRecord(rec)); err != nil {
		return fmt.Errorf("failed to append %s to checkpoint: %w", rec.Username, err)
	}
	w.manifest.Collected++
	return nil
}

// RecordFailure counts an item that could not be collected
func (w *Writer) RecordFailure() {
	w.manifest.Failed++
}

// Path returns the raw CSV path
func (w *Writer) Path() string {
	return w.path
}

// Manifest returns a copy of the current manifest
func (w *Writer) Manifest() Manifest {
	return w.manifest
}

// Finish closes the CSV and records the final status. runErr may be nil.
func (w *Writer) Finish(status Status, runErr error) error {
	if w.closed {
		return nil
	}
	w.closed = true

	closeErr := w.file.Close()

	w.manifest.Status = status
	if runErr != nil {
		w.manifest.Error = runErr.Error()
	}
	saveErr := SaveManifest(ManifestPath(w.path), &w.manifest)

	w.logger.DebugWithFields("Checkpoint finished", map[string]interface{}{
		"path":      w.path,
		"status":    string(status),
		"collected": w.manifest.Collected,
		"failed":    w.manifest.Failed,
	})

	return errors.Join(closeErr, saveErr)
}

// Load reads every committed record from a raw checkpoint file
func Load(path string) ([]models.FollowerRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	records, err := ReadRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", path, err)
	}
	return records, nil
}

// DefaultDir returns the per-user checkpoint directory for the current OS
func DefaultDir() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "igaudit")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "igaudit")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "igaudit")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "igaudit")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(dataDir, "checkpoints"), nil
}
