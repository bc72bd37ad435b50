package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igaudit/pkg/checkpoint"
	igerrors "igaudit/pkg/errors"
	"igaudit/pkg/models"
)

func scored(username string, order int, p float64, class models.Classification, reasons ...string) models.ScoredFollower {
	return models.ScoredFollower{
		Record: models.FollowerRecord{
			Username:       username,
			FullName:       "Name, \"quoted\"\r",
			HasProfilePic:  true,
			Biography:      "line one\r\nline two\nback\\slash",
			PostCount:      3,
			FollowerCount:  10,
			FollowingCount: 4000,
		},
		Features: models.DerivedFeatures{
			FollowerRatio: 10.0 / 4000.0,
			ContentRatio:  3.0 / 10.0,
			SpamUsername:  strings.Contains(username, "bot"),
		},
		Score: models.ScoreResult{
			Username:        username,
			FakeProbability: p,
			Classification:  class,
			Reasons:         reasons,
		},
		Order: order,
	}
}

func sampleResults() []models.ScoredFollower {
	return []models.ScoredFollower{
		scored("alice", 0, 0, models.LikelyReal, "verified"),
		scored("bot_1234", 1, 71.42857142857143, models.LikelyFake, "low_follower_ratio", "no_posts", "spam_username"),
		scored("carol", 2, 35.714285714285715, models.Suspicious, "empty_bio"),
		scored("dave", 3, 71.42857142857143, models.LikelyFake, "no_posts"),
	}
}

func TestSortForExportIsStableAndCopies(t *testing.T) {
	results := sampleResults()
	sorted := SortForExport(results)

	var names []string
	for _, s := range sorted {
		names = append(names, s.Record.Username)
	}
	assert.Equal(t, []string{"bot_1234", "dave", "carol", "alice"}, names)
	assert.Equal(t, "alice", results[0].Record.Username, "input must not be reordered")
}

func TestExportScoredRoundTrip(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	results := sampleResults()
	path, err := manager.ExportScored(results)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), ExportPrefix))
	assert.Equal(t, ".csv", filepath.Ext(path))

	loaded, err := LoadScored(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(results))
	assert.Equal(t, "line one\r\nline two\nback\\slash", loaded[0].Record.Biography)
	assert.Equal(t, "Name, \"quoted\"\r", loaded[0].Record.FullName)

	assert.Equal(t, SortForExport(results), loaded)
	assert.Equal(t, []string{filepath.Base(path)}, manager.ListExports())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not remain")
}

func TestExportScoredUsesUniqueNames(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	first, err := manager.ExportScored(sampleResults())
	require.NoError(t, err)
	second, err := manager.ExportScored(sampleResults())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, manager.ListExports(), 2)
}

func TestExportEmptyResults(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path, err := manager.ExportScored(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(ScoredHeader, ",")+"\n", string(data))

	loaded, err := LoadScored(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestNewManagerScansExistingExports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ExportPrefix+"20240101_000000.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	manager, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{ExportPrefix + "20240101_000000.csv"}, manager.ListExports())
	assert.Equal(t, dir, manager.GetOutputDir())
}

func TestWriteScoredFailureIsExportFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	err := WriteScored(path, sampleResults())
	require.Error(t, err)
	assert.True(t, errors.Is(err, igerrors.ErrExportFailed))
}

func TestDecodeScoredRejectsBadRows(t *testing.T) {
	row := EncodeScored(sampleResults()[1])

	_, err := DecodeScored(row[:len(row)-1])
	assert.Error(t, err)

	bad := append([]string(nil), row...)
	bad[len(checkpoint.RawHeader)+5] = "Maybe"
	_, err = DecodeScored(bad)
	assert.ErrorContains(t, err, "classification")
}

func TestLoadRawReadsCheckpoint(t *testing.T) {
	w, err := checkpoint.Create(t.TempDir(), "target", 2, 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Append(sampleResults()[0].Record))
	require.NoError(t, w.Finish(checkpoint.StatusComplete, nil))

	records, err := LoadRaw(w.Path())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, sampleResults()[0].Record, records[0])
}

func TestArchiveRoundTrip(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "db", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	ctx := context.Background()
	results := sampleResults()

	id, err := archive.SaveRun(ctx, Run{Target: "someone", Source: "synthetic", Partial: true}, results)
	require.NoError(t, err)

	run, loaded, err := archive.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "someone", run.Target)
	assert.Equal(t, "synthetic", run.Source)
	assert.Equal(t, len(results), run.Total)
	assert.True(t, run.Partial)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, results, loaded)
}

func TestArchiveListRunsNewestFirst(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	ctx := context.Background()
	first, err := archive.SaveRun(ctx, Run{Target: "a"}, sampleResults()[:1])
	require.NoError(t, err)
	second, err := archive.SaveRun(ctx, Run{Target: "b"}, nil)
	require.NoError(t, err)

	runs, err := archive.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, 0, runs[0].Total)
}

func TestArchiveLoadUnknownRun(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	_, _, err = archive.LoadRun(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestArchiveRejectsDuplicateUsernames(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	results := sampleResults()
	results[1].Record.Username = "alice"
	_, err = archive.SaveRun(context.Background(), Run{Target: "t"}, results)
	require.Error(t, err)
	assert.ErrorIs(t, err, igerrors.ErrExportFailed)

	runs, err := archive.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "failed save must roll back")
}
