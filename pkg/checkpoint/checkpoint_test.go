package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igaudit/pkg/logger"
	"igaudit/pkg/models"
)

func sampleRecords() []models.FollowerRecord {
	return []models.FollowerRecord{
		{
			Username:       "alice",
			FullName:       "Alice, \"the\" Great \\o/",
			IsPrivate:      true,
			HasProfilePic:  true,
			Biography:      "line one\r\nline two\nC:\\r\\tmp\r",
			PostCount:      12,
			FollowerCount:  340,
			FollowingCount: 120,
			ExternalLink:   true,
		},
		{
			Username:       "bot1234",
			FollowingCount: 5000,
		},
		{
			Username:   "verified.one",
			FullName:   "Véronique ✨",
			IsVerified: true,
			Biography:  "  padded  ",
		},
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "raw_followers_alice_20240309_140507.csv", FileName("alice", ts))
}

func TestWriterAppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewTestLogger()

	w, err := Create(dir, "alice", 3, 0, log)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(w.Path()), "raw_followers_alice_"))
	assert.True(t, log.HasMessage("Checkpoint created"))

	for _, rec := range sampleRecords() {
		require.NoError(t, w.Append(rec))

		// each row is readable as soon as Append returns
		loaded, err := Load(w.Path())
		require.NoError(t, err)
		assert.Equal(t, rec, loaded[len(loaded)-1])
	}
	w.RecordFailure()
	require.NoError(t, w.Finish(StatusComplete, nil))

	loaded, err := Load(w.Path())
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), loaded)

	m, err := LoadManifest(ManifestPath(w.Path()))
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, m.Status)
	assert.Equal(t, 3, m.Collected)
	assert.Equal(t, 1, m.Failed)
	assert.Equal(t, "alice", m.Target)
	assert.Equal(t, filepath.Base(w.Path()), m.RawFile)
}

func TestManifestStartsRunning(t *testing.T) {
	w, err := Create(t.TempDir(), "alice", 900, 10, logger.NewNopLogger())
	require.NoError(t, err)
	defer w.Finish(StatusFailed, nil)

	m, err := LoadManifest(ManifestPath(w.Path()))
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, m.Status)
	assert.Equal(t, 900, m.FollowerCount)
	assert.Equal(t, 10, m.Cap)
}

func TestFinishRecordsError(t *testing.T) {
	w, err := Create(t.TempDir(), "alice", 0, 0, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, w.Append(sampleRecords()[0]))
	require.NoError(t, w.Finish(StatusPartial, errors.New("upstream went away")))

	m, err := LoadManifest(ManifestPath(w.Path()))
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, m.Status)
	assert.Equal(t, "upstream went away", m.Error)

	assert.Error(t, w.Append(sampleRecords()[1]))
	assert.NoError(t, w.Finish(StatusComplete, nil), "second finish is a no-op")
}

func TestCreateAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	a, err := Create(dir, "alice", 0, 0, logger.NewNopLogger())
	require.NoError(t, err)
	b, err := Create(dir, "alice", 0, 0, logger.NewNopLogger())
	require.NoError(t, err)
	defer a.Finish(StatusComplete, nil)
	defer b.Finish(StatusComplete, nil)

	assert.NotEqual(t, a.Path(), b.Path())
}

func TestLoadDropsTrailingPartialRow(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, "alice", 0, 0, logger.NewNopLogger())
	require.NoError(t, err)
	for _, rec := range sampleRecords()[:2] {
		require.NoError(t, w.Append(rec))
	}
	require.NoError(t, w.Finish(StatusRunning, nil))

	tests := []struct {
		name string
		tail string
	}{
		{"plain partial", "carol,Carol,false,tr"},
		{"open quote", "carol,\"Carol\nhalf a name"},
		{"complete fields without newline", "carol,Carol,false,true,false,bio,1,2,3,false"},
		{"cut after newline in quoted bio", "carol,,false,false,false,\"l1\n"},
		{"cut after several quoted lines", "carol,,false,false,false,\"l1\nl2\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := os.ReadFile(w.Path())
			require.NoError(t, err)

			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".csv")
			require.NoError(t, os.WriteFile(path, append(data, tt.tail...), 0644))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, sampleRecords()[:2], loaded)
		})
	}
}

func TestLoadRejectsCorruptRows(t *testing.T) {
	dir := t.TempDir()
	header := strings.Join(RawHeader, ",") + "\n"

	tests := []struct {
		name string
		body string
	}{
		{"bad header", "user,name\n"},
		{"bad bool", header + "a,A,maybe,true,false,,1,2,3,false\n"},
		{"bad int", header + "a,A,false,true,false,,x,2,3,false\n"},
		{"short row", header + "a,A,false\n"},
		{"unknown escape", header + "a,A\\x,false,true,false,,1,2,3,false\n"},
		{"dangling escape", header + "a,,false,true,false,bio\\,1,2,3,false\n"},
		{"bad quote before good row", header + "a,\"A\"x,false,true,false,,1,2,3,false\nb,B,false,true,false,,1,2,3,false\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestTextEscapingRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		escaped string
	}{
		{"plain", "coffee and mountains", "coffee and mountains"},
		{"crlf", "a\r\nb", `a\r` + "\nb"},
		{"lone cr", "a\rb", `a\rb`},
		{"backslash", `C:\tmp`, `C:\\tmp`},
		{"backslash before r", `\r`, `\\r`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped := EscapeText(tt.in)
			assert.Equal(t, tt.escaped, escaped)
			assert.NotContains(t, escaped, "\r")

			back, err := UnescapeText(escaped)
			require.NoError(t, err)
			assert.Equal(t, tt.in, back)
		})
	}
}

func TestHeaderOnlyLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(RawHeader, ",")+"\n"), 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestDefaultDirHonorsXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on linux")
	}
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "igaudit", "checkpoints"), dir)
}
