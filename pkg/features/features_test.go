package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/models"
)

func TestExtractWorkedExample(t *testing.T) {
	rec := models.FollowerRecord{
		Username:       "bot1234",
		FollowerCount:  1000,
		FollowingCount: 5,
	}

	feat, err := Extract(rec)
	require.NoError(t, err)
	assert.InDelta(t, 166.67, feat.FollowerRatio, 0.01)
	assert.InDelta(t, 0.0, feat.ContentRatio, 1e-12)
	assert.True(t, feat.SpamUsername)
	assert.False(t, feat.SuspiciousBio)
}

func TestExtractZeroCounts(t *testing.T) {
	feat, err := Extract(models.FollowerRecord{Username: "quiet"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, feat.FollowerRatio)
	assert.Equal(t, 0.0, feat.ContentRatio)
}

func TestExtractRejectsMalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		rec  models.FollowerRecord
	}{
		{"empty username", models.FollowerRecord{}},
		{"blank username", models.FollowerRecord{Username: "   "}},
		{"negative posts", models.FollowerRecord{Username: "a", PostCount: -1}},
		{"negative followers", models.FollowerRecord{Username: "a", FollowerCount: -5}},
		{"negative following", models.FollowerRecord{Username: "a", FollowingCount: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.rec)
			assert.ErrorIs(t, err, errs.ErrInvalidRecord)
		})
	}
}

func TestIsSpamUsername(t *testing.T) {
	tests := []struct {
		username string
		spam     bool
	}{
		{"john_doe", false},
		{"jane.smith", false},
		{"photos_by_ana", false},
		{"user2024", true},
		{"x12345", true},
		{"ab1234", true},
		{"AB1234", true},
		{"abc123", false},
		{"followme", true},
		{"FollowBack_", true},
		{"f4f_daily", true},
		{"like4like", true},
		{"cool_bot", true},
		{"bot_army", true},
		{"my.bot", true},
		{"robotics", false},
		{"spamking", true},
		{"flwr", true},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.spam, IsSpamUsername(tt.username))
		})
	}
}

func TestIsSuspiciousBio(t *testing.T) {
	tests := []struct {
		name string
		bio  string
		want bool
	}{
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"plain", "Coffee and mountains", false},
		{"follow for follow", "Follow For Follow!!", true},
		{"follow back", "I always follow back", true},
		{"f4f", "F4F", true},
		{"l4l", "l4l ❤️", true},
		{"dm for promo", "DM for promo", true},
		{"mixed case phrase", "DM FOR PROMO and collabs", true},
		{"upper case with other text", "FOLLOW BACK STRAẞE", true},
		{"split by newline", "follow\nback", false},
		{"extra spaces", "follow   for   follow", false},
		{"fullwidth", "ｆ４ｆ", false},
		{"accented", "fóllow báck", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuspiciousBio(tt.bio))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "dm for promo", Normalize("DM for PROMO"))
	assert.Equal(t, "  dm\tfor   promo ", Normalize("  DM\tfor   PROMO "))
	assert.Equal(t, "café", Normalize("Café"))
	assert.Equal(t, "ｆ４ｆ", Normalize("ｆ４ｆ"))
	assert.Equal(t, "", Normalize(""))
}

func TestExtractIsPure(t *testing.T) {
	rec := models.FollowerRecord{Username: "ab12345", Biography: "f4f", FollowerCount: 3, FollowingCount: 900, PostCount: 1}
	a, err := Extract(rec)
	require.NoError(t, err)
	b, err := Extract(rec)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
