package synthetic

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igaudit/pkg/source"
)

func collectAll(t *testing.T, s *Source) []source.FollowerStub {
	t.Helper()
	it, err := s.Followers(context.Background(), "demo")
	require.NoError(t, err)
	defer it.Close()

	var stubs []source.FollowerStub
	for {
		stub, err := it.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return stubs
		}
		require.NoError(t, err)
		stubs = append(stubs, stub)
	}
}

func TestNewIsDeterministic(t *testing.T) {
	a := collectAll(t, New(42, 40))
	b := collectAll(t, New(42, 40))
	assert.Equal(t, a, b)
}

func TestUsernamesAreUniqueAndNonEmpty(t *testing.T) {
	s := New(7, 200)
	assert.Equal(t, 200, s.Len())

	seen := make(map[string]bool)
	for _, stub := range collectAll(t, s) {
		assert.NotEmpty(t, stub.Username)
		assert.False(t, seen[stub.Username], "duplicate %s", stub.Username)
		seen[stub.Username] = true
	}
}

func TestResolveReportsGeneratedCount(t *testing.T) {
	s := New(1, 25)
	profile, err := s.Resolve(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, "anyone", profile.Username)
	assert.Equal(t, 25, profile.FollowerCount)
	assert.GreaterOrEqual(t, profile.FollowingCount, 50)
	assert.LessOrEqual(t, profile.FollowingCount, 1500)

	again, err := New(1, 25).Resolve(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, profile, again)
}

func TestFetchReturnsNonNegativeDetails(t *testing.T) {
	s := New(3, 60)
	for _, stub := range collectAll(t, s) {
		d, err := s.Fetch(context.Background(), stub.Username)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d.PostCount, 0)
		assert.GreaterOrEqual(t, d.FollowerCount, 0)
		assert.GreaterOrEqual(t, d.FollowingCount, 0)
	}

	_, err := s.Fetch(context.Background(), "not-generated")
	assert.ErrorIs(t, err, source.ErrNotFound)
}
