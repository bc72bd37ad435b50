package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByType(t *testing.T) {
	err := UpstreamUnavailable("followers", "alice", errors.New("connection reset"))
	wrapped := fmt.Errorf("collect: %w", err)

	assert.True(t, errors.Is(wrapped, ErrUpstreamUnavailable))
	assert.False(t, errors.Is(wrapped, ErrTargetNotFound))
	assert.Equal(t, ErrorTypeUpstreamUnavailable, TypeOf(wrapped))
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ExportFailed("export", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "export_failed")
	assert.Contains(t, err.Error(), "disk full")
}

func TestErrorMessage(t *testing.T) {
	err := InvalidRecord("bob", "negative post_count")
	assert.Equal(t, "extract: invalid_record (bob): negative post_count", err.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeUpstreamUnavailable, true},
		{ErrorTypeTargetNotFound, false},
		{ErrorTypeItemFetchFailed, false},
		{ErrorTypeInvalidRecord, false},
		{ErrorTypeExportFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errType))
		})
	}
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
