// Package source defines the contracts the collector consumes to discover a
// target's followers and look up each follower's profile details.
package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Resolve when the target account does not exist
var ErrNotFound = errors.New("account not found")

// TargetProfile is the resolved target account
type TargetProfile struct {
	Username       string
	FollowerCount  int
	FollowingCount int
}

// FollowerStub holds the basic attributes available from the follower listing
type FollowerStub struct {
	Username      string
	FullName      string
	IsPrivate     bool
	HasProfilePic bool
	IsVerified    bool
}

// ProfileDetails holds the attributes that require a per-account lookup
type ProfileDetails struct {
	Biography      string
	PostCount      int
	FollowerCount  int
	FollowingCount int
	ExternalLink   bool
}

// ProfileSource resolves targets and lists their followers
type ProfileSource interface {
	// Resolve returns ErrNotFound (possibly wrapped) for unknown accounts.
	// Any other error means the upstream is unavailable.
	Resolve(ctx context.Context, username string) (TargetProfile, error)

	// Followers returns a lazy follower sequence. Calling it again restarts
	// from the beginning.
	Followers(ctx context.Context, username string) (FollowerIterator, error)
}

// FollowerIterator walks a follower sequence one account at a time.
//
// Next returns io.EOF when the sequence is exhausted and an *ItemError when a
// single entry failed but iteration may continue. Any other error ends the
// sequence.
type FollowerIterator interface {
	Next(ctx context.Context) (FollowerStub, error)
	Close() error
}

// ProfileDetailSource performs the extended per-account lookup
type ProfileDetailSource interface {
	Fetch(ctx context.Context, username string) (ProfileDetails, error)
}

// ItemError is an item-scoped failure yielded by a FollowerIterator
type ItemError struct {
	// Username may be empty when the upstream could not identify the entry
	Username string
	Err      error
}

func (e *ItemError) Error() string {
	if e.Username == "" {
		return fmt.Sprintf("follower entry: %v", e.Err)
	}
	return fmt.Sprintf("follower %s: %v", e.Username, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// IsItemError reports whether err is item-scoped
func IsItemError(err error) bool {
	var ie *ItemError
	return errors.As(err, &ie)
}
