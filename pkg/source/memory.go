package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var errConnectionLost = errors.New("upstream connection lost")

// MemoryFollower is one scripted entry of a MemorySource follower list
type MemoryFollower struct {
	Stub    FollowerStub
	Details ProfileDetails

	// ListErr makes the listing yield an *ItemError for this entry
	ListErr error
	// DetailErr makes Fetch fail for this account
	DetailErr error
}

// MemorySource is an in-memory ProfileSource and ProfileDetailSource. It backs
// tests and replays, and can inject faults per entry.
type MemorySource struct {
	mu        sync.Mutex
	targets   map[string][]MemoryFollower
	details   map[string]MemoryFollower
	counts    map[string]int
	following map[string]int
	fetches   map[string]int
	resolves  int

	// ResolveErrs are returned by successive Resolve calls before succeeding
	ResolveErrs []error
	// BreakAfter ends every follower listing with BreakErr after n entries
	// when greater than zero
	BreakAfter int
	BreakErr   error
}

// NewMemorySource creates an empty source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		targets:   make(map[string][]MemoryFollower),
		details:   make(map[string]MemoryFollower),
		counts:    make(map[string]int),
		following: make(map[string]int),
		fetches:   make(map[string]int),
	}
}

// AddTarget registers a target with its follower list. The reported follower
// count defaults to the list length.
func (m *MemorySource) AddTarget(username string, followers ...MemoryFollower) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.targets[username] = followers
	m.counts[username] = len(followers)
	for _, f := range followers {
		if f.Stub.Username != "" {
			m.details[f.Stub.Username] = f
		}
	}
	return m
}

// SetFollowerCount overrides the count reported by Resolve
func (m *MemorySource) SetFollowerCount(username string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[username] = n
}

// SetFollowingCount sets the following count reported by Resolve
func (m *MemorySource) SetFollowingCount(username string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.following[username] = n
}

// Resolve implements ProfileSource
func (m *MemorySource) Resolve(ctx context.Context, username string) (TargetProfile, error) {
	if err := ctx.Err(); err != nil {
		return TargetProfile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resolves < len(m.ResolveErrs) {
		err := m.ResolveErrs[m.resolves]
		m.resolves++
		return TargetProfile{}, err
	}
	m.resolves++

	if _, ok := m.targets[username]; !ok {
		return TargetProfile{}, fmt.Errorf("resolve %s: %w", username, ErrNotFound)
	}
	return TargetProfile{
		Username:       username,
		FollowerCount:  m.counts[username],
		FollowingCount: m.following[username],
	}, nil
}

// ResolveCalls returns how many times Resolve was called
func (m *MemorySource) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolves
}

// Followers implements ProfileSource
func (m *MemorySource) Followers(ctx context.Context, username string) (FollowerIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	followers, ok := m.targets[username]
	if !ok {
		return nil, fmt.Errorf("followers %s: %w", username, ErrNotFound)
	}

	list := make([]MemoryFollower, len(followers))
	copy(list, followers)
	return &memoryIterator{items: list, breakAfter: m.BreakAfter, breakErr: m.BreakErr}, nil
}

// Fetch implements ProfileDetailSource
func (m *MemorySource) Fetch(ctx context.Context, username string) (ProfileDetails, error) {
	if err := ctx.Err(); err != nil {
		return ProfileDetails{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches[username]++
	f, ok := m.details[username]
	if !ok {
		return ProfileDetails{}, fmt.Errorf("fetch %s: %w", username, ErrNotFound)
	}
	if f.DetailErr != nil {
		return ProfileDetails{}, f.DetailErr
	}
	return f.Details, nil
}

// FetchCalls returns how many detail lookups were made for username
func (m *MemorySource) FetchCalls(username string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[username]
}

type memoryIterator struct {
	items      []MemoryFollower
	pos        int
	breakAfter int
	breakErr   error
	closed     bool
}

func (it *memoryIterator) Next(ctx context.Context) (FollowerStub, error) {
	if err := ctx.Err(); err != nil {
		return FollowerStub{}, err
	}
	if it.closed {
		return FollowerStub{}, io.EOF
	}
	if it.breakAfter > 0 && it.pos >= it.breakAfter {
		if it.breakErr == nil {
			return FollowerStub{}, errConnectionLost
		}
		return FollowerStub{}, it.breakErr
	}
	if it.pos >= len(it.items) {
		return FollowerStub{}, io.EOF
	}

	item := it.items[it.pos]
	it.pos++
	if item.ListErr != nil {
		return FollowerStub{}, &ItemError{Username: item.Stub.Username, Err: item.ListErr}
	}
	return item.Stub, nil
}

func (it *memoryIterator) Close() error {
	it.closed = true
	return nil
}
