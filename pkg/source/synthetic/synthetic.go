// Package synthetic generates reproducible fake follower sets for demos and
// for exercising the pipeline without an upstream.
package synthetic

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"igaudit/pkg/source"
)

var spamBios = []string{
	"Follow for follow! f4f",
	"DM for promo 💰",
	"follow back guaranteed",
	"l4l always",
}

type account struct {
	stub    source.FollowerStub
	details source.ProfileDetails
}

// Source serves a generated follower set for any target name. The same seed
// and size always produce the same accounts.
type Source struct {
	accounts  []account
	byName    map[string]int
	following int
}

// New generates n followers from seed
func New(seed int64, n int) *Source {
	faker := gofakeit.New(seed)
	s := &Source{byName: make(map[string]int, n)}

	for i := 0; i < n; i++ {
		var a account
		if faker.Float64() < 0.3 {
			a = botAccount(faker)
		} else {
			a = personAccount(faker)
		}

		name := a.stub.Username
		for j := 2; ; j++ {
			if _, taken := s.byName[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", a.stub.Username, j)
		}
		a.stub.Username = name

		s.byName[name] = len(s.accounts)
		s.accounts = append(s.accounts, a)
	}
	s.following = faker.Number(50, 1500)
	return s
}

func personAccount(f *gofakeit.Faker) account {
	posts := f.Number(0, 300)
	followers := f.Number(10, 3000)
	if f.Float64() < 0.05 {
		followers = f.Number(10001, 250000)
	}

	bio := ""
	if f.Float64() < 0.7 {
		bio = f.Sentence(f.Number(3, 10))
	}

	return account{
		stub: source.FollowerStub{
			Username:      strings.ToLower(f.Username()),
			FullName:      f.Name(),
			IsPrivate:     f.Float64() < 0.4,
			HasProfilePic: f.Float64() < 0.9,
			IsVerified:    f.Float64() < 0.02,
		},
		details: source.ProfileDetails{
			Biography:      bio,
			PostCount:      posts,
			FollowerCount:  followers,
			FollowingCount: f.Number(0, 1500),
			ExternalLink:   f.Float64() < 0.2,
		},
	}
}

func botAccount(f *gofakeit.Faker) account {
	var username string
	switch f.Number(0, 2) {
	case 0:
		username = fmt.Sprintf("%s%d", f.LetterN(2), f.Number(1000, 99999))
	case 1:
		username = fmt.Sprintf("%s_bot", strings.ToLower(f.FirstName()))
	default:
		username = fmt.Sprintf("f4f_%s", strings.ToLower(f.Noun()))
	}

	bio := ""
	if f.Float64() < 0.5 {
		bio = spamBios[f.Number(0, len(spamBios)-1)]
	}

	fullName := ""
	if f.Float64() < 0.3 {
		fullName = f.FirstName()
	}

	return account{
		stub: source.FollowerStub{
			Username:      strings.ToLower(username),
			FullName:      fullName,
			HasProfilePic: f.Float64() < 0.2,
		},
		details: source.ProfileDetails{
			Biography:      bio,
			PostCount:      f.Number(0, 2),
			FollowerCount:  f.Number(0, 20),
			FollowingCount: f.Number(500, 7500),
		},
	}
}

// Len returns the number of generated followers
func (s *Source) Len() int {
	return len(s.accounts)
}

// Resolve accepts any target name
func (s *Source) Resolve(ctx context.Context, username string) (source.TargetProfile, error) {
	if err := ctx.Err(); err != nil {
		return source.TargetProfile{}, err
	}
	return source.TargetProfile{
		Username:       username,
		FollowerCount:  len(s.accounts),
		FollowingCount: s.following,
	}, nil
}

// Followers iterates the generated accounts in generation order
func (s *Source) Followers(ctx context.Context, username string) (source.FollowerIterator, error) {
	return &iterator{src: s}, nil
}

// Fetch returns the generated details for username
func (s *Source) Fetch(ctx context.Context, username string) (source.ProfileDetails, error) {
	if err := ctx.Err(); err != nil {
		return source.ProfileDetails{}, err
	}
	i, ok := s.byName[username]
	if !ok {
		return source.ProfileDetails{}, fmt.Errorf("fetch %s: %w", username, source.ErrNotFound)
	}
	return s.accounts[i].details, nil
}

type iterator struct {
	src *Source
	pos int
}

func (it *iterator) Next(ctx context.Context) (source.FollowerStub, error) {
	if err := ctx.Err(); err != nil {
		return source.FollowerStub{}, err
	}
	if it.pos >= len(it.src.accounts) {
		return source.FollowerStub{}, io.EOF
	}
	stub := it.src.accounts[it.pos].stub
	it.pos++
	return stub, nil
}

func (it *iterator) Close() error { return nil }
