// Package features derives the ratio and pattern signals that feed scoring.
package features

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/models"
)

var (
	longDigitRun   = regexp.MustCompile(`\d{4,}`)
	botKeyword     = regexp.MustCompile(`(?i)follow|flw|f4f|l4l|like4like|spam|_bot|\.bot|bot_`)
	shortPrefixNum = regexp.MustCompile(`(?i)^[a-z]{1,2}\d{4,}`)

	usernamePatterns = []*regexp.Regexp{longDigitRun, botKeyword, shortPrefixNum}
)

// SolicitationPhrases are matched against case-folded biographies
var SolicitationPhrases = []string{
	"follow for follow",
	"follow back",
	"f4f",
	"l4l",
	"dm for promo",
}

// Extract computes the derived features of rec. It only fails for malformed
// records.
func Extract(rec models.FollowerRecord) (models.DerivedFeatures, error) {
	if err := Validate(rec); err != nil {
		return models.DerivedFeatures{}, err
	}

	return models.DerivedFeatures{
		FollowerRatio: FollowerRatio(rec.FollowerCount, rec.FollowingCount),
		ContentRatio:  ContentRatio(rec.PostCount, rec.FollowerCount),
		SpamUsername:  IsSpamUsername(rec.Username),
		SuspiciousBio: IsSuspiciousBio(rec.Biography),
	}, nil
}

// Validate rejects records with a blank identity or negative counts
func Validate(rec models.FollowerRecord) error {
	if strings.TrimSpace(rec.Username) == "" {
		return errs.InvalidRecord(rec.Username, "empty username")
	}
	for name, v := range map[string]int{
		"post_count":      rec.PostCount,
		"follower_count":  rec.FollowerCount,
		"following_count": rec.FollowingCount,
	} {
		if v < 0 {
			return errs.InvalidRecord(rec.Username, fmt.Sprintf("negative %s %d", name, v))
		}
	}
	return nil
}

// FollowerRatio is followers / (following + 1). The +1 is smoothing so an
// account following nobody still yields a finite value; it is not a true ratio.
func FollowerRatio(followers, following int) float64 {
	return float64(followers) / float64(following+1)
}

// ContentRatio is posts / (followers + 1), smoothed the same way as FollowerRatio
func ContentRatio(posts, followers int) float64 {
	return float64(posts) / float64(followers+1)
}

// IsSpamUsername reports whether username looks machine-generated or
// follow-exchange oriented
func IsSpamUsername(username string) bool {
	for _, p := range usernamePatterns {
		if p.MatchString(username) {
			return true
		}
	}
	return false
}

// IsSuspiciousBio reports whether bio solicits follow exchanges. An empty bio
// is not suspicious.
func IsSuspiciousBio(bio string) bool {
	folded := Normalize(bio)
	if strings.TrimSpace(folded) == "" {
		return false
	}
	for _, phrase := range SolicitationPhrases {
		if strings.Contains(folded, phrase) {
			return true
		}
	}
	return false
}

// Normalize case-folds s for caseless comparison. Spacing and character
// forms are left alone, so "follow  back" does not match "follow back".
func Normalize(s string) string {
	// a Caser carries state, so one is built per call
	return cases.Fold().String(s)
}
