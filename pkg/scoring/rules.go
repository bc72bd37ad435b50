package scoring

import (
	"errors"
	"fmt"

	"igaudit/pkg/config"
)

// Rule names reported in ScoreResult.Reasons
const (
	ReasonLowFollowerRatio  = "low_follower_ratio"
	ReasonHighFollowerRatio = "high_follower_ratio"
	ReasonNoProfilePic      = "no_profile_pic"
	ReasonNoPosts           = "no_posts"
	ReasonFewPosts          = "few_posts"
	ReasonSpamUsername      = "spam_username"
	ReasonSuspiciousBio     = "suspicious_bio"
	ReasonEmptyBio          = "empty_bio"
	ReasonEmptyFullName     = "empty_full_name"
	ReasonVerified          = "verified"
	ReasonHighEngagement    = "high_engagement"
)

// Weights is the additive contribution of each rule
type Weights struct {
	LowFollowerRatio  int
	HighFollowerRatio int
	NoProfilePic      int
	NoPosts           int
	FewPosts          int
	SpamUsername      int
	SuspiciousBio     int
	EmptyBio          int
	EmptyFullName     int
}

// RuleSet is the immutable heuristic table used by an Engine.
//
// The two follower-ratio rules are mutually exclusive, as are the no-posts
// and few-posts rules.
type RuleSet struct {
	LowFollowerRatio  float64
	HighFollowerRatio float64
	// FewPostsMax is the largest post count still considered "few"
	FewPostsMax int

	Weights Weights

	HighEngagementFollowers int
	HighEngagementPosts     int
	HighEngagementDiscount  int
}

// DefaultRuleSet returns the standard heuristic table
func DefaultRuleSet() RuleSet {
	return RuleSet{
		LowFollowerRatio:  0.01,
		HighFollowerRatio: 50,
		FewPostsMax:       2,
		Weights: Weights{
			LowFollowerRatio:  3,
			HighFollowerRatio: 2,
			NoProfilePic:      2,
			NoPosts:           3,
			FewPosts:          1,
			SpamUsername:      2,
			SuspiciousBio:     2,
			EmptyBio:          1,
			EmptyFullName:     1,
		},
		HighEngagementFollowers: 10000,
		HighEngagementPosts:     30,
		HighEngagementDiscount:  2,
	}
}

// RuleSetFromConfig builds a rule set from the scoring section
func RuleSetFromConfig(cfg config.ScoringConfig) RuleSet {
	w := cfg.Weights
	return RuleSet{
		LowFollowerRatio:  cfg.LowFollowerRatio,
		HighFollowerRatio: cfg.HighFollowerRatio,
		FewPostsMax:       DefaultRuleSet().FewPostsMax,
		Weights: Weights{
			LowFollowerRatio:  w.LowFollowerRatio,
			HighFollowerRatio: w.HighFollowerRatio,
			NoProfilePic:      w.NoProfilePic,
			NoPosts:           w.NoPosts,
			FewPosts:          w.FewPosts,
			SpamUsername:      w.SpamUsername,
			SuspiciousBio:     w.SuspiciousBio,
			EmptyBio:          w.EmptyBio,
			EmptyFullName:     w.EmptyFullName,
		},
		HighEngagementFollowers: cfg.HighEngagementFollowers,
		HighEngagementPosts:     cfg.HighEngagementPosts,
		HighEngagementDiscount:  cfg.HighEngagementDiscount,
	}
}

// MaxScore is the largest raw score the rule set can produce: the heavier
// rule of each mutually exclusive pair plus every independent rule. It is the
// normalization constant for probabilities and changes with the weights.
func (r RuleSet) MaxScore() int {
	w := r.Weights
	return max(w.LowFollowerRatio, w.HighFollowerRatio) +
		w.NoProfilePic +
		max(w.NoPosts, w.FewPosts) +
		w.SpamUsername +
		w.SuspiciousBio +
		w.EmptyBio +
		w.EmptyFullName
}

// Validate checks the rule set for negative weights and inverted bounds
func (r RuleSet) Validate() error {
	var errs []error

	if r.LowFollowerRatio < 0 || r.HighFollowerRatio <= r.LowFollowerRatio {
		errs = append(errs, errors.New("follower ratio bounds must satisfy 0 <= low < high"))
	}
	if r.FewPostsMax < 1 {
		errs = append(errs, errors.New("few posts maximum must be at least 1"))
	}
	w := r.Weights
	for name, v := range map[string]int{
		ReasonLowFollowerRatio:  w.LowFollowerRatio,
		ReasonHighFollowerRatio: w.HighFollowerRatio,
		ReasonNoProfilePic:      w.NoProfilePic,
		ReasonNoPosts:           w.NoPosts,
		ReasonFewPosts:          w.FewPosts,
		ReasonSpamUsername:      w.SpamUsername,
		ReasonSuspiciousBio:     w.SuspiciousBio,
		ReasonEmptyBio:          w.EmptyBio,
		ReasonEmptyFullName:     w.EmptyFullName,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("weight %s cannot be negative", name))
		}
	}
	if r.HighEngagementDiscount < 0 {
		errs = append(errs, errors.New("high engagement discount cannot be negative"))
	}

	return errors.Join(errs...)
}
