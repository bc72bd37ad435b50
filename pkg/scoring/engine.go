// Package scoring turns a follower's record and derived features into a fake
// probability and a label.
package scoring

import (
	"fmt"
	"strings"

	"igaudit/pkg/models"
)

// Engine applies a RuleSet and Thresholds. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	rules      RuleSet
	thresholds Thresholds
	maxScore   int
}

// NewEngine validates rules and thresholds and returns an engine
func NewEngine(rules RuleSet, thresholds Thresholds) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		rules:      rules,
		thresholds: thresholds,
		maxScore:   rules.MaxScore(),
	}, nil
}

// NewDefaultEngine returns an engine with the standard rules and thresholds
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultRuleSet(), DefaultThresholds())
	if err != nil {
		panic(err)
	}
	return e
}

// Rules returns the engine's rule set
func (e *Engine) Rules() RuleSet { return e.rules }

// Thresholds returns the engine's classification thresholds
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// RawScore runs the additive pass and both overrides, returning the integer
// score and the rules that fired.
func (e *Engine) RawScore(rec models.FollowerRecord, feat models.DerivedFeatures) (int, []string) {
	r := e.rules
	w := r.Weights
	score := 0
	var reasons []string

	add := func(weight int, reason string) {
		score += weight
		reasons = append(reasons, reason)
	}

	if feat.FollowerRatio < r.LowFollowerRatio {
		add(w.LowFollowerRatio, ReasonLowFollowerRatio)
	} else if feat.FollowerRatio > r.HighFollowerRatio {
		add(w.HighFollowerRatio, ReasonHighFollowerRatio)
	}

	if !rec.HasProfilePic {
		add(w.NoProfilePic, ReasonNoProfilePic)
	}

	if rec.PostCount == 0 {
		add(w.NoPosts, ReasonNoPosts)
	} else if rec.PostCount <= r.FewPostsMax {
		add(w.FewPosts, ReasonFewPosts)
	}

	if feat.SpamUsername {
		add(w.SpamUsername, ReasonSpamUsername)
	}
	if feat.SuspiciousBio {
		add(w.SuspiciousBio, ReasonSuspiciousBio)
	}
	if strings.TrimSpace(rec.Biography) == "" {
		add(w.EmptyBio, ReasonEmptyBio)
	}
	if strings.TrimSpace(rec.FullName) == "" {
		add(w.EmptyFullName, ReasonEmptyFullName)
	}

	// Verification wins over everything, including the engagement discount.
	if rec.IsVerified {
		return 0, []string{ReasonVerified}
	}

	if rec.FollowerCount > r.HighEngagementFollowers && rec.PostCount > r.HighEngagementPosts {
		score = max(0, score-r.HighEngagementDiscount)
		reasons = append(reasons, ReasonHighEngagement)
	}

	return score, reasons
}

// Score returns the fake probability in [0,100]
func (e *Engine) Score(rec models.FollowerRecord, feat models.DerivedFeatures) float64 {
	raw, _ := e.RawScore(rec, feat)
	return e.normalize(raw)
}

func (e *Engine) normalize(raw int) float64 {
	if e.maxScore <= 0 || raw <= 0 {
		return 0
	}
	return min(100, float64(raw)/float64(e.maxScore)*100)
}

// Classify maps a probability to a label using the engine's thresholds
func (e *Engine) Classify(p float64) models.Classification {
	return e.thresholds.Classify(p)
}

// Evaluate scores and classifies one follower
func (e *Engine) Evaluate(rec models.FollowerRecord, feat models.DerivedFeatures) models.ScoreResult {
	raw, reasons := e.RawScore(rec, feat)
	p := e.normalize(raw)
	return models.ScoreResult{
		Username:        rec.Username,
		FakeProbability: p,
		Classification:  e.thresholds.Classify(p),
		Reasons:         reasons,
	}
}
