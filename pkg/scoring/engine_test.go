package scoring

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igaudit/pkg/config"
	"igaudit/pkg/features"
	"igaudit/pkg/models"
)

func workedExample() models.FollowerRecord {
	return models.FollowerRecord{
		Username:       "bot1234",
		FollowerCount:  1000,
		FollowingCount: 5,
		HasProfilePic:  false,
		PostCount:      0,
		Biography:      "",
		FullName:       "Bot Account",
	}
}

func evaluate(t *testing.T, e *Engine, rec models.FollowerRecord) models.ScoreResult {
	t.Helper()
	feat, err := features.Extract(rec)
	require.NoError(t, err)
	return e.Evaluate(rec, feat)
}

func randomRecord(r *rand.Rand) models.FollowerRecord {
	bios := []string{"", " ", "follow back", "coffee", "DM for promo", "f4f l4l"}
	names := []string{"", "Ana", "bot_99999", "x1234", "maria.s", "follow4follow"}
	return models.FollowerRecord{
		Username:       names[r.IntN(len(names)-1)+1],
		FullName:       names[r.IntN(len(names))],
		IsPrivate:      r.IntN(2) == 0,
		HasProfilePic:  r.IntN(2) == 0,
		IsVerified:     r.IntN(4) == 0,
		Biography:      bios[r.IntN(len(bios))],
		PostCount:      r.IntN(60),
		FollowerCount:  r.IntN(50000),
		FollowingCount: r.IntN(8000),
		ExternalLink:   r.IntN(2) == 0,
	}
}

func TestDefaultMaxScore(t *testing.T) {
	assert.Equal(t, 14, DefaultRuleSet().MaxScore())
}

func TestMaxScoreTracksWeights(t *testing.T) {
	rules := DefaultRuleSet()
	rules.Weights.FewPosts = 5
	rules.Weights.HighFollowerRatio = 4
	// max(3,4) + 2 + max(3,5) + 2 + 2 + 1 + 1
	assert.Equal(t, 17, rules.MaxScore())
}

func TestWorkedExample(t *testing.T) {
	e := NewDefaultEngine()
	rec := workedExample()
	rec.FullName = ""

	// ratio 166.67 (+2), no pic (+2), no posts (+3), spam username (+2),
	// empty bio (+1), empty name (+1) = 11
	raw, _ := e.RawScore(rec, mustExtract(t, rec))
	assert.Equal(t, 11, raw)

	rec.FullName = "Bot Account"
	res := evaluate(t, e, rec)
	assert.InDelta(t, 71.43, res.FakeProbability, 0.01)
	assert.Equal(t, models.LikelyFake, res.Classification)
	assert.Equal(t, []string{
		ReasonHighFollowerRatio,
		ReasonNoProfilePic,
		ReasonNoPosts,
		ReasonSpamUsername,
		ReasonEmptyBio,
	}, res.Reasons)
}

func TestWorkedExampleVerified(t *testing.T) {
	rec := workedExample()
	rec.IsVerified = true

	res := evaluate(t, NewDefaultEngine(), rec)
	assert.Equal(t, 0.0, res.FakeProbability)
	assert.Equal(t, models.LikelyReal, res.Classification)
	assert.Equal(t, []string{ReasonVerified}, res.Reasons)
}

func TestZeroCountsHitLowRatioRule(t *testing.T) {
	rec := models.FollowerRecord{
		Username:      "plainname",
		FullName:      "Plain Name",
		HasProfilePic: true,
		Biography:     "hello",
		PostCount:     10,
	}

	raw, reasons := NewDefaultEngine().RawScore(rec, mustExtract(t, rec))
	assert.Equal(t, 3, raw)
	assert.Equal(t, []string{ReasonLowFollowerRatio}, reasons)
}

func TestPostRulesAreMutuallyExclusive(t *testing.T) {
	e := NewDefaultEngine()
	base := models.FollowerRecord{
		Username:       "plainname",
		FullName:       "Plain",
		HasProfilePic:  true,
		Biography:      "hi",
		FollowerCount:  100,
		FollowingCount: 100,
	}

	tests := []struct {
		posts int
		raw   int
	}{
		{0, 3},
		{1, 1},
		{2, 1},
		{3, 0},
	}

	for _, tt := range tests {
		rec := base
		rec.PostCount = tt.posts
		raw, _ := e.RawScore(rec, mustExtract(t, rec))
		assert.Equal(t, tt.raw, raw, "posts=%d", tt.posts)
	}
}

func TestHighEngagementDiscount(t *testing.T) {
	e := NewDefaultEngine()
	rec := models.FollowerRecord{
		Username:       "bigaccount",
		FollowerCount:  20000,
		FollowingCount: 10,
		PostCount:      31,
		HasProfilePic:  true,
	}

	// high ratio (+2), empty bio (+1), empty name (+1) = 4, minus 2
	raw, reasons := e.RawScore(rec, mustExtract(t, rec))
	assert.Equal(t, 2, raw)
	assert.Contains(t, reasons, ReasonHighEngagement)

	rec.Biography = "photographer"
	rec.FullName = "Big Account"
	rec.FollowingCount = 1000
	raw, _ = e.RawScore(rec, mustExtract(t, rec))
	assert.Equal(t, 0, raw, "discount floors at zero")
}

func TestHighEngagementNeedsBothConditions(t *testing.T) {
	e := NewDefaultEngine()
	rec := models.FollowerRecord{Username: "x", FollowerCount: 10001, FollowingCount: 10000, PostCount: 30, HasProfilePic: true}
	_, reasons := e.RawScore(rec, mustExtract(t, rec))
	assert.NotContains(t, reasons, ReasonHighEngagement)
}

func TestVerifiedAlwaysScoresZero(t *testing.T) {
	e := NewDefaultEngine()
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		rec := randomRecord(r)
		rec.IsVerified = true
		assert.Equal(t, 0.0, e.Score(rec, mustExtract(t, rec)))
	}
}

func TestScoreBounded(t *testing.T) {
	e := NewDefaultEngine()
	r := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 1000; i++ {
		rec := randomRecord(r)
		p := e.Score(rec, mustExtract(t, rec))
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
	}
}

func TestMaximumScoreReachesHundred(t *testing.T) {
	rec := models.FollowerRecord{
		Username:       "ab12345",
		Biography:      "   ",
		FollowingCount: 7000,
	}
	feat := mustExtract(t, rec)
	feat.SuspiciousBio = true

	assert.Equal(t, 100.0, NewDefaultEngine().Score(rec, feat))
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := NewDefaultEngine()
	r := rand.New(rand.NewPCG(5, 6))

	for i := 0; i < 200; i++ {
		rec := randomRecord(r)
		feat := mustExtract(t, rec)
		assert.Equal(t, e.Evaluate(rec, feat), e.Evaluate(rec, feat))
	}
}

func TestNewEngineRejectsInvalidInput(t *testing.T) {
	rules := DefaultRuleSet()
	rules.Weights.SpamUsername = -1
	_, err := NewEngine(rules, DefaultThresholds())
	assert.Error(t, err)

	_, err = NewEngine(DefaultRuleSet(), Thresholds{Suspicious: 70, Fake: 60})
	assert.Error(t, err)
}

func TestZeroWeightsScoreZero(t *testing.T) {
	e, err := NewEngine(RuleSet{LowFollowerRatio: 0.01, HighFollowerRatio: 50, FewPostsMax: 2}, DefaultThresholds())
	require.NoError(t, err)
	rec := workedExample()
	assert.Equal(t, 0.0, e.Score(rec, mustExtract(t, rec)))
}

func TestFromConfigMatchesDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, DefaultRuleSet(), RuleSetFromConfig(cfg.Scoring))
	assert.Equal(t, DefaultThresholds(), ThresholdsFromConfig(cfg.Scoring))
}

func mustExtract(t *testing.T, rec models.FollowerRecord) models.DerivedFeatures {
	t.Helper()
	feat, err := features.Extract(rec)
	require.NoError(t, err)
	return feat
}
