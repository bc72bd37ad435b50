package models

// FollowerRecord is the raw metadata collected for one follower account.
// Extended fields keep their zero values when the detail lookup fails.
type FollowerRecord struct {
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	IsPrivate      bool   `json:"is_private"`
	HasProfilePic  bool   `json:"has_profile_pic"`
	IsVerified     bool   `json:"is_verified"`
	Biography      string `json:"biography"`
	PostCount      int    `json:"post_count"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	ExternalLink   bool   `json:"external_link"`
}

// DerivedFeatures are the signals computed from a FollowerRecord
type DerivedFeatures struct {
	FollowerRatio float64 `json:"follower_ratio"`
	ContentRatio  float64 `json:"content_ratio"`
	SpamUsername  bool    `json:"spam_username"`
	SuspiciousBio bool    `json:"suspicious_bio"`
}

// Classification is the discrete label assigned to a probability
type Classification string

const (
	LikelyReal Classification = "LikelyReal"
	Suspicious Classification = "Suspicious"
	LikelyFake Classification = "LikelyFake"
)

// Classifications lists every label in ascending order of severity
var Classifications = []Classification{LikelyReal, Suspicious, LikelyFake}

// Valid reports whether c is one of the known labels
func (c Classification) Valid() bool {
	switch c {
	case LikelyReal, Suspicious, LikelyFake:
		return true
	}
	return false
}

// ScoreResult is the outcome of scoring one follower
type ScoreResult struct {
	Username        string         `json:"username"`
	FakeProbability float64        `json:"fake_probability"`
	Classification  Classification `json:"classification"`
	// Reasons names the rules that contributed to the score
	Reasons []string `json:"reasons,omitempty"`
}

// ScoredFollower joins a record with its features and score. Order is the
// 0-based position of the record in collection order.
type ScoredFollower struct {
	Record   FollowerRecord  `json:"record"`
	Features DerivedFeatures `json:"features"`
	Score    ScoreResult     `json:"score"`
	Order    int             `json:"order"`
}
