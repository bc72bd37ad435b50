package instagram

// ProfileResponse is the relay response for a profile lookup. The user shape
// mirrors the web_profile_info payload so the relay can pass it through.
type ProfileResponse struct {
	Status string      `json:"status"`
	Data   ProfileData `json:"data"`
}

// ProfileData wraps the user information in the response
type ProfileData struct {
	User User `json:"user"`
}

// User represents a profile as returned by the relay
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Biography      string `json:"biography"`
	ExternalURL    string `json:"external_url"`
	IsPrivate      bool   `json:"is_private"`
	IsVerified     bool   `json:"is_verified"`
	ProfilePicURL  string `json:"profile_pic_url"`
	EdgeFollowedBy Count  `json:"edge_followed_by"`
	EdgeFollow     Count  `json:"edge_follow"`
	EdgeMedia      Count  `json:"edge_owner_to_timeline_media"`
}

// Count wraps an edge count
type Count struct {
	Count int `json:"count"`
}

// FollowersResponse is one page of a follower listing
type FollowersResponse struct {
	Status string        `json:"status"`
	Data   FollowersData `json:"data"`
}

// FollowersData wraps the follower connection
type FollowersData struct {
	Followers FollowerConnection `json:"followers"`
}

// FollowerConnection holds a page of follower edges
type FollowerConnection struct {
	Count    int            `json:"count"`
	PageInfo PageInfo       `json:"page_info"`
	Edges    []FollowerEdge `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// FollowerEdge is one follower entry. Error is set when the relay could not
// read this entry; the rest of the page is still valid.
type FollowerEdge struct {
	Node  FollowerNode `json:"node"`
	Error string       `json:"error,omitempty"`
}

// FollowerNode holds the attributes exposed by the follower listing
type FollowerNode struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	IsPrivate     bool   `json:"is_private"`
	IsVerified    bool   `json:"is_verified"`
	ProfilePicURL string `json:"profile_pic_url"`
	// HasAnonymousProfilePicture is true for the default avatar
	HasAnonymousProfilePicture bool `json:"has_anonymous_profile_picture"`
}
