package instagram

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is where a locally running relay listens
	DefaultBaseURL = "http://127.0.0.1:8089"

	// ProfileEndpoint is the endpoint pattern for profile lookups
	ProfileEndpoint = "/api/v1/profiles/%s"

	// FollowersEndpoint is the endpoint pattern for follower pages
	FollowersEndpoint = "/api/v1/profiles/%s/followers"

	// DefaultPageSize is the default number of followers requested per page
	DefaultPageSize = 50

	// MaxPageSize is the largest page the relay accepts
	MaxPageSize = 200
)

// GetProfileURL constructs the URL for fetching a user's profile
func GetProfileURL(baseURL, username string) string {
	return strings.TrimRight(baseURL, "/") + fmt.Sprintf(ProfileEndpoint, url.PathEscape(username))
}

// GetFollowersURL constructs the URL for one page of a user's followers
func GetFollowersURL(baseURL, username, after string, limit int) string {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("first", strconv.Itoa(limit))
	if after != "" {
		params.Set("after", after)
	}

	return strings.TrimRight(baseURL, "/") +
		fmt.Sprintf(FollowersEndpoint, url.PathEscape(username)) + "?" + params.Encode()
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @ and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
