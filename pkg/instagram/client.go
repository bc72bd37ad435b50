package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"igaudit/pkg/config"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/logger"
	"igaudit/pkg/source"
)

var (
	errStatusNotFound = errors.New("resource not found")
	errStatusAuth     = errors.New("relay rejected credentials")
)

// StatusError carries an unexpected HTTP status from the relay
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned status %d", e.Code)
}

// Options configures a relay Client
type Options struct {
	BaseURL      string
	APIToken     string
	UserAgent    string
	Timeout      time.Duration
	PageSize     int
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// OptionsFromConfig derives client options from the source and retry sections
func OptionsFromConfig(src config.SourceConfig, rc config.RetryConfig) Options {
	return Options{
		BaseURL:      src.BaseURL,
		APIToken:     src.APIToken,
		UserAgent:    src.UserAgent,
		Timeout:      src.Timeout,
		PageSize:     src.PageSize,
		RetryMax:     max(rc.MaxAttempts-1, 0),
		RetryWaitMin: rc.BaseDelay,
		RetryWaitMax: rc.MaxDelay,
	}
}

// Client talks to a relay service that exposes profile and follower data as
// JSON. It implements source.ProfileSource and source.ProfileDetailSource.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	pageSize   int
	logger     logger.Logger
}

// NewClient creates a relay client. Connection errors, 429 and 5xx responses
// are retried by the transport with backoff.
func NewClient(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "igaudit/1.0"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = opts.RetryWaitMax
	}
	retryClient.Logger = retryablehttp.LeveledLogger(logger.RetryableHTTPLogger{Inner: log})
	httpClient := retryClient.StandardClient()
	httpClient.Timeout = opts.Timeout

	headers := map[string]string{
		"User-Agent": opts.UserAgent,
		"Accept":     "application/json",
	}
	if opts.APIToken != "" {
		headers["Authorization"] = "Bearer " + opts.APIToken
	}

	return &Client{
		httpClient: httpClient,
		headers:    headers,
		baseURL:    opts.BaseURL,
		pageSize:   opts.PageSize,
		logger:     log,
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, err
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// checkResponseStatus maps non-2xx statuses to errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errStatusNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("relay rejected credentials", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errStatusAuth
	default:
		return &StatusError{Code: resp.StatusCode}
	}
}

// Resolve implements source.ProfileSource
func (c *Client) Resolve(ctx context.Context, username string) (source.TargetProfile, error) {
	user, err := c.fetchUser(ctx, username)
	if err != nil {
		if errors.Is(err, errStatusNotFound) {
			return source.TargetProfile{}, fmt.Errorf("resolve %s: %w", username, source.ErrNotFound)
		}
		return source.TargetProfile{}, errs.UpstreamUnavailable("resolve", username, err)
	}

	return source.TargetProfile{
		Username:       user.Username,
		FollowerCount:  user.EdgeFollowedBy.Count,
		FollowingCount: user.EdgeFollow.Count,
	}, nil
}

// Fetch implements source.ProfileDetailSource
func (c *Client) Fetch(ctx context.Context, username string) (source.ProfileDetails, error) {
	user, err := c.fetchUser(ctx, username)
	if err != nil {
		return source.ProfileDetails{}, errs.ItemFetchFailed("detail", username, err)
	}

	return source.ProfileDetails{
		Biography:      user.Biography,
		PostCount:      user.EdgeMedia.Count,
		FollowerCount:  user.EdgeFollowedBy.Count,
		FollowingCount: user.EdgeFollow.Count,
		ExternalLink:   user.ExternalURL != "",
	}, nil
}

func (c *Client) fetchUser(ctx context.Context, username string) (*User, error) {
	var response ProfileResponse
	if err := c.getJSON(ctx, GetProfileURL(c.baseURL, username), &response); err != nil {
		return nil, err
	}
	if response.Data.User.Username == "" {
		response.Data.User.Username = username
	}
	return &response.Data.User, nil
}

// Followers implements source.ProfileSource. Pages are fetched lazily as the
// iterator advances.
func (c *Client) Followers(ctx context.Context, username string) (source.FollowerIterator, error) {
	return &followerIterator{client: c, username: username, hasNext: true}, nil
}

// FetchFollowersPage fetches a single page of followers
func (c *Client) FetchFollowersPage(ctx context.Context, username, after string) (*FollowerConnection, error) {
	c.logger.DebugWithFields("fetching follower page", map[string]interface{}{
		"username": username,
		"after":    after,
	})

	var response FollowersResponse
	if err := c.getJSON(ctx, GetFollowersURL(c.baseURL, username, after, c.pageSize), &response); err != nil {
		if errors.Is(err, errStatusNotFound) {
			return nil, fmt.Errorf("followers %s: %w", username, source.ErrNotFound)
		}
		return nil, errs.UpstreamUnavailable("followers", username, err)
	}
	return &response.Data.Followers, nil
}

type followerIterator struct {
	client   *Client
	username string
	page     []FollowerEdge
	cursor   string
	hasNext  bool
	closed   bool
}

func (it *followerIterator) Next(ctx context.Context) (source.FollowerStub, error) {
	if err := ctx.Err(); err != nil {
		return source.FollowerStub{}, err
	}

	for len(it.page) == 0 {
		if it.closed || !it.hasNext {
			return source.FollowerStub{}, io.EOF
		}

		conn, err := it.client.FetchFollowersPage(ctx, it.username, it.cursor)
		if err != nil {
			return source.FollowerStub{}, err
		}
		it.page = conn.Edges
		it.cursor = conn.PageInfo.EndCursor
		// A relay that claims more pages but hands out no cursor would loop forever.
		it.hasNext = conn.PageInfo.HasNextPage && conn.PageInfo.EndCursor != ""
	}

	edge := it.page[0]
	it.page = it.page[1:]

	if edge.Error != "" {
		return source.FollowerStub{}, &source.ItemError{
			Username: edge.Node.Username,
			Err:      errs.ItemFetchFailed("list", edge.Node.Username, errors.New(edge.Error)),
		}
	}

	node := edge.Node
	return source.FollowerStub{
		Username:      node.Username,
		FullName:      node.FullName,
		IsPrivate:     node.IsPrivate,
		HasProfilePic: node.ProfilePicURL != "" && !node.HasAnonymousProfilePicture,
		IsVerified:    node.IsVerified,
	}, nil
}

func (it *followerIterator) Close() error {
	it.closed = true
	it.page = nil
	return nil
}
