// Package instagram provides a client for a relay service exposing Instagram
// profile and follower data as JSON.
//
// The relay owns authentication and the platform's wire protocol; this client
// only speaks its small JSON contract:
//
//	GET /api/v1/profiles/{username}                         profile + counts
//	GET /api/v1/profiles/{username}/followers?first=N&after= follower page
//
// Transport retries for connection errors, 429 and 5xx responses come from
// go-retryablehttp. The Client satisfies source.ProfileSource and
// source.ProfileDetailSource.
//
// Example usage:
//
//	client := instagram.NewClient(instagram.OptionsFromConfig(cfg.Source, cfg.Retry), log)
//	profile, err := client.Resolve(ctx, "username")
//	if errors.Is(err, source.ErrNotFound) {
//	    // unknown account
//	}
package instagram
