// Package retry provides bounded retry with exponential backoff.
//
// It is used for target resolution, where a transient upstream failure should
// not end a run before it starts. Typed errors from pkg/errors decide whether
// a failure is retried: only upstream_unavailable is.
//
// Basic usage:
//
//	cfg := retry.FromConfig(appCfg.Retry, log).WithContext(ctx)
//	profile, err := retry.DoWithResult(func() (source.TargetProfile, error) {
//		return src.Resolve(ctx, target)
//	}, cfg)
package retry
