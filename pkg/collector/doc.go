// Package collector drives a follower collection run.
//
// A run resolves the target, asks for confirmation when the target is large
// and no limit was given, then walks the follower sequence one account at a
// time. Each account is enriched with a detail lookup, committed to a raw
// checkpoint CSV (written and fsynced before the next account is attempted)
// and appended to the in-memory result.
//
// Failures are isolated per account. An entry the listing could not deliver
// is skipped and reported in Outcome.Items; a failed detail lookup keeps the
// record with default extended fields. Only a broken sequence or a cancelled
// context end the run early, in which case the records committed so far are
// returned with Outcome.Partial set.
//
// A randomized pacing delay separates consecutive successful accounts.
//
// Usage:
//
//	c := collector.New(src, src, collector.OptionsFromConfig(cfg, log), log)
//	outcome, err := c.Collect(ctx, "someone", 0)
//	if err != nil && (outcome == nil || !outcome.Partial) {
//	    return err
//	}
package collector
