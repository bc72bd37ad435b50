package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"igaudit/pkg/checkpoint"
	"igaudit/pkg/config"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/logger"
	"igaudit/pkg/metrics"
	"igaudit/pkg/models"
	"igaudit/pkg/ratelimit"
	"igaudit/pkg/retry"
	"igaudit/pkg/source"
)

// ErrRunDeclined is returned when a large run was not confirmed
var ErrRunDeclined = errors.New("collection declined: target exceeds the large-run threshold")

// ConfirmFunc is asked before collecting an uncapped target whose follower
// count exceeds the large-run threshold
type ConfirmFunc func(target string, followerCount int) bool

// ProgressFunc is called after every committed record. total is the number
// of followers expected for this run, or 0 when unknown.
type ProgressFunc func(collected, total int)

// Options configures a Collector
type Options struct {
	// LargeRunThreshold above which uncapped runs need confirmation; 0 disables
	LargeRunThreshold int
	AssumeYes         bool
	// CheckpointDir receives the raw CSV and its manifest. Empty selects the
	// per-user data directory.
	CheckpointDir string

	Confirm  ConfirmFunc
	Progress ProgressFunc
	// Resolved is called once the target is known, before confirmation
	Resolved func(profile source.TargetProfile)

	Pacer ratelimit.Pacer
	Retry *retry.Config
}

// OptionsFromConfig maps the collector, pacing and retry sections onto
// Options. Confirm and Progress are left for the caller.
func OptionsFromConfig(cfg *config.Config, log logger.Logger) Options {
	return Options{
		LargeRunThreshold: cfg.Collector.LargeRunThreshold,
		AssumeYes:         cfg.Collector.AssumeYes,
		CheckpointDir:     cfg.Collector.CheckpointDir,
		Pacer:             ratelimit.FromConfig(cfg.Pacing),
		Retry:             retry.FromConfig(cfg.Retry, log),
	}
}

// Collector gathers follower records for a target, one account at a time
type Collector struct {
	profiles source.ProfileSource
	details  source.ProfileDetailSource
	opts     Options
	logger   logger.Logger
}

// New creates a Collector. A nil pacer falls back to the default 1s-3s
// random delay.
func New(profiles source.ProfileSource, details source.ProfileDetailSource, opts Options, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Pacer == nil {
		opts.Pacer = ratelimit.FromConfig(config.DefaultConfig().Pacing)
	}
	if opts.Retry == nil {
		opts.Retry = retry.FromConfig(config.DefaultConfig().Retry, log)
	}
	return &Collector{
		profiles: profiles,
		details:  details,
		opts:     opts,
		logger:   log.WithField("component", "collector"),
	}
}

// session is the run-scoped state of one Collect call
type session struct {
	target   string
	limit    int
	total    int
	seen     map[string]bool
	cp       *checkpoint.Writer
	outcome  *Outcome
	needPace bool
}

// Collect resolves target and collects up to limit follower records; limit
// <= 0 means all of them.
//
// When the follower sequence breaks after at least one record was committed,
// the partial outcome is returned together with the error.
func (c *Collector) Collect(ctx context.Context, target string, limit int) (*Outcome, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errs.TargetNotFound(target, errors.New("empty username"))
	}
	log := c.logger.WithField("target", target)

	profile, err := c.resolve(ctx, target)
	if err != nil {
		log.WithError(err).Error("Target resolution failed")
		return nil, err
	}
	if c.opts.Resolved != nil {
		c.opts.Resolved(profile)
	}

	if err := c.confirm(target, profile.FollowerCount, limit); err != nil {
		log.WithField("follower_count", profile.FollowerCount).Warn("Large run declined")
		metrics.Runs.WithLabelValues("declined").Inc()
		return nil, err
	}

	cp, err := checkpoint.Create(c.opts.CheckpointDir, target, profile.FollowerCount, limit, c.logger)
	if err != nil {
		return nil, errs.ExportFailed("checkpoint", err)
	}

	s := &session{
		target: target,
		limit:  limit,
		total:  profile.FollowerCount,
		seen:   make(map[string]bool),
		cp:     cp,
		outcome: &Outcome{
			Target:         target,
			FollowerCount:  profile.FollowerCount,
			FollowingCount: profile.FollowingCount,
			CheckpointPath: cp.Path(),
			Started:        time.Now(),
		},
	}
	if limit > 0 && (s.total <= 0 || limit < s.total) {
		s.total = limit
	}

	logger.LogComponentStart(c.logger, "collector", map[string]interface{}{
		"target":          target,
		"follower_count":  profile.FollowerCount,
		"following_count": profile.FollowingCount,
		"limit":           limit,
		"checkpoint":      cp.Path(),
	})

	runErr := c.run(ctx, s)
	return c.finish(s, runErr)
}

// resolve looks the target up, retrying transient failures
func (c *Collector) resolve(ctx context.Context, target string) (source.TargetProfile, error) {
	return retry.DoWithResult(func() (source.TargetProfile, error) {
		p, err := c.profiles.Resolve(ctx, target)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, source.ErrNotFound):
			return p, errs.TargetNotFound(target, err)
		case errs.TypeOf(err) != "":
			return p, err
		case ctx.Err() != nil:
			return p, ctx.Err()
		default:
			return p, errs.UpstreamUnavailable("resolve", target, err)
		}
	}, c.opts.Retry.WithContext(ctx))
}

func (c *Collector) confirm(target string, followerCount, limit int) error {
	if limit > 0 || c.opts.AssumeYes {
		return nil
	}
	if c.opts.LargeRunThreshold <= 0 || followerCount <= c.opts.LargeRunThreshold {
		return nil
	}
	if c.opts.Confirm == nil || !c.opts.Confirm(target, followerCount) {
		return ErrRunDeclined
	}
	return nil
}

// run walks the follower sequence until it ends, the limit is reached or a
// non item-scoped failure occurs
func (c *Collector) run(ctx context.Context, s *session) error {
	it, err := c.profiles.Followers(ctx, s.target)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.UpstreamUnavailable("followers", s.target, err)
	}
	defer it.Close()

	for s.limit <= 0 || len(s.outcome.Records) < s.limit {
		stub, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if source.IsItemError(err) {
				c.itemFailed(s, err)
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errs.UpstreamUnavailable("followers", s.target, err)
		}

		if stub.Username == "" {
			c.itemFailed(s, &source.ItemError{Err: errors.New("entry without username")})
			continue
		}
		if s.seen[stub.Username] {
			c.logger.DebugWithFields("Skipping duplicate follower", map[string]interface{}{
				"username": stub.Username,
			})
			metrics.FollowersProcessed.WithLabelValues(metrics.ItemDuplicate).Inc()
			continue
		}
		s.seen[stub.Username] = true

		if s.needPace {
			d, err := c.opts.Pacer.Wait(ctx)
			if err != nil {
				return err
			}
			metrics.ObservePacing(d)
			s.needPace = false
		}

		rec, item, err := c.assemble(ctx, stub)
		if err != nil {
			return err
		}
		if err := s.cp.Append(rec); err != nil {
			return errs.ExportFailed("checkpoint", err)
		}

		s.outcome.Records = append(s.outcome.Records, rec)
		s.outcome.Items = append(s.outcome.Items, item)
		s.needPace = true
		metrics.FollowersProcessed.WithLabelValues(metrics.ItemCollected).Inc()

		collected := len(s.outcome.Records)
		logger.LogCollectProgress(c.logger, s.target, collected, s.total)
		if c.opts.Progress != nil {
			c.opts.Progress(collected, s.total)
		}
	}
	return nil
}

// assemble builds a record from the listing entry and enriches it with the
// detail lookup when that succeeds. It only fails when ctx ends during the
// lookup; the record is then not committed.
func (c *Collector) assemble(ctx context.Context, stub source.FollowerStub) (models.FollowerRecord, ItemResult, error) {
	rec := models.FollowerRecord{
		Username:      stub.Username,
		FullName:      stub.FullName,
		IsPrivate:     stub.IsPrivate,
		HasProfilePic: stub.HasProfilePic,
		IsVerified:    stub.IsVerified,
	}
	item := ItemResult{Username: stub.Username, Collected: true}

	if c.details == nil {
		return rec, item, nil
	}

	d, err := c.details.Fetch(ctx, stub.Username)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rec, item, ctxErr
		}
		if errs.TypeOf(err) == "" {
			err = errs.ItemFetchFailed("detail", stub.Username, err)
		}
		item.Err = err
		logger.LogItemFailure(c.logger, stub.Username, "detail", err)
		metrics.EnrichmentFailures.Inc()
		return rec, item, nil
	}

	rec.Biography = d.Biography
	rec.PostCount = max(d.PostCount, 0)
	rec.FollowerCount = max(d.FollowerCount, 0)
	rec.FollowingCount = max(d.FollowingCount, 0)
	rec.ExternalLink = d.ExternalLink
	item.Enriched = true
	return rec, item, nil
}

func (c *Collector) itemFailed(s *session, err error) {
	var ie *source.ItemError
	username := ""
	if errors.As(err, &ie) {
		username = ie.Username
	}
	if errs.TypeOf(err) == "" {
		err = errs.ItemFetchFailed("list", username, err)
	}

	logger.LogItemFailure(c.logger, username, "list", err)
	s.cp.RecordFailure()
	s.outcome.Items = append(s.outcome.Items, ItemResult{Username: username, Err: err})
	metrics.FollowersProcessed.WithLabelValues(metrics.ItemFailed).Inc()
}

// finish closes the checkpoint with the status the run ended in
func (c *Collector) finish(s *session, runErr error) (*Outcome, error) {
	o := s.outcome
	o.Finished = time.Now()

	status := checkpoint.StatusComplete
	switch {
	case runErr != nil && len(o.Records) > 0:
		status = checkpoint.StatusPartial
		o.Partial = true
	case runErr != nil:
		status = checkpoint.StatusFailed
	}

	if err := s.cp.Finish(status, runErr); err != nil {
		c.logger.WithError(err).Warn("Failed to finalize checkpoint")
	}
	metrics.Runs.WithLabelValues(string(status)).Inc()
	logger.LogRunResult(c.logger, s.target, len(o.Records), len(o.Failed()), o.Partial)

	if runErr == nil {
		return o, nil
	}

	wrapped := fmt.Errorf("collection of %s interrupted after %d records: %w", s.target, len(o.Records), runErr)
	if !o.Partial {
		return nil, wrapped
	}
	return o, wrapped
}
