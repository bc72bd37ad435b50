// Package analysis turns collected follower records into scored results.
package analysis

import (
	"errors"

	"igaudit/pkg/features"
	"igaudit/pkg/logger"
	"igaudit/pkg/models"
	"igaudit/pkg/scoring"
)

// Rejected is a record that failed feature extraction
type Rejected struct {
	Order    int
	Username string
	Err      error
}

// Result holds the scored followers in collection order and the records that
// could not be scored
type Result struct {
	Scored   []models.ScoredFollower
	Rejected []Rejected
}

// Analyzer runs feature extraction and scoring over a record set
type Analyzer struct {
	engine *scoring.Engine
	logger logger.Logger
}

// New creates an Analyzer. A nil engine uses the default rule table.
func New(engine *scoring.Engine, log logger.Logger) *Analyzer {
	if engine == nil {
		engine = scoring.NewDefaultEngine()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Analyzer{engine: engine, logger: log}
}

// Analyze scores every record. Invalid records are excluded from the scored
// set and reported in Result.Rejected; they never abort the analysis.
func (a *Analyzer) Analyze(records []models.FollowerRecord) Result {
	res := Result{Scored: make([]models.ScoredFollower, 0, len(records))}

	for i, rec := range records {
		feat, err := features.Extract(rec)
		if err != nil {
			a.logger.WithError(err).WarnWithFields("Record rejected", map[string]interface{}{
				"username": rec.Username,
				"order":    i,
			})
			res.Rejected = append(res.Rejected, Rejected{Order: i, Username: rec.Username, Err: err})
			continue
		}

		res.Scored = append(res.Scored, models.ScoredFollower{
			Record:   rec,
			Features: feat,
			Score:    a.engine.Evaluate(rec, feat),
			Order:    i,
		})
	}

	a.logger.InfoWithFields("Analysis finished", map[string]interface{}{
		"scored":   len(res.Scored),
		"rejected": len(res.Rejected),
	})
	return res
}

// Err joins the rejection errors, or returns nil when every record was scored
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		errs = append(errs, rej.Err)
	}
	return errors.Join(errs...)
}
