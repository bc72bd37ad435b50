package collector

import (
	"time"

	"igaudit/pkg/models"
)

// ItemResult is the outcome for one follower entry
type ItemResult struct {
	// Username is empty when the upstream could not identify the entry
	Username  string
	Collected bool
	// Enriched is false when the detail lookup failed and the extended
	// fields kept their defaults
	Enriched bool
	Err      error
}

// Failed reports whether the entry was skipped
func (r ItemResult) Failed() bool {
	return !r.Collected
}

// Outcome is the result of one collection run
type Outcome struct {
	Target         string
	FollowerCount  int
	FollowingCount int
	// Records are the committed records in collection order
	Records []models.FollowerRecord
	Items   []ItemResult
	// Partial is set when the run was interrupted after at least one record
	Partial        bool
	CheckpointPath string
	Started        time.Time
	Finished       time.Time
}

// Failed lists the skipped entries
func (o *Outcome) Failed() []ItemResult {
	var failed []ItemResult
	for _, item := range o.Items {
		if item.Failed() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Unenriched lists the collected entries whose detail lookup failed
func (o *Outcome) Unenriched() []ItemResult {
	var items []ItemResult
	for _, item := range o.Items {
		if item.Collected && !item.Enriched {
			items = append(items, item)
		}
	}
	return items
}
