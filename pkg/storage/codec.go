package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"igaudit/pkg/checkpoint"
	"igaudit/pkg/models"
)

// ScoredHeader is the column set of scored exports: the raw columns followed
// by features, score and collection order
var ScoredHeader = append(append([]string{}, checkpoint.RawHeader...),
	"follower_ratio",
	"content_ratio",
	"spam_username",
	"suspicious_bio",
	"fake_probability",
	"classification",
	"reasons",
	"order",
)

const reasonSeparator = ";"

// formatFloat uses the shortest representation that parses back to f
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// EncodeScored renders s as a row in ScoredHeader order
func EncodeScored(s models.ScoredFollower) []string {
	return append(checkpoint.EncodeRecord(s.Record),
		formatFloat(s.Features.FollowerRatio),
		formatFloat(s.Features.ContentRatio),
		strconv.FormatBool(s.Features.SpamUsername),
		strconv.FormatBool(s.Features.SuspiciousBio),
		formatFloat(s.Score.FakeProbability),
		string(s.Score.Classification),
		strings.Join(s.Score.Reasons, reasonSeparator),
		strconv.Itoa(s.Order),
	)
}

// DecodeScored parses a row produced by EncodeScored
func DecodeScored(row []string) (models.ScoredFollower, error) {
	if len(row) != len(ScoredHeader) {
		return models.ScoredFollower{}, fmt.Errorf("expected %d fields, got %d", len(ScoredHeader), len(row))
	}

	rec, err := checkpoint.DecodeRecord(row)
	if err != nil {
		return models.ScoredFollower{}, err
	}

	n := len(checkpoint.RawHeader)
	var errs []error
	parseFloat := func(col int) float64 {
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ScoredHeader[col], err))
		}
		return v
	}
	parseBool := func(col int) bool {
		v, err := strconv.ParseBool(row[col])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ScoredHeader[col], err))
		}
		return v
	}

	s := models.ScoredFollower{Record: rec}
	s.Features.FollowerRatio = parseFloat(n)
	s.Features.ContentRatio = parseFloat(n + 1)
	s.Features.SpamUsername = parseBool(n + 2)
	s.Features.SuspiciousBio = parseBool(n + 3)
	s.Score.Username = rec.Username
	s.Score.FakeProbability = parseFloat(n + 4)
	s.Score.Classification = models.Classification(row[n+5])
	if !s.Score.Classification.Valid() {
		errs = append(errs, fmt.Errorf("classification: unknown label %q", row[n+5]))
	}
	if row[n+6] != "" {
		s.Score.Reasons = strings.Split(row[n+6], reasonSeparator)
	}
	order, err := strconv.Atoi(row[n+7])
	if err != nil {
		errs = append(errs, fmt.Errorf("order: %w", err))
	}
	s.Order = order

	if err := errors.Join(errs...); err != nil {
		return models.ScoredFollower{}, err
	}
	return s, nil
}
