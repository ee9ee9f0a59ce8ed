package scorer

import (
	"fmt"
	"time"
)

// Reason classifies why a record failed validation.
type Reason string

const (
	ReasonMissingField  Reason = "missing-field"
	ReasonOutOfRange    Reason = "out-of-range"
	ReasonBadDate       Reason = "bad-date"
	ReasonFutureDate    Reason = "future-date"
	ReasonPreSeasonDate Reason = "pre-season-date"
	ReasonUnknownTeam   Reason = "unknown-team"
)

// Rejection is a typed validation failure. Malformed provider data is an
// expected case, so rejections are returned as values, never panics.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// Validator checks performance records against domain constraints.
// Pure: no I/O, no side effects.
type Validator struct {
	// Today is the run's reference calendar day; records dated after it
	// are rejected.
	Today time.Time

	// SeasonStart is the first valid game date; earlier records are
	// stale or erroneous.
	SeasonStart time.Time
}

// Validate accepts or rejects a record. A nil return means accepted.
//
// Points must sit in [AlertThreshold, MaxPoints]: callers filter
// sub-threshold lines before validation, so anything outside the range
// here is either corrupt data or a caller bug. A zero Points value is
// indistinguishable from an absent field and fails the same range check.
func (v Validator) Validate(rec PerformanceRecord) *Rejection {
	if rec.Player == "" {
		return &Rejection{Reason: ReasonMissingField, Detail: "player"}
	}
	if rec.Date == "" {
		return &Rejection{Reason: ReasonMissingField, Detail: "date"}
	}
	if rec.Team == "" {
		return &Rejection{Reason: ReasonMissingField, Detail: "team"}
	}
	if rec.Points < AlertThreshold || rec.Points > MaxPoints {
		return &Rejection{Reason: ReasonOutOfRange, Detail: fmt.Sprintf("points=%d", rec.Points)}
	}
	day, err := time.Parse(DateLayout, rec.Date)
	if err != nil {
		return &Rejection{Reason: ReasonBadDate, Detail: rec.Date}
	}
	if day.After(v.Today) {
		return &Rejection{Reason: ReasonFutureDate, Detail: rec.Date}
	}
	if day.Before(v.SeasonStart) {
		return &Rejection{Reason: ReasonPreSeasonDate, Detail: rec.Date}
	}
	if !ValidTeam(rec.Team) {
		return &Rejection{Reason: ReasonUnknownTeam, Detail: rec.Team}
	}
	return nil
}
