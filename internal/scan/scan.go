// Package scan implements the daily 50-point detection job: fetch
// completed games for the scan window, extract qualifying scoring lines,
// validate them, and drop anything already alerted.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fiftyclub/alerter/internal/ledger"
	"github.com/fiftyclub/alerter/internal/provider/espn"
	"github.com/fiftyclub/alerter/internal/scorer"
)

// Provider fetches completed games and per-player scoring lines from the
// external stats source.
type Provider interface {
	CompletedGames(ctx context.Context, day time.Time) ([]espn.Game, error)
	ScoringLines(ctx context.Context, gameID string) ([]espn.ScoringLine, error)
}

// Skipped pairs a rejected candidate with its rejection reason.
type Skipped struct {
	Record scorer.PerformanceRecord
	Reason scorer.Reason
}

// Result is the outcome of one scan.
type Result struct {
	// NewAlerts are validated records not yet in the ledger, sorted by
	// date ascending then points descending.
	NewAlerts []scorer.PerformanceRecord

	// Qualifying are all validated 50-point records in the window,
	// including ones already alerted. The club data file is built from
	// these.
	Qualifying []scorer.PerformanceRecord

	Skipped      []Skipped
	GamesScanned int
	DatesFailed  int
}

// Job coordinates provider fetches, validation, and ledger dedup for one
// run. The ledger is read-only here; callers advance it only after a
// successful dispatch.
type Job struct {
	Provider    Provider
	Ledger      *ledger.Ledger
	SeasonStart time.Time
	Logger      *slog.Logger
}

// Run scans the single calendar day preceding referenceDate, the only
// day whose games are actionable for the promo. In full mode the window
// opens at season start instead, backfilling the whole season.
//
// A fetch failure for one date or game is logged and skipped; the run
// only fails hard when every scoreboard fetch failed, in which case the
// provider is considered unreachable and nothing should be trusted.
func (j *Job) Run(ctx context.Context, referenceDate time.Time, full bool) (*Result, error) {
	yesterday := referenceDate.AddDate(0, 0, -1)
	start := yesterday
	if full {
		start = j.SeasonStart
	}

	validator := scorer.Validator{Today: referenceDate, SeasonStart: j.SeasonStart}

	res := &Result{}
	datesTried := 0
	for day := start; !day.After(yesterday); day = day.AddDate(0, 0, 1) {
		datesTried++
		games, err := j.Provider.CompletedGames(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			j.Logger.Warn("scoreboard fetch failed, skipping date",
				"date", day.Format(scorer.DateLayout), "error", err)
			res.DatesFailed++
			continue
		}

		for _, g := range games {
			lines, err := j.Provider.ScoringLines(ctx, g.ID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				j.Logger.Warn("box score fetch failed, skipping game",
					"game", g.ID, "name", g.Name, "error", err)
				continue
			}
			res.GamesScanned++

			for _, line := range lines {
				if line.Points < scorer.AlertThreshold {
					continue
				}
				rec := scorer.PerformanceRecord{
					Date:     g.Date,
					Player:   line.Player,
					Team:     line.Team,
					Points:   line.Points,
					Opponent: opponent(g, line.Team),
				}
				if rej := validator.Validate(rec); rej != nil {
					j.Logger.Warn("candidate rejected",
						"player", rec.Player, "date", rec.Date, "reason", string(rej.Reason))
					res.Skipped = append(res.Skipped, Skipped{Record: rec, Reason: rej.Reason})
					continue
				}
				res.Qualifying = append(res.Qualifying, rec)
			}
		}
	}

	if datesTried > 0 && res.DatesFailed == datesTried {
		return nil, fmt.Errorf("stats provider unreachable: all %d scoreboard fetches failed", datesTried)
	}

	// A re-fetched game can surface the same line twice within one run.
	res.Qualifying = dedupe(res.Qualifying)

	for _, rec := range res.Qualifying {
		if j.Ledger.Contains(rec.AlertKey()) {
			continue
		}
		res.NewAlerts = append(res.NewAlerts, rec)
	}

	sort.SliceStable(res.NewAlerts, func(i, k int) bool {
		a, b := res.NewAlerts[i], res.NewAlerts[k]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Points > b.Points
	})
	return res, nil
}

func opponent(g espn.Game, team string) string {
	if team == g.HomeTeam {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// dedupe keeps the first occurrence per alert key, preserving order.
func dedupe(recs []scorer.PerformanceRecord) []scorer.PerformanceRecord {
	seen := make(map[string]bool, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		key := rec.AlertKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}
