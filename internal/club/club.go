// Package club maintains the season 50+ Club data file consumed by the
// website. The scan job is the only writer; everything else reads.
package club

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/fiftyclub/alerter/internal/jsonfile"
	"github.com/fiftyclub/alerter/internal/scorer"
)

// Data is the on-disk 50+ Club document.
type Data struct {
	Season          string                     `json:"season"`
	LastUpdated     string                     `json:"lastUpdated"`
	LastCheckedDate string                     `json:"lastCheckedDate"`
	TotalGames      int                        `json:"totalGames"`
	Scorers         []scorer.PerformanceRecord `json:"scorers"`
}

// Load reads existing club data. A missing file yields nil, which Merge
// treats as a first run.
func Load(path string) (*Data, error) {
	var d Data
	err := jsonfile.Read(path, &d)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load club data: %w", err)
	}
	return &d, nil
}

// Merge folds newly scanned qualifying performances into existing data.
// Duplicates (same date, player, points) collapse to the first occurrence
// and the result is sorted most recent first, points descending within a
// day.
func Merge(existing *Data, scanned []scorer.PerformanceRecord, season string, lastChecked, now time.Time, gamesScanned int) *Data {
	var all []scorer.PerformanceRecord
	totalGames := gamesScanned
	if existing != nil {
		all = append(all, existing.Scorers...)
		totalGames += existing.TotalGames
	}
	all = append(all, scanned...)

	seen := make(map[string]bool, len(all))
	unique := make([]scorer.PerformanceRecord, 0, len(all))
	for _, rec := range all {
		key := rec.AlertKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, rec)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].Date != unique[j].Date {
			return unique[i].Date > unique[j].Date
		}
		return unique[i].Points > unique[j].Points
	})

	return &Data{
		Season:          season,
		LastUpdated:     now.Format(time.RFC3339),
		LastCheckedDate: lastChecked.Format(scorer.DateLayout),
		TotalGames:      totalGames,
		Scorers:         unique,
	}
}

// Save writes the club data file atomically.
func Save(path string, d *Data) error {
	if err := jsonfile.WriteAtomic(path, d); err != nil {
		return fmt.Errorf("save club data: %w", err)
	}
	return nil
}
