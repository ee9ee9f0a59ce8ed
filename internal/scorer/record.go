// Package scorer defines the domain model for 50-point game performances
// and the validation rules applied to raw provider data.
package scorer

import "fmt"

const (
	// AlertThreshold is the minimum point total that makes a performance
	// alert-worthy.
	AlertThreshold = 50

	// MaxPoints is the highest single-game total the validator accepts.
	// The recognized record is 100 points; anything above it is treated
	// as data corruption upstream.
	MaxPoints = 100
)

// DateLayout is the calendar format used for record dates and alert keys.
const DateLayout = "2006-01-02"

// PerformanceRecord is one player's box-score line for one game.
type PerformanceRecord struct {
	Date     string `json:"date"` // YYYY-MM-DD, no time component
	Player   string `json:"player"`
	Team     string `json:"team"`
	Points   int    `json:"points"`
	Opponent string `json:"opponent"`
}

// AlertKey derives the deduplication token for a record. Two performances
// with identical date, player, and points collapse to one alert even when
// team or opponent differ between fetches.
func (r PerformanceRecord) AlertKey() string {
	return fmt.Sprintf("%s_%s_%d", r.Date, r.Player, r.Points)
}

// teamCodes is the fixed set of valid NBA team abbreviations.
var teamCodes = map[string]bool{
	"ATL": true, "BOS": true, "BKN": true, "CHA": true, "CHI": true,
	"CLE": true, "DAL": true, "DEN": true, "DET": true, "GSW": true,
	"HOU": true, "IND": true, "LAC": true, "LAL": true, "MEM": true,
	"MIA": true, "MIL": true, "MIN": true, "NOP": true, "NYK": true,
	"OKC": true, "ORL": true, "PHI": true, "PHX": true, "POR": true,
	"SAC": true, "SAS": true, "TOR": true, "UTA": true, "WAS": true,
}

// ValidTeam reports whether code is a known NBA team abbreviation.
func ValidTeam(code string) bool {
	return teamCodes[code]
}
