package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const dateLayout = "2006-01-02"

// statusFinal is ESPN's status name for a completed game.
const statusFinal = "STATUS_FINAL"

// easternOffset approximates US Eastern Time for game-date bucketing.
// ESPN timestamps are UTC; NBA tip-off times make the fixed offset safe
// enough for assigning a game to its local calendar day.
const easternOffset = -5 * time.Hour

// Game is a completed game from the scoreboard.
type Game struct {
	ID       string
	Date     string // YYYY-MM-DD, US Eastern
	Name     string
	HomeTeam string
	AwayTeam string
}

// Raw scoreboard shapes — only the fields the scan needs.
type scoreboardRaw struct {
	Events []eventRaw `json:"events"`
}

type eventRaw struct {
	ID           string           `json:"id"`
	Date         string           `json:"date"`
	ShortName    string           `json:"shortName"`
	Status       statusRaw        `json:"status"`
	Competitions []competitionRaw `json:"competitions"`
}

type statusRaw struct {
	Type struct {
		Name string `json:"name"`
	} `json:"type"`
}

type competitionRaw struct {
	Competitors []competitorRaw `json:"competitors"`
}

type competitorRaw struct {
	HomeAway string `json:"homeAway"`
	Team     struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
}

// CompletedGames fetches games for one calendar day and returns only the
// ones that have gone final. In-progress games are left for the next run.
func (c *Client) CompletedGames(ctx context.Context, day time.Time) ([]Game, error) {
	params := url.Values{"dates": {day.Format("20060102")}}
	body, err := c.get(ctx, "/scoreboard", params)
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard: %w", err)
	}

	var raw scoreboardRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode scoreboard: %w", err)
	}

	var games []Game
	for _, ev := range raw.Events {
		if ev.Status.Type.Name != statusFinal {
			continue
		}
		g := Game{
			ID:   ev.ID,
			Name: ev.ShortName,
			Date: gameDate(ev.Date, day),
		}
		if len(ev.Competitions) > 0 {
			for _, comp := range ev.Competitions[0].Competitors {
				switch comp.HomeAway {
				case "home":
					g.HomeTeam = comp.Team.Abbreviation
				case "away":
					g.AwayTeam = comp.Team.Abbreviation
				}
			}
		}
		games = append(games, g)
	}
	return games, nil
}

// gameDate converts the event's UTC timestamp to a US Eastern calendar
// day, falling back to the requested day when the timestamp is absent or
// malformed. Some ESPN endpoints drop the seconds from timestamps.
func gameDate(iso string, fallback time.Time) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04Z07:00", iso)
	}
	if err != nil {
		return fallback.Format(dateLayout)
	}
	return t.Add(easternOffset).Format(dateLayout)
}
