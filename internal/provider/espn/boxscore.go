package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// pointsIndex is the position of PTS in the box-score stats array,
// right after minutes.
const pointsIndex = 1

// ScoringLine is one player's point total in one game.
type ScoringLine struct {
	Player string
	Team   string
	Points int
}

// Raw summary shapes — only the box-score slice of the payload.
type summaryRaw struct {
	Boxscore struct {
		Players []teamPlayersRaw `json:"players"`
	} `json:"boxscore"`
}

type teamPlayersRaw struct {
	Team struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	Statistics []statGroupRaw `json:"statistics"`
}

type statGroupRaw struct {
	Athletes []athleteLineRaw `json:"athletes"`
}

type athleteLineRaw struct {
	Athlete struct {
		DisplayName string `json:"displayName"`
	} `json:"athlete"`
	Stats []string `json:"stats"`
}

// ScoringLines fetches the box score for a game and extracts every
// player's point total. Lines with unparseable stats are skipped rather
// than failing the whole game.
func (c *Client) ScoringLines(ctx context.Context, gameID string) ([]ScoringLine, error) {
	params := url.Values{"event": {gameID}}
	body, err := c.get(ctx, "/summary", params)
	if err != nil {
		return nil, fmt.Errorf("fetch box score for game %s: %w", gameID, err)
	}

	var raw summaryRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode box score for game %s: %w", gameID, err)
	}

	var lines []ScoringLine
	for _, team := range raw.Boxscore.Players {
		abbr := team.Team.Abbreviation
		for _, group := range team.Statistics {
			for _, athlete := range group.Athletes {
				if len(athlete.Stats) <= pointsIndex {
					continue
				}
				points, ok := parsePoints(athlete.Stats[pointsIndex])
				if !ok {
					continue
				}
				lines = append(lines, ScoringLine{
					Player: athlete.Athlete.DisplayName,
					Team:   abbr,
					Points: points,
				})
			}
		}
	}
	return lines, nil
}

// parsePoints handles the empty strings ESPN uses for players without
// recorded stats (DNP lines).
func parsePoints(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
