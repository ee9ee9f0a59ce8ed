package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreboardBody = `{
  "events": [
    {
      "id": "401",
      "date": "2025-03-15T02:00Z",
      "shortName": "GSW @ SAC",
      "status": {"type": {"name": "STATUS_FINAL"}},
      "competitions": [
        {
          "competitors": [
            {"homeAway": "home", "team": {"abbreviation": "SAC"}},
            {"homeAway": "away", "team": {"abbreviation": "GSW"}}
          ]
        }
      ]
    },
    {
      "id": "402",
      "date": "2025-03-15T03:00:00Z",
      "shortName": "LAL @ BOS",
      "status": {"type": {"name": "STATUS_IN_PROGRESS"}},
      "competitions": [{"competitors": []}]
    }
  ]
}`

const summaryBody = `{
  "boxscore": {
    "players": [
      {
        "team": {"abbreviation": "SAC"},
        "statistics": [
          {
            "athletes": [
              {"athlete": {"displayName": "De'Aaron Fox"}, "stats": ["38", "60", "22-35"]},
              {"athlete": {"displayName": "Bench Guy"}, "stats": ["0", ""]},
              {"athlete": {"displayName": "Weird Line"}, "stats": ["12", "--"]},
              {"athlete": {"displayName": "No Stats"}, "stats": []}
            ]
          }
        ]
      },
      {
        "team": {"abbreviation": "GSW"},
        "statistics": [
          {
            "athletes": [
              {"athlete": {"displayName": "Stephen Curry"}, "stats": ["36", "31"]}
            ]
          }
        ]
      }
    ]
  }
}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c := NewClient(ts.URL, 6000, 2, nil)
	c.backoff = time.Millisecond
	return c
}

func TestCompletedGames(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scoreboard", r.URL.Path)
		assert.Equal(t, "20250314", r.URL.Query().Get("dates"))
		fmt.Fprint(w, scoreboardBody)
	}))

	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	games, err := c.CompletedGames(context.Background(), day)
	require.NoError(t, err)

	// Only the final game survives; the in-progress one is skipped.
	require.Len(t, games, 1)
	g := games[0]
	assert.Equal(t, "401", g.ID)
	assert.Equal(t, "SAC", g.HomeTeam)
	assert.Equal(t, "GSW", g.AwayTeam)
	// 02:00 UTC on March 15 is still March 14 in US Eastern.
	assert.Equal(t, "2025-03-14", g.Date)
}

func TestCompletedGames_BadJSON(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>blocked</html>`)
	}))

	_, err := c.CompletedGames(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode scoreboard")
}

func TestScoringLines(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summary", r.URL.Path)
		assert.Equal(t, "401", r.URL.Query().Get("event"))
		fmt.Fprint(w, summaryBody)
	}))

	lines, err := c.ScoringLines(context.Background(), "401")
	require.NoError(t, err)

	// The empty-string DNP line parses as zero points; the unparseable
	// and empty stats lines are dropped.
	require.Len(t, lines, 3)
	assert.Equal(t, ScoringLine{Player: "De'Aaron Fox", Team: "SAC", Points: 60}, lines[0])
	assert.Equal(t, ScoringLine{Player: "Bench Guy", Team: "SAC", Points: 0}, lines[1])
	assert.Equal(t, ScoringLine{Player: "Stephen Curry", Team: "GSW", Points: 31}, lines[2])
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, scoreboardBody)
	}))

	games, err := c.CompletedGames(context.Background(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, games, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.CompletedGames(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGameDate(t *testing.T) {
	fallback := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		iso  string
		want string
	}{
		{name: "late UTC rolls back a day in Eastern", iso: "2025-03-15T02:00:00Z", want: "2025-03-14"},
		{name: "short format without seconds", iso: "2025-03-15T02:00Z", want: "2025-03-14"},
		{name: "afternoon stays same day", iso: "2025-03-14T23:30:00Z", want: "2025-03-14"},
		{name: "malformed falls back to requested day", iso: "yesterday", want: "2025-03-14"},
		{name: "empty falls back to requested day", iso: "", want: "2025-03-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gameDate(tt.iso, fallback))
		})
	}
}
