package nhl

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/scoracle-goalwatch/internal/provider"
)

// scheduleResponse is the week-view wrapper returned by schedule/{date}.
type scheduleResponse struct {
	GameWeek []struct {
		Date  string         `json:"date"`
		Games []scheduleGame `json:"games"`
	} `json:"gameWeek"`
}

// scheduleGame keeps ids loosely typed so a malformed team never fails the
// whole schedule decode.
type scheduleGame struct {
	ID           interface{} `json:"id"`
	StartTimeUTC string      `json:"startTimeUTC"`
	GameState    string      `json:"gameState"`
	HomeTeam     interface{} `json:"homeTeam"`
	AwayTeam     interface{} `json:"awayTeam"`
}

// GamesOn returns the games scheduled on date (YYYY-MM-DD). The endpoint
// returns a whole week; only the matching day is used. A date missing from
// the response means no games.
func (c *Client) GamesOn(ctx context.Context, date string) ([]provider.Game, error) {
	var resp scheduleResponse
	if err := c.get(ctx, "schedule/"+date, &resp); err != nil {
		return nil, fmt.Errorf("fetch schedule %s: %w", date, err)
	}

	for _, day := range resp.GameWeek {
		if day.Date != date {
			continue
		}
		games := make([]provider.Game, 0, len(day.Games))
		for _, g := range day.Games {
			id, ok := provider.ExtractInt(g.ID)
			if !ok {
				c.logger.Warn("Dropping scheduled game without an id", "date", date, "raw_id", g.ID)
				continue
			}
			game := provider.Game{
				ID:         id,
				HomeTeamID: provider.IntPtr(g.HomeTeam),
				AwayTeamID: provider.IntPtr(g.AwayTeam),
				Date:       date,
				State:      g.GameState,
			}
			if t, err := time.Parse(time.RFC3339, g.StartTimeUTC); err == nil {
				game.StartTime = t
			}
			games = append(games, game)
		}
		return games, nil
	}
	return nil, nil
}
