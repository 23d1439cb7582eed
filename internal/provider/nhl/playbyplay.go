package nhl

import (
	"context"
	"fmt"

	"github.com/albapepper/scoracle-goalwatch/internal/provider"
)

// TypeCodeGoal is the NHL play typeCode for a goal.
const TypeCodeGoal = 505

type playByPlayResponse struct {
	Plays []play `json:"plays"`
}

type play struct {
	TypeCode         int    `json:"typeCode"`
	TypeDescKey      string `json:"typeDescKey"`
	TimeInPeriod     string `json:"timeInPeriod"`
	PeriodDescriptor struct {
		Number int `json:"number"`
	} `json:"periodDescriptor"`
	Details struct {
		EventOwnerTeamID interface{} `json:"eventOwnerTeamId"`
	} `json:"details"`
}

// PlayByPlay returns the ordered play-by-play events for a game. A feed
// without plays yields an empty slice.
func (c *Client) PlayByPlay(ctx context.Context, gameID int) ([]provider.Event, error) {
	var resp playByPlayResponse
	if err := c.get(ctx, fmt.Sprintf("gamecenter/%d/play-by-play", gameID), &resp); err != nil {
		return nil, fmt.Errorf("fetch play-by-play %d: %w", gameID, err)
	}

	events := make([]provider.Event, 0, len(resp.Plays))
	for _, p := range resp.Plays {
		events = append(events, provider.Event{
			GameID:       gameID,
			Type:         eventType(p),
			TypeCode:     p.TypeCode,
			Period:       p.PeriodDescriptor.Number,
			OwnerTeamID:  provider.IntPtr(p.Details.EventOwnerTeamID),
			TimeInPeriod: p.TimeInPeriod,
		})
	}
	return events, nil
}

// eventType maps the feed's classifier onto the canonical type. typeCode is
// authoritative for goals; typeDescKey covers everything else.
func eventType(p play) string {
	if p.TypeCode == TypeCodeGoal {
		return provider.EventGoal
	}
	return p.TypeDescKey
}
