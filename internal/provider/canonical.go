// Package provider defines canonical data types that provider clients
// normalize into. These structs are the contract between the NHL client and
// the monitor — the client outputs these, the monitor reasons about them.
package provider

import "time"

// EventGoal is the canonical type for a goal event.
const EventGoal = "goal"

// Game is one scheduled game on a given date.
type Game struct {
	ID         int       `json:"id"`
	HomeTeamID *int      `json:"home_team_id,omitempty"` // nil when missing or malformed
	AwayTeamID *int      `json:"away_team_id,omitempty"`
	Date       string    `json:"date"` // "YYYY-MM-DD"
	StartTime  time.Time `json:"start_time,omitempty"`
	State      string    `json:"state,omitempty"`
}

// Event is a single in-game event from a play-by-play feed.
type Event struct {
	GameID       int    `json:"game_id"`
	Type         string `json:"type"`
	TypeCode     int    `json:"type_code,omitempty"`
	Period       int    `json:"period"`
	OwnerTeamID  *int   `json:"owner_team_id,omitempty"`
	TimeInPeriod string `json:"time_in_period,omitempty"`
}

// IsGoal reports whether the event is a goal.
func (e Event) IsGoal() bool {
	return e.Type == EventGoal
}
