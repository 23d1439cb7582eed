// Package notifications delivers goal alerts to a distribution channel.
//
// A Publisher sends one Message per call and reports only success or
// failure; acknowledgement payloads are never consumed. Backends: signed
// JSON webhook, MQTT topic, and the structured log for dry runs.
package notifications

import (
	"context"
	"fmt"
	"time"
)

// Message is a single goal alert.
type Message struct {
	GameID int       `json:"game_id"`
	TeamID int       `json:"team_id"`
	Text   string    `json:"message"`
	SentAt time.Time `json:"sent_at"`
}

// Publisher delivers a message to a preconfigured channel.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// BuildMessage returns the alert text for a first-period goal.
func BuildMessage(teamName string, gameID int) string {
	return fmt.Sprintf("Goal scored by the %s in the first period of game %d! Check your rewards!", teamName, gameID)
}
