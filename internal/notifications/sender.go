package notifications

import (
	"context"
	"log/slog"
)

// LogPublisher writes alerts to the structured log instead of sending them.
// Nil-safe: a nil *LogPublisher silently succeeds.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher for dry runs.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	if p == nil {
		return nil
	}
	p.logger.Info("Notification (log only)",
		"game_id", msg.GameID, "team_id", msg.TeamID, "message", msg.Text)
	return nil
}
