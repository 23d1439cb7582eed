package monitor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/albapepper/scoracle-goalwatch/internal/ledger"
	"github.com/albapepper/scoracle-goalwatch/internal/notifications"
)

// dispatch notifies, then records. A record must never exist for a game
// that was not notified, so a failed send leaves the ledger untouched and
// the next run picks the goal up again. Sends are never retried within a
// run.
func (m *Monitor) dispatch(ctx context.Context, gameID, teamID int, result *Result, logger *slog.Logger) {
	sentAt := m.now().In(m.loc)
	msg := notifications.Message{
		GameID: gameID,
		TeamID: teamID,
		Text:   notifications.BuildMessage(m.teamName, gameID),
		SentAt: sentAt,
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.deps.Notifier.Publish(sendCtx, msg)
	cancel()
	if err != nil {
		logger.Error("Failed to send notification", "error", err)
		result.NotifyFailures++
		return
	}
	result.NotificationsSent++
	logger.Info("Notification sent")

	recCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err = m.deps.Ledger.Record(recCtx, ledger.Key(gameID), sentAt)
	cancel()
	switch {
	case errors.Is(err, ledger.ErrAlreadyRecorded):
		// Another run recorded this game between our lookup and our insert.
		logger.Warn("Delivery was recorded by a concurrent run, duplicate notification sent")
		result.ConcurrentRecords++
	case err != nil:
		logger.Error("Failed to record notification, duplicate suppression degraded", "error", err)
		result.LedgerWriteErrors++
	default:
		logger.Info("Recorded notification in ledger")
	}
}
