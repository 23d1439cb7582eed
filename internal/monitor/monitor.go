// Package monitor runs the goal-watch pipeline once: fetch today's schedule,
// keep the tracked team's home games, look for a first-period goal, and
// notify at most once per game using the delivery ledger.
//
// Every step is independently recoverable. Failures are logged and counted
// in the Result; Run itself never fails.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-goalwatch/internal/ledger"
	"github.com/albapepper/scoracle-goalwatch/internal/notifications"
	"github.com/albapepper/scoracle-goalwatch/internal/provider"
)

const defaultCallTimeout = 10 * time.Second

// ScheduleSource returns the games scheduled on a date (YYYY-MM-DD).
type ScheduleSource interface {
	GamesOn(ctx context.Context, date string) ([]provider.Game, error)
}

// EventSource returns the ordered events of a game.
type EventSource interface {
	PlayByPlay(ctx context.Context, gameID int) ([]provider.Event, error)
}

// Deps holds the collaborators a run talks to.
type Deps struct {
	Schedule ScheduleSource
	Events   EventSource
	Ledger   ledger.Ledger
	Notifier notifications.Publisher
}

// Options tunes a Monitor. Zero values fall back to defaults.
type Options struct {
	TeamName    string
	Location    *time.Location
	CallTimeout time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

// Monitor composes the pipeline. Safe to reuse across runs; it keeps no
// state between them.
type Monitor struct {
	deps     Deps
	teamName string
	loc      *time.Location
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Monitor.
func New(deps Deps, opts Options) *Monitor {
	m := &Monitor{
		deps:     deps,
		teamName: opts.TeamName,
		loc:      opts.Location,
		timeout:  opts.CallTimeout,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if m.teamName == "" {
		m.teamName = "home team"
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.timeout <= 0 {
		m.timeout = defaultCallTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Today returns the current date in the monitor's calendar.
func (m *Monitor) Today() string {
	return m.now().In(m.loc).Format(time.DateOnly)
}

// Run checks today's games for teamID.
func (m *Monitor) Run(ctx context.Context, teamID int) Result {
	return m.RunOn(ctx, teamID, m.Today())
}

// RunOn checks the games on date for teamID.
func (m *Monitor) RunOn(ctx context.Context, teamID int, date string) Result {
	start := time.Now()
	result := Result{Date: date, TeamID: teamID}

	logger := m.logger.With("team_id", teamID, "date", date)
	logger.Info("Starting goal monitor")

	games, err := m.fetchGames(ctx, date)
	if err != nil {
		// The next scheduled run retries naturally.
		logger.Error("Failed to fetch schedule", "error", err)
		result.FetchErrors++
		result.Duration = time.Since(start)
		return result
	}
	if len(games) == 0 {
		logger.Info("No games found for today")
		result.Duration = time.Since(start)
		return result
	}
	logger.Info("Found games", "count", len(games))

	for _, g := range games {
		if ctx.Err() != nil {
			logger.Warn("Run cancelled", "error", ctx.Err())
			break
		}
		result.GamesExamined++
		glog := logger.With("game_id", g.ID)

		if g.HomeTeamID == nil {
			glog.Warn("Game has no usable home team id, skipping")
			result.DataQualityIssues++
			continue
		}
		if !IsQualifyingHomeGame(g, teamID) {
			glog.Info("Not a tracked home game", "home_team_id", *g.HomeTeamID)
			continue
		}
		result.GamesQualifying++
		glog.Info("Tracked home game found")

		m.processGame(ctx, g, teamID, &result, glog)
	}

	result.Duration = time.Since(start)
	logger.Info("Goal monitor finished", "summary", result.Summary())
	return result
}

// processGame runs detection, the ledger check and dispatch for one
// qualifying game. Failures stay inside this game.
func (m *Monitor) processGame(ctx context.Context, g provider.Game, teamID int, result *Result, logger *slog.Logger) {
	events, err := m.fetchEvents(ctx, g.ID)
	if err != nil {
		logger.Error("Failed to fetch play-by-play", "error", err)
		result.FetchErrors++
		return
	}

	goal, ok := FirstPeriodGoal(events)
	if !ok {
		logger.Info("No first-period goal detected", "events", len(events))
		return
	}
	result.GoalsDetected++
	logger.Info("First-period goal detected", "time_in_period", goal.TimeInPeriod, "scoring_team_id", intOrZero(goal.OwnerTeamID))

	key := ledger.Key(g.ID)
	exists, err := m.hasRecord(ctx, key)
	if err != nil {
		// Fail open: a missed alert is worse than a duplicate. Record below
		// still refuses a second delivery record.
		logger.Warn("Ledger lookup failed, proceeding with notification (degraded)", "error", err)
		result.LedgerLookupErrors++
	} else if exists {
		logger.Info("Notification already sent")
		result.AlreadyNotified++
		return
	}

	logger.Info("No notification sent yet, sending now")
	m.dispatch(ctx, g.ID, teamID, result, logger)
}

func (m *Monitor) fetchGames(ctx context.Context, date string) ([]provider.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.deps.Schedule.GamesOn(ctx, date)
}

func (m *Monitor) fetchEvents(ctx context.Context, gameID int) ([]provider.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.deps.Events.PlayByPlay(ctx, gameID)
}

func (m *Monitor) hasRecord(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.deps.Ledger.Has(ctx, key)
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
