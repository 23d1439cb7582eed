package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/suite"

	"github.com/albapepper/scoracle-goalwatch/internal/ledger"
	"github.com/albapepper/scoracle-goalwatch/internal/notifications"
	"github.com/albapepper/scoracle-goalwatch/internal/provider"
)

const (
	trackedTeam = 16
	otherTeam   = 5
	gameA       = 2023020123
	gameB       = 2023020124
)

var errUnavailable = errors.New("unavailable")

// --------------------------------------------------------------------------
// Fakes
// --------------------------------------------------------------------------

type fakeSchedule struct {
	mu          sync.Mutex
	games       []provider.Game
	err         error
	dates       []string
	sawDeadline bool
}

func (f *fakeSchedule) GamesOn(ctx context.Context, date string) ([]provider.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
	_, f.sawDeadline = ctx.Deadline()
	return f.games, f.err
}

type fakeEvents struct {
	mu     sync.Mutex
	events map[int][]provider.Event
	errs   map[int]error
	// hang makes PlayByPlay block until its context ends.
	hang      map[int]bool
	calls     []int
	deadlines int
}

func (f *fakeEvents) PlayByPlay(ctx context.Context, gameID int) ([]provider.Event, error) {
	f.mu.Lock()
	f.calls = append(f.calls, gameID)
	if _, ok := ctx.Deadline(); ok {
		f.deadlines++
	}
	hang, err, events := f.hang[gameID], f.errs[gameID], f.events[gameID]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return events, nil
}

// fakeLedger wraps the memory ledger with injectable failures.
type fakeLedger struct {
	*ledger.Memory
	hasErr    error
	recordErr error
	// blindHas makes Has always report no record, simulating a concurrent
	// run that recorded between lookup and insert.
	blindHas bool

	hasDeadline    bool
	recordDeadline bool
}

func (f *fakeLedger) Has(ctx context.Context, gameID string) (bool, error) {
	_, f.hasDeadline = ctx.Deadline()
	if f.hasErr != nil {
		return false, f.hasErr
	}
	if f.blindHas {
		return false, nil
	}
	return f.Memory.Has(ctx, gameID)
}

func (f *fakeLedger) Record(ctx context.Context, gameID string, at time.Time) error {
	_, f.recordDeadline = ctx.Deadline()
	if f.recordErr != nil {
		return f.recordErr
	}
	return f.Memory.Record(ctx, gameID, at)
}

type fakeNotifier struct {
	mu          sync.Mutex
	sent        []notifications.Message
	err         error
	sawDeadline bool
}

func (f *fakeNotifier) Publish(ctx context.Context, msg notifications.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.sawDeadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func homeGame(id, home int) provider.Game {
	return provider.Game{ID: id, HomeTeamID: &home, Date: "2023-10-24"}
}

func goalIn(gameID, period int) provider.Event {
	return provider.Event{GameID: gameID, Type: provider.EventGoal, TypeCode: 505, Period: period}
}

// --------------------------------------------------------------------------
// Suite
// --------------------------------------------------------------------------

type monitorSuite struct {
	suite.Suite
	schedule *fakeSchedule
	events   *fakeEvents
	ledger   *fakeLedger
	notifier *fakeNotifier
	monitor  *Monitor
	now      time.Time
}

func (s *monitorSuite) SetupTest() {
	loc, err := time.LoadLocation("America/Chicago")
	s.Require().NoError(err)
	// 03:00 UTC on the 25th is still the evening of the 24th in Chicago.
	s.now = time.Date(2023, 10, 25, 3, 0, 0, 0, time.UTC)

	s.schedule = &fakeSchedule{}
	s.events = &fakeEvents{events: map[int][]provider.Event{}, errs: map[int]error{}, hang: map[int]bool{}}
	s.ledger = &fakeLedger{Memory: ledger.NewMemory()}
	s.notifier = &fakeNotifier{}
	s.monitor = s.newMonitor(loc, time.Second)
}

func (s *monitorSuite) newMonitor(loc *time.Location, callTimeout time.Duration) *Monitor {
	return New(Deps{
		Schedule: s.schedule,
		Events:   s.events,
		Ledger:   s.ledger,
		Notifier: s.notifier,
	}, Options{
		TeamName:    "Chicago Blackhawks",
		Location:    loc,
		CallTimeout: callTimeout,
		Now:         func() time.Time { return s.now },
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (s *monitorSuite) run() Result {
	return s.monitor.Run(context.Background(), trackedTeam)
}

func (s *monitorSuite) TestTodayUsesConfiguredLocation() {
	s.run()
	s.Equal([]string{"2023-10-24"}, s.schedule.dates)
	s.True(s.schedule.sawDeadline, "schedule call should be bounded by a timeout")
}

func (s *monitorSuite) TestGoalInFirstPeriodNotifiesAndRecords() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{{Type: "faceoff", Period: 1}, goalIn(gameA, 1)}

	result := s.run()

	s.Require().Len(s.notifier.sent, 1)
	s.Equal(gameA, s.notifier.sent[0].GameID)
	s.Contains(s.notifier.sent[0].Text, "Chicago Blackhawks")
	s.Contains(s.notifier.sent[0].Text, "2023020123")
	rec, err := s.ledger.Get(context.Background(), "2023020123")
	s.Require().NoError(err)
	s.Equal("2023020123", rec.GameID)
	s.Equal(1, result.GamesExamined)
	s.Equal(1, result.GamesQualifying)
	s.Equal(1, result.GoalsDetected)
	s.Equal(1, result.NotificationsSent)
}

func (s *monitorSuite) TestExistingRecordSuppressesNotification() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}
	s.Require().NoError(s.ledger.Memory.Record(context.Background(), "2023020123", s.now))

	result := s.run()

	s.Empty(s.notifier.sent)
	s.Equal(1, result.AlreadyNotified)
	s.Equal(0, result.NotificationsSent)
}

func (s *monitorSuite) TestAwayGameSkipsEventSource() {
	s.schedule.games = []provider.Game{homeGame(gameA, otherTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}

	result := s.run()

	s.Empty(s.events.calls)
	s.Empty(s.notifier.sent)
	s.Equal(1, result.GamesExamined)
	s.Equal(0, result.GamesQualifying)
}

func (s *monitorSuite) TestSecondPeriodGoalDoesNotNotify() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 2)}

	result := s.run()

	s.Empty(s.notifier.sent)
	s.Equal(0, s.ledger.Len())
	s.Equal(0, result.GoalsDetected)
}

func (s *monitorSuite) TestNoGamesCompletesQuietly() {
	result := s.run()

	s.Empty(s.events.calls)
	s.Empty(s.notifier.sent)
	s.Equal(0, result.GamesExamined)
	s.Equal(0, result.FetchErrors)
}

func (s *monitorSuite) TestScheduleFailureEndsRunWithoutNotifying() {
	s.schedule.err = errUnavailable

	result := s.run()

	s.Empty(s.events.calls)
	s.Empty(s.notifier.sent)
	s.Equal(1, result.FetchErrors)
}

func (s *monitorSuite) TestRunningTwiceCreatesOneRecord() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}

	first := s.run()
	second := s.run()

	s.Len(s.notifier.sent, 1)
	s.Equal(1, s.ledger.Len())
	s.Equal(1, first.NotificationsSent)
	s.Equal(0, second.NotificationsSent)
	s.Equal(1, second.AlreadyNotified)
}

func (s *monitorSuite) TestLedgerLookupFailureFailsOpen() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}
	s.ledger.hasErr = errUnavailable

	result := s.run()

	s.Len(s.notifier.sent, 1)
	s.Equal(1, result.LedgerLookupErrors)
	s.Equal(1, result.NotificationsSent)
	s.Equal(1, s.ledger.Len())
}

func (s *monitorSuite) TestEventFailureIsIsolatedPerGame() {
	s.schedule.games = []provider.Game{homeGame(gameB, trackedTeam), homeGame(gameA, trackedTeam)}
	s.events.errs[gameB] = errUnavailable
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}

	result := s.run()

	s.Equal([]int{gameB, gameA}, s.events.calls)
	s.Require().Len(s.notifier.sent, 1)
	s.Equal(gameA, s.notifier.sent[0].GameID)
	s.Equal(1, result.FetchErrors)
	s.Equal(2, result.GamesQualifying)
}

func (s *monitorSuite) TestEveryCallIsBoundedByCallTimeout() {
	s.monitor = s.newMonitor(time.UTC, 50*time.Millisecond)
	s.schedule.games = []provider.Game{homeGame(gameB, trackedTeam), homeGame(gameA, trackedTeam)}
	s.events.hang[gameB] = true
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}

	start := time.Now()
	result := s.monitor.Run(context.Background(), trackedTeam)

	s.Less(time.Since(start), 5*time.Second, "a hung event source must not stall the run")
	s.Equal(1, result.FetchErrors)
	s.Require().Len(s.notifier.sent, 1)
	s.Equal(gameA, s.notifier.sent[0].GameID)
	s.Equal(1, s.ledger.Len())

	s.True(s.schedule.sawDeadline, "schedule")
	s.Equal(2, s.events.deadlines, "play-by-play")
	s.True(s.ledger.hasDeadline, "ledger lookup")
	s.True(s.notifier.sawDeadline, "publish")
	s.True(s.ledger.recordDeadline, "ledger insert")
}

func (s *monitorSuite) TestNotifierFailureLeavesNoRecord() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}
	s.notifier.err = errUnavailable

	result := s.run()

	s.Equal(0, s.ledger.Len())
	s.Equal(1, result.NotifyFailures)
	s.Equal(0, result.NotificationsSent)

	// The next run notices the still-unrecorded goal.
	s.notifier.err = nil
	next := s.run()
	s.Equal(1, next.NotificationsSent)
	s.Equal(1, s.ledger.Len())
}

func (s *monitorSuite) TestRecordFailureKeepsSentNotification() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}
	s.ledger.recordErr = errUnavailable

	result := s.run()

	s.Len(s.notifier.sent, 1)
	s.Equal(1, result.NotificationsSent)
	s.Equal(1, result.LedgerWriteErrors)
}

func (s *monitorSuite) TestConcurrentRecordIsDetectedByInsert() {
	s.schedule.games = []provider.Game{homeGame(gameA, trackedTeam)}
	s.events.events[gameA] = []provider.Event{goalIn(gameA, 1)}
	s.ledger.blindHas = true
	s.Require().NoError(s.ledger.Memory.Record(context.Background(), "2023020123", s.now))

	result := s.run()

	s.Equal(1, s.ledger.Len())
	s.Equal(1, result.ConcurrentRecords)
	s.Equal(0, result.LedgerWriteErrors)
}

func (s *monitorSuite) TestMissingHomeTeamIsDataQualityIssue() {
	s.schedule.games = []provider.Game{{ID: gameA, Date: "2023-10-24"}}

	result := s.run()

	s.Empty(s.events.calls)
	s.Equal(1, result.DataQualityIssues)
	s.Equal(0, result.GamesQualifying)
}

func (s *monitorSuite) TestRunOnUsesGivenDate() {
	s.monitor.RunOn(context.Background(), trackedTeam, "2024-01-02")
	s.Equal([]string{"2024-01-02"}, s.schedule.dates)
}

func TestMonitor(t *testing.T) {
	suite.Run(t, new(monitorSuite))
}
