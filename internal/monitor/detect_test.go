package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/scoracle-goalwatch/internal/provider"
)

func TestScoredInFirstPeriod(t *testing.T) {
	opponent := 5
	tests := []struct {
		name   string
		events []provider.Event
		want   bool
	}{
		{"nil", nil, false},
		{"empty", []provider.Event{}, false},
		{"first period goal", []provider.Event{{Type: "goal", Period: 1}}, true},
		{"goal after other plays", []provider.Event{
			{Type: "faceoff", Period: 1},
			{Type: "shot-on-goal", Period: 1},
			{Type: "goal", Period: 1},
		}, true},
		{"order irrelevant", []provider.Event{
			{Type: "goal", Period: 3},
			{Type: "goal", Period: 1},
		}, true},
		{"opponent goal still counts", []provider.Event{
			{Type: "goal", Period: 1, OwnerTeamID: &opponent},
		}, true},
		{"second period only", []provider.Event{{Type: "goal", Period: 2}}, false},
		{"overtime only", []provider.Event{{Type: "goal", Period: 4}}, false},
		{"first period non-goals", []provider.Event{
			{Type: "hit", Period: 1},
			{Type: "penalty", Period: 1},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoredInFirstPeriod(tt.events, 16))
		})
	}
}

func TestFirstPeriodGoalReturnsMatchingEvent(t *testing.T) {
	scorer := 16
	events := []provider.Event{
		{Type: "faceoff", Period: 1},
		{Type: "goal", Period: 1, TimeInPeriod: "04:12", OwnerTeamID: &scorer},
	}
	goal, ok := FirstPeriodGoal(events)
	assert.True(t, ok)
	assert.Equal(t, "04:12", goal.TimeInPeriod)
	assert.Equal(t, &scorer, goal.OwnerTeamID)
}

func TestIsQualifyingHomeGame(t *testing.T) {
	home, away := 16, 5
	assert.True(t, IsQualifyingHomeGame(provider.Game{ID: 1, HomeTeamID: &home, AwayTeamID: &away}, 16))
	assert.False(t, IsQualifyingHomeGame(provider.Game{ID: 1, HomeTeamID: &away, AwayTeamID: &home}, 16))
	assert.False(t, IsQualifyingHomeGame(provider.Game{ID: 1}, 16), "missing home team fails closed")
}

func TestResultSummary(t *testing.T) {
	r := Result{
		Date: "2023-10-24", TeamID: 16, GamesExamined: 3, GamesQualifying: 1, DataQualityIssues: 1,
		GoalsDetected: 1, NotificationsSent: 1, ConcurrentRecords: 1, LedgerLookupErrors: 2, LedgerWriteErrors: 3,
		Duration: 1500 * time.Millisecond,
	}
	assert.Equal(t,
		"date=2023-10-24 team=16 games=3 qualifying=1 data_quality=1 goals=1 already=0 sent=1 notify_failed=0 concurrent=1 fetch_errors=0 ledger_lookup=2 ledger_write=3 dur=1.5s",
		r.Summary())
}
