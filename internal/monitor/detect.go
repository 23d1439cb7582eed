package monitor

import "github.com/albapepper/scoracle-goalwatch/internal/provider"

// FirstPeriodGoal returns the first goal event scored in period 1. It does
// not look at which team scored.
func FirstPeriodGoal(events []provider.Event) (provider.Event, bool) {
	for _, e := range events {
		if e.IsGoal() && e.Period == 1 {
			return e, true
		}
	}
	return provider.Event{}, false
}

// ScoredInFirstPeriod reports whether any event is a first-period goal.
// Empty or nil input is simply false. teamID is not consulted: a goal by
// either side counts.
func ScoredInFirstPeriod(events []provider.Event, teamID int) bool {
	_, ok := FirstPeriodGoal(events)
	return ok
}
