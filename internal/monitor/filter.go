package monitor

import "github.com/albapepper/scoracle-goalwatch/internal/provider"

// IsQualifyingHomeGame returns true iff teamID is the game's home team.
// A game whose home team could not be determined never qualifies.
func IsQualifyingHomeGame(g provider.Game, teamID int) bool {
	return g.HomeTeamID != nil && *g.HomeTeamID == teamID
}
