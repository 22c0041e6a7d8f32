package model

import "time"

// GameResult is an observed game between two teams, referenced by player
// name. It is the payload flowing through the recording queue and the entry
// stored in the game log.
type GameResult struct {
	ID       string    `json:"id"`
	Team1    []string  `json:"team1"`
	Team2    []string  `json:"team2"`
	Score1   int       `json:"score1"`
	Score2   int       `json:"score2"`
	PlayedAt time.Time `json:"played_at"`
}

// Team1Won reports whether team 1 scored strictly more. Ties credit team 2.
func (g GameResult) Team1Won() bool { return g.Score1 > g.Score2 }

// Side returns 1 or 2 for the team the named player was on, 0 if absent.
func (g GameResult) Side(name string) int {
	for _, n := range g.Team1 {
		if n == name {
			return 1
		}
	}
	for _, n := range g.Team2 {
		if n == name {
			return 2
		}
	}
	return 0
}

// WonBy reports whether the named player was on the winning side.
func (g GameResult) WonBy(name string) bool {
	switch g.Side(name) {
	case 1:
		return g.Score1 > g.Score2
	case 2:
		return g.Score2 > g.Score1
	}
	return false
}
