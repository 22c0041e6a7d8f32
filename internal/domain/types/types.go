// Package types contains read shapes shared by the service and its adapters.
package types

import "time"

// Entry represents a leaderboard entry. Players with equal conservative
// ratings share a rank.
type Entry struct {
	Rank         int     `json:"rank"`
	Name         string  `json:"name"`
	SkillGroup   string  `json:"skill_group"`
	Rating       float64 `json:"rating"`
	Sigma        float64 `json:"sigma"`
	Conservative float64 `json:"conservative"`
}

// Teammate is a peer and the chemistry with them.
type Teammate struct {
	Name      string  `json:"name"`
	Chemistry float64 `json:"chemistry"`
}

// GameSummary is one past game from a single player's point of view.
type GameSummary struct {
	ID       string    `json:"id"`
	PlayedAt time.Time `json:"played_at"`
	Team     int       `json:"team"`
	Score    string    `json:"score"`
	Won      bool      `json:"won"`
}

// PlayerStats is the detailed view of a single player.
type PlayerStats struct {
	Name          string        `json:"name"`
	SkillGroup    string        `json:"skill_group"`
	Rating        float64       `json:"rating"`
	Sigma         float64       `json:"sigma"`
	Weighted      float64       `json:"weighted"`
	Conservative  float64       `json:"conservative"`
	IntervalLow   float64       `json:"interval_low"`
	IntervalHigh  float64       `json:"interval_high"`
	GamesPlayed   int           `json:"games_played"`
	Wins          int           `json:"wins"`
	WinPercentage float64       `json:"win_percentage"`
	PointsFor     int           `json:"points_for"`
	PointsAgainst int           `json:"points_against"`
	LastActive    time.Time     `json:"last_active"`
	BestTeammates []Teammate    `json:"best_teammates"`
	RecentGames   []GameSummary `json:"recent_games"`
}
