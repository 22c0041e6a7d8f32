// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Rating and uncertainty bounds shared by every layer.
const (
	DefaultRating = 100.0
	DefaultSigma  = 100.0
	MinSigma      = 25.0
	MaxSigma      = 150.0
	// MeanRating is the population mean that inactive ratings decay towards.
	MeanRating = 100.0
)

// SkillGroup is the coarse A (best) .. F (worst) classification of a player.
type SkillGroup uint8

// Skill groups. SkillUnknown stands for a letter outside A..F and keeps the
// default base rating.
const (
	SkillUnknown SkillGroup = iota
	SkillA
	SkillB
	SkillC
	SkillD
	SkillE
	SkillF
)

// DefaultSkillGroup is assigned to players whose group was never recorded.
const DefaultSkillGroup = SkillC

// skillBase holds the base rating per group, indexed by SkillGroup.
var skillBase = [...]float64{
	SkillUnknown: 100,
	SkillA:       160,
	SkillB:       120,
	SkillC:       100,
	SkillD:       80,
	SkillE:       40,
	SkillF:       0,
}

var skillLetters = [...]string{
	SkillUnknown: "?",
	SkillA:       "A",
	SkillB:       "B",
	SkillC:       "C",
	SkillD:       "D",
	SkillE:       "E",
	SkillF:       "F",
}

// ParseSkillGroup maps a letter to its group. Unrecognized input returns
// SkillUnknown and false; an empty string returns DefaultSkillGroup.
func ParseSkillGroup(s string) (SkillGroup, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultSkillGroup, true
	}
	for g := SkillA; g <= SkillF; g++ {
		if skillLetters[g] == s {
			return g, true
		}
	}
	return SkillUnknown, false
}

// BaseRating returns the fixed base rating of the group.
func (g SkillGroup) BaseRating() float64 {
	if int(g) >= len(skillBase) {
		return skillBase[SkillUnknown]
	}
	return skillBase[g]
}

// TopTier reports whether the group is spread across teams by the optimizer.
func (g SkillGroup) TopTier() bool { return g == SkillA }

func (g SkillGroup) String() string {
	if int(g) >= len(skillLetters) {
		return skillLetters[SkillUnknown]
	}
	return skillLetters[g]
}

// MarshalText encodes the group as its letter.
func (g SkillGroup) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// UnmarshalText decodes a letter; unknown letters become SkillUnknown.
func (g *SkillGroup) UnmarshalText(b []byte) error {
	*g, _ = ParseSkillGroup(string(b))
	return nil
}

// Player is a rated member of the roster. Players are mutated in place by
// rating and chemistry updates.
type Player struct {
	Name          string             `json:"name"`
	SkillGroup    SkillGroup         `json:"skill_group"`
	Rating        float64            `json:"rating"`
	Sigma         float64            `json:"sigma"`
	LastActive    time.Time          `json:"last_active"`
	GamesPlayed   int                `json:"games_played"`
	Wins          int                `json:"wins"`
	PointsFor     int                `json:"points_for"`
	PointsAgainst int                `json:"points_against"`
	Chemistry     map[string]float64 `json:"chemistry,omitempty"`
}

// NewPlayer returns a default-rated player of the given group, active at now.
func NewPlayer(name string, group SkillGroup, now time.Time) *Player {
	return &Player{
		Name:       name,
		SkillGroup: group,
		Rating:     DefaultRating,
		Sigma:      DefaultSigma,
		LastActive: now,
		Chemistry:  make(map[string]float64),
	}
}

// Clone returns a deep copy of p.
func (p *Player) Clone() *Player {
	c := *p
	c.Chemistry = make(map[string]float64, len(p.Chemistry))
	for k, v := range p.Chemistry {
		c.Chemistry[k] = v
	}
	return &c
}

// Reset restores default statistics while keeping name and skill group.
// The rating restarts from the group's base rating.
func (p *Player) Reset(now time.Time) {
	p.Rating = p.SkillGroup.BaseRating()
	p.Sigma = DefaultSigma
	p.LastActive = now
	p.GamesPlayed = 0
	p.Wins = 0
	p.PointsFor = 0
	p.PointsAgainst = 0
	p.Chemistry = make(map[string]float64)
}

// WinPercentage returns wins over games played, 0 when no games were played.
func (p *Player) WinPercentage() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.GamesPlayed) * 100
}

// Team is an unordered group of players.
type Team []*Player

// Names returns the player names in team order.
func (t Team) Names() []string {
	names := make([]string, len(t))
	for i, p := range t {
		names[i] = p.Name
	}
	return names
}

// Contains reports whether a player with the given name is in the team.
func (t Team) Contains(name string) bool {
	for _, p := range t {
		if p.Name == name {
			return true
		}
	}
	return false
}
