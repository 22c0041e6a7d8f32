package simulate

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// Strength distribution of the synthetic population and game noise.
const (
	strengthMean   = 100.0
	strengthSpread = 15.0
	gameNoise      = 8.0
	winningScore   = 25
	minMargin      = 2
	maxMargin      = 17
)

// player is a synthetic participant with a strength the service never sees.
type player struct {
	Name     string
	Strength float64
}

// game mirrors the body of POST /games.
type game struct {
	ID     string   `json:"id"`
	Team1  []string `json:"team1"`
	Team2  []string `json:"team2"`
	Score1 int      `json:"score1"`
	Score2 int      `json:"score2"`
}

func generatePlayers(rng *rand.Rand, n int) []player {
	out := make([]player, n)
	for i := range out {
		out[i] = player{
			Name:     fmt.Sprintf("sim-%03d", i),
			Strength: strengthMean + rng.NormFloat64()*strengthSpread,
		}
	}
	return out
}

// generateGames draws random line-ups and scores them from the strength gap
// plus noise. The margin grows with the gap.
func generateGames(rng *rand.Rand, players []player, n, size int) []game {
	if 2*size > len(players) {
		size = len(players) / 2
	}
	games := make([]game, 0, n)
	for i := 0; i < n && size > 0; i++ {
		order := rng.Perm(len(players))
		team1 := pick(players, order[:size])
		team2 := pick(players, order[size:2*size])

		gap := meanStrength(team1) - meanStrength(team2) + rng.NormFloat64()*gameNoise
		margin := minMargin + int(math.Min(maxMargin-minMargin, math.Abs(gap)/2))
		g := game{
			ID:     uuid.NewString(),
			Team1:  names(team1),
			Team2:  names(team2),
			Score1: winningScore,
			Score2: winningScore - margin,
		}
		if gap < 0 {
			g.Score1, g.Score2 = g.Score2, g.Score1
		}
		games = append(games, g)
	}
	return games
}

func pick(players []player, idx []int) []player {
	out := make([]player, len(idx))
	for i, j := range idx {
		out[i] = players[j]
	}
	return out
}

func meanStrength(team []player) float64 {
	sum := 0.0
	for _, p := range team {
		sum += p.Strength
	}
	return sum / float64(len(team))
}

func names(team []player) []string {
	out := make([]string, len(team))
	for i, p := range team {
		out[i] = p.Name
	}
	return out
}
