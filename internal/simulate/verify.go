package simulate

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// rankCorrelation is the Spearman correlation between the hidden strength
// order and the leaderboard order of the players present in both.
func rankCorrelation(players []player, board []leaderboardEntry) (float64, int, error) {
	strength := make(map[string]float64, len(players))
	for _, p := range players {
		strength[p.Name] = p.Strength
	}

	var names []string
	for _, e := range board {
		if _, ok := strength[e.Name]; ok {
			names = append(names, e.Name)
		}
	}
	if len(names) < 2 {
		return 0, len(names), errors.New("fewer than two simulated players on the leaderboard")
	}

	// Leaderboard position is already an order; strength needs ranking.
	boardRank := make([]float64, len(names))
	for i := range names {
		boardRank[i] = float64(i)
	}
	byStrength := append([]string(nil), names...)
	sort.SliceStable(byStrength, func(i, j int) bool { return strength[byStrength[i]] > strength[byStrength[j]] })
	pos := make(map[string]int, len(byStrength))
	for i, n := range byStrength {
		pos[n] = i
	}
	strengthRank := make([]float64, len(names))
	for i, n := range names {
		strengthRank[i] = float64(pos[n])
	}

	return stat.Correlation(boardRank, strengthRank, nil), len(names), nil
}

func verify(r Report, minCorrelation float64) error {
	if r.Correlation < minCorrelation {
		return fmt.Errorf("%w: rank correlation %.3f below %.3f", ErrVerification, r.Correlation, minCorrelation)
	}
	return nil
}
