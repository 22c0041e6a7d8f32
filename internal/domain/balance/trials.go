package balance

import (
	"math/rand"
	"sync"
)

// outcome is what a single trial produced.
type outcome[T any] struct {
	value T
	score float64
	ok    bool
}

// searchStats counts trials by result.
type searchStats struct {
	Trials   int
	Accepted int
	Skipped  int
}

// search maps trials over a worker pool and reduces them to the best one.
//
// Every trial gets its own generator seeded from rng in trial order, so the
// result is the same for any worker count. better reports whether a beats b
// strictly; on ties the lower trial index wins.
func search[T any](rng *rand.Rand, trials, workers int, run func(*rand.Rand) (T, float64, bool), better func(a, b float64) bool) (T, bool, searchStats) {
	seeds := make([]int64, trials)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	results := make([]outcome[T], trials)
	if workers > trials {
		workers = trials
	}
	if workers <= 1 {
		for i, seed := range seeds {
			results[i] = runTrial(seed, run)
		}
	} else {
		idx := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idx {
					results[i] = runTrial(seeds[i], run)
				}
			}()
		}
		for i := range seeds {
			idx <- i
		}
		close(idx)
		wg.Wait()
	}

	var (
		best  T
		found bool
		score float64
		stats = searchStats{Trials: trials}
	)
	for _, r := range results {
		if !r.ok {
			stats.Skipped++
			continue
		}
		stats.Accepted++
		if !found || better(r.score, score) {
			best, score, found = r.value, r.score, true
		}
	}
	return best, found, stats
}

func runTrial[T any](seed int64, run func(*rand.Rand) (T, float64, bool)) outcome[T] {
	v, s, ok := run(rand.New(rand.NewSource(seed))) //nolint:gosec // reproducible search, not security sensitive
	return outcome[T]{value: v, score: s, ok: ok}
}

// shuffled returns a shuffled copy of players.
func shuffled[P any](rng *rand.Rand, players []P) []P {
	out := make([]P, len(players))
	copy(out, players)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
