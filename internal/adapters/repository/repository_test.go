package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/rally/internal/domain/model"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRoster(players ...*model.Player) *InMemoryRoster {
	return NewInMemoryRoster(WithClock(func() time.Time { return testNow }), WithPlayers(players))
}

func TestInMemoryRoster_BasicOperations(t *testing.T) {
	ctx := context.Background()
	r := newTestRoster()

	if count := r.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	players, err := r.Select(ctx, []string{"cy", "ana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(players) != 2 || players[0].Name != "cy" || players[1].Name != "ana" {
		t.Fatalf("unexpected selection: %+v", players)
	}
	if players[0].SkillGroup != model.SkillC || players[0].Rating != 100 || players[0].Sigma != 100 {
		t.Errorf("new players should be default rated, got %+v", players[0])
	}
	if r.Count(ctx) != 2 {
		t.Errorf("expected count 2, got %d", r.Count(ctx))
	}

	// copies do not leak into the roster
	players[0].Rating = 500
	p, err := r.Player(ctx, "cy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Rating != 100 {
		t.Errorf("expected stored rating 100, got %f", p.Rating)
	}

	snap := r.Snapshot(ctx)
	if len(snap) != 2 || snap[0].Name != "ana" || snap[1].Name != "cy" {
		t.Errorf("snapshot should be ordered by name, got %v", model.Team(snap).Names())
	}

	if _, err := r.Player(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Select(ctx, []string{"ok", "  "}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestInMemoryRoster_Mutate(t *testing.T) {
	ctx := context.Background()
	r := newTestRoster(model.NewPlayer("ana", model.SkillB, testNow))

	sentinel := errors.New("boom")
	err := r.Mutate(ctx, func(tx Tx) error {
		tx.Player("ana").Wins = 3
		tx.Player("bo").GamesPlayed = 1
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error, got %v", err)
	}

	p, _ := r.Player(ctx, "ana")
	if p.Wins != 3 {
		t.Errorf("expected in-place change to be visible, got %d wins", p.Wins)
	}
	if _, err := r.Player(ctx, "bo"); err != nil {
		t.Errorf("expected bo to be created: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := r.Mutate(cancelled, func(Tx) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryRoster_MutatePanicReleasesLock(t *testing.T) {
	ctx := context.Background()
	r := newTestRoster(model.NewPlayer("ana", model.SkillB, testNow))

	func() {
		defer func() {
			if rec := recover(); rec == nil {
				t.Fatal("expected the callback panic to propagate")
			}
		}()
		_ = r.Mutate(ctx, func(Tx) error { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Mutate(ctx, func(tx Tx) error {
			tx.Player("bo")
			return nil
		})
		_ = r.Count(ctx)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("roster lock still held after a panicking Mutate")
	}
	if r.Count(ctx) != 2 {
		t.Errorf("expected count 2, got %d", r.Count(ctx))
	}
}

func TestInMemoryRoster_Games(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRoster(WithMaxGames(3))

	_ = r.Mutate(ctx, func(tx Tx) error {
		tx.AppendGame(model.GameResult{ID: "g1", Team1: []string{"a"}, Team2: []string{"b"}})
		tx.AppendGame(model.GameResult{ID: "g2", Team1: []string{"a"}, Team2: []string{"c"}})
		tx.AppendGame(model.GameResult{ID: "g3", Team1: []string{"b"}, Team2: []string{"c"}})
		tx.AppendGame(model.GameResult{ID: "g4", Team1: []string{"c"}, Team2: []string{"a"}})
		return nil
	})

	all := r.Games(ctx, "", 0)
	if len(all) != 3 || all[0].ID != "g4" || all[2].ID != "g2" {
		t.Fatalf("expected newest three games, got %+v", all)
	}
	forA := r.Games(ctx, "a", 1)
	if len(forA) != 1 || forA[0].ID != "g4" {
		t.Errorf("expected latest game of a, got %+v", forA)
	}
	if got := r.Games(ctx, "zed", 10); len(got) != 0 {
		t.Errorf("expected no games, got %d", len(got))
	}
}

func TestInMemoryRoster_Leaderboard(t *testing.T) {
	ctx := context.Background()
	a := model.NewPlayer("ana", model.SkillA, testNow)
	b := model.NewPlayer("bo", model.SkillC, testNow)
	c := model.NewPlayer("cy", model.SkillC, testNow)
	d := model.NewPlayer("di", model.SkillF, testNow)
	d.Sigma = 25
	r := newTestRoster(a, b, c, d)

	top, err := r.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// conservative: ana -40, bo -100, cy -100, di -50
	want := []struct {
		name string
		rank int
	}{{"ana", 1}, {"di", 2}, {"bo", 3}, {"cy", 3}}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, w := range want {
		if top[i].Name != w.name || top[i].Rank != w.rank {
			t.Errorf("entry %d: expected %s#%d, got %s#%d", i, w.name, w.rank, top[i].Name, top[i].Rank)
		}
	}

	e, err := r.Rank(ctx, "cy")
	if err != nil || e.Rank != 3 || e.Conservative != -100 {
		t.Errorf("unexpected rank entry %+v (%v)", e, err)
	}
	if _, err := r.Rank(ctx, "zed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if top, _ := r.TopN(ctx, 2); len(top) != 2 {
		t.Errorf("expected limit to apply, got %d", len(top))
	}
}

func TestInMemoryRoster_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	r := newTestRoster()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Mutate(ctx, func(tx Tx) error {
				tx.Player("shared").GamesPlayed++
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = r.Snapshot(ctx)
			_, _ = r.TopN(ctx, 5)
		}()
	}
	wg.Wait()

	p, _ := r.Player(ctx, "shared")
	if p.GamesPlayed != 20 {
		t.Errorf("expected 20 games, got %d", p.GamesPlayed)
	}
}

const rosterYAML = `
players:
  - name: ana
    skill_group: a
    rating: 131.5
    sigma: 60
    last_active: 2026-04-20
    games_played: 12
    wins: 8
    points_for: 250
    points_against: 210
    chemistry:
      bo: 4.5
      cy: nope
  - name: bo
    skill_group: ""
    rating: lots
    sigma: 900
    last_active: yesterday
    games_played: -3
    wins: 2
  - name: cy
    skill_group: Z
    chemistry: broken
  - skill_group: B
  - name: ana
    skill_group: B
    rating: 140
`

func TestParseRoster(t *testing.T) {
	players, err := ParseRoster([]byte(rosterYAML), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}

	ana := players[0]
	if ana.Name != "ana" || ana.SkillGroup != model.SkillB || ana.Rating != 140 {
		t.Errorf("later duplicate should replace ana, got %+v", ana)
	}

	bo := players[1]
	if bo.SkillGroup != model.SkillC || bo.Rating != 100 {
		t.Errorf("bo should fall back to defaults, got %+v", bo)
	}
	if bo.Sigma != model.MaxSigma {
		t.Errorf("bo sigma should be clamped, got %f", bo.Sigma)
	}
	if !bo.LastActive.Equal(testNow) {
		t.Errorf("bad date should mean active now, got %v", bo.LastActive)
	}
	if bo.GamesPlayed != 0 || bo.Wins != 0 {
		t.Errorf("bad counters should be zero and wins capped, got %d/%d", bo.GamesPlayed, bo.Wins)
	}

	cy := players[2]
	if cy.SkillGroup != model.SkillUnknown || cy.SkillGroup.BaseRating() != 100 {
		t.Errorf("unknown letter should keep base 100, got %v", cy.SkillGroup)
	}
	if len(cy.Chemistry) != 0 {
		t.Errorf("broken chemistry should be ignored, got %v", cy.Chemistry)
	}
}

func TestParseRoster_Fields(t *testing.T) {
	players, err := ParseRoster([]byte(`
players:
  - name: ana
    skill_group: a
    rating: 131.5
    sigma: 60
    last_active: 2026-04-20
    games_played: 12
    wins: 8
    points_for: 250
    points_against: 210
    chemistry: {bo: 4.5, cy: nope}
`), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := players[0]
	if p.SkillGroup != model.SkillA || p.Rating != 131.5 || p.Sigma != 60 {
		t.Errorf("unexpected ratings %+v", p)
	}
	if !p.LastActive.Equal(time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", p.LastActive)
	}
	if p.GamesPlayed != 12 || p.Wins != 8 || p.PointsFor != 250 || p.PointsAgainst != 210 {
		t.Errorf("unexpected counters %+v", p)
	}
	if len(p.Chemistry) != 1 || p.Chemistry["bo"] != 4.5 {
		t.Errorf("unexpected chemistry %v", p.Chemistry)
	}
}

func TestLoadRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yaml")
	if err := os.WriteFile(path, []byte("players:\n  - name: solo\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	players, err := LoadRoster(path, testNow)
	if err != nil || len(players) != 1 || players[0].Name != "solo" {
		t.Fatalf("unexpected load result %v (%v)", players, err)
	}

	if _, err := LoadRoster(filepath.Join(dir, "missing.yaml"), testNow); !errors.Is(err, ErrLoadRoster) {
		t.Errorf("expected ErrLoadRoster, got %v", err)
	}
	if _, err := ParseRoster([]byte("players: [unterminated"), testNow); !errors.Is(err, ErrLoadRoster) {
		t.Errorf("expected ErrLoadRoster for bad yaml, got %v", err)
	}
}
