// Package service wires the rating, chemistry and team-balancing domain into
// the operations served over HTTP and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/rally/internal/adapters/mq/queue"
	"github.com/okian/rally/internal/adapters/mq/worker"
	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/balance"
	"github.com/okian/rally/internal/domain/chemistry"
	"github.com/okian/rally/internal/domain/dedupe"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/internal/domain/schedule"
	"github.com/okian/rally/internal/domain/scoring"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

const (
	bestTeammates   = 5
	recentGames     = 10
	shutdownTimeout = 5 * time.Second

	// Manual feedback is recorded as a close 25-22 game.
	feedbackWinningScore = 25
	feedbackLosingScore  = 22
)

// Service implements the matchmaking operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster    repository.Roster
	tracker   *chemistry.Tracker
	rating    *rating.Model
	estimator *scoring.Estimator
	optimizer *balance.Optimizer
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	recorder  *worker.InMemoryWorker

	// Configuration
	queueSize       int
	dedupeSize      int
	teamSize        int
	pairIterations  int
	multiIterations int
	trialWorkers    int
	seed            int64
	ratingOpts      []rating.Option
	now             func() time.Time

	// Team searches draw their trial seeds from one source so a fixed seed
	// reproduces the sequence of results.
	rngMu sync.Mutex
	rng   *rand.Rand

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// TeamsResult is a two-team split with its diagnostics as text.
type TeamsResult struct {
	balance.PairResult
	Warnings []string `json:"warnings,omitempty"`
}

// MultiRequest asks for a multi-team split of the named players.
type MultiRequest struct {
	Players   []string `json:"players"`
	TeamSize  int      `json:"team_size"`
	TeamCount int      `json:"team_count"`
	Rounds    int      `json:"rounds"`
}

// MultiTeams is a multi-team split with either a round-robin schedule
// (when rounds were requested) or one round of greedy matchups.
type MultiTeams struct {
	balance.MultiResult
	Schedule *schedule.Schedule `json:"schedule,omitempty"`
	Round    schedule.Round     `json:"round,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:       1024,
		dedupeSize:      10_000,
		teamSize:        balance.DefaultTeamSize,
		pairIterations:  balance.DefaultPairIterations,
		multiIterations: balance.DefaultMultiIterations,
		trialWorkers:    1,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.roster == nil {
		s.roster = repository.NewInMemoryRoster(repository.WithClock(s.now))
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // team search does not need crypto randomness

	s.tracker = chemistry.NewTracker()
	s.rating = rating.New(s.ratingOpts...)
	s.estimator = scoring.NewEstimator()
	s.optimizer = balance.New(
		balance.WithScorer(s.estimator),
		balance.WithPairIterations(s.pairIterations),
		balance.WithMultiIterations(s.multiIterations),
		balance.WithWorkers(s.trialWorkers),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start starts the recorder worker. Synchronous operations work without it;
// SubmitGame requires a started service.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting matchmaking service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.recorder = worker.NewInMemoryWorker(s.queue, s,
		worker.WithLogger(s.logger.Named("recorder")),
	)

	// The worker lives until Stop, not until the caller's context ends.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.recorder.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "matchmaking service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("trialWorkers", s.trialWorkers),
		logger.Int("players", s.roster.Count(ctx)),
	)
	return nil
}

// Stop drains queued games and stops the recorder.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping matchmaking service...")

	_ = s.queue.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.recorder.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "recorder did not drain", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "matchmaking service stopped",
		logger.Int("processed", int(s.recorder.Processed())),
		logger.Int("failed", int(s.recorder.Failed())),
	)
}

// CheckIn marks the named players active today. Unknown names are added as
// default players.
func (s *Service) CheckIn(ctx context.Context, names []string) ([]*model.Player, error) {
	names = uniqueNames(names)
	if len(names) == 0 {
		return nil, ErrNoPlayers
	}

	today := s.now()
	out := make([]*model.Player, 0, len(names))
	err := s.roster.Mutate(ctx, func(tx repository.Tx) error {
		for _, n := range names {
			p := tx.Player(n)
			p.LastActive = today
			out = append(out, p.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	return out, nil
}

// SubmitGame queues a game for recording. A game without an ID gets a fresh
// one. Resubmitting a known ID is reported as a duplicate and not queued.
func (s *Service) SubmitGame(ctx context.Context, g model.GameResult) (id string, duplicate bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", false, ErrNotStarted
	}
	if err := validateGame(g); err != nil {
		return "", false, err
	}
	g = trimmed(g)
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.PlayedAt.IsZero() {
		g.PlayedAt = s.now()
	}

	if s.deduper.SeenAndRecord(ctx, g.ID) {
		metrics.RecordGameDuplicate()
		s.logger.Debug(ctx, "duplicate game, skipping", logger.String("game_id", g.ID))
		return g.ID, true, nil
	}

	if !s.queue.Enqueue(ctx, g) {
		// Allow the client to retry the same ID.
		s.deduper.Unrecord(ctx, g.ID)
		return g.ID, false, fmt.Errorf("submit game %s: %w", g.ID, eventqueue.ErrFull)
	}
	s.logger.Debug(ctx, "game queued",
		logger.String("game_id", g.ID),
		logger.Int("queueLength", s.queue.Len(ctx)),
	)
	return g.ID, false, nil
}

// RecordGameOnce applies a game immediately, honoring the same ID
// de-duplication as SubmitGame. It works without Start.
func (s *Service) RecordGameOnce(ctx context.Context, g model.GameResult) (id string, duplicate bool, err error) {
	if err := validateGame(g); err != nil {
		return "", false, err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, g.ID) {
		metrics.RecordGameDuplicate()
		s.logger.Debug(ctx, "duplicate game, skipping", logger.String("game_id", g.ID))
		return g.ID, true, nil
	}
	if err := s.RecordGame(ctx, g); err != nil {
		s.deduper.Unrecord(ctx, g.ID)
		return g.ID, false, err
	}
	return g.ID, false, nil
}

// RecordGame applies a game result: player statistics first, then the
// rating update, then chemistry for both teams, then the game log and
// inactivity decay. Ties credit team 2.
func (s *Service) RecordGame(ctx context.Context, g model.GameResult) error {
	if err := validateGame(g); err != nil {
		return err
	}
	g = trimmed(g)
	today := s.now()
	if g.PlayedAt.IsZero() {
		g.PlayedAt = today
	}

	var (
		out     rating.Outcome
		decayed int
	)
	err := s.roster.Mutate(ctx, func(tx repository.Tx) error {
		team1 := liveTeam(tx, g.Team1)
		team2 := liveTeam(tx, g.Team2)
		team1Won := g.Team1Won()

		recordStats(team1, today, team1Won, g.Score1, g.Score2)
		recordStats(team2, today, !team1Won, g.Score2, g.Score1)

		out = s.rating.Update(team1, team2, g.Score1, g.Score2)

		s.tracker.Update(team1, team1Won)
		s.tracker.Update(team2, !team1Won)

		tx.AppendGame(g)
		decayed = s.rating.ApplyDecay(tx.All(), today)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record game %s: %w", g.ID, err)
	}

	metrics.RecordGameRecorded()
	metrics.RecordRatingUpdate(math.Abs(out.Team1Update))
	if decayed > 0 {
		metrics.RecordDecay(decayed)
	}
	s.logger.Debug(ctx, "game recorded",
		logger.String("game_id", g.ID),
		logger.Bool("team1Won", out.Team1Won),
		logger.Float64("surprise", out.Surprise),
		logger.Int("decayed", decayed),
	)
	return nil
}

// CreateTeams splits the named players into two teams of size players.
// A size of zero uses the configured team size.
func (s *Service) CreateTeams(ctx context.Context, names []string, size int) (TeamsResult, error) {
	players, err := s.selectPlayers(ctx, names)
	if err != nil {
		return TeamsResult{}, err
	}
	if size <= 0 {
		size = s.teamSize
	}

	start := time.Now()
	s.rngMu.Lock()
	res := s.optimizer.Pair(s.rng, players, size)
	s.rngMu.Unlock()

	metrics.RecordOptimizerRun(metrics.KindPair, float64(time.Since(start).Milliseconds()), res.Trials, 0, res.Fallback)
	if res.TeamSize > 0 {
		metrics.RecordMatchQuality(res.Quality)
	}
	s.logDiagnostics(ctx, "two-team search", res.Diagnostics)

	return TeamsResult{PairResult: res, Warnings: messages(res.Diagnostics)}, nil
}

// CreateMultipleTeams splits the named players into balanced teams. With
// rounds > 0 the teams get a round-robin schedule; otherwise one round of
// greedy matchups.
func (s *Service) CreateMultipleTeams(ctx context.Context, req MultiRequest) (MultiTeams, error) {
	players, err := s.selectPlayers(ctx, req.Players)
	if err != nil {
		return MultiTeams{}, err
	}
	size := req.TeamSize
	if size <= 0 {
		size = s.teamSize
	}

	start := time.Now()
	s.rngMu.Lock()
	res := s.optimizer.Multi(s.rng, players, size, req.TeamCount)
	s.rngMu.Unlock()

	metrics.RecordOptimizerRun(metrics.KindMulti, float64(time.Since(start).Milliseconds()), res.Trials-res.Skipped, res.Skipped, res.Fallback)
	for _, m := range res.Matchups {
		metrics.RecordMatchQuality(m.Quality)
	}

	out := MultiTeams{MultiResult: res}
	diags := append([]error(nil), res.Diagnostics...)
	teams := res.Members()
	if req.Rounds > 0 {
		sched := schedule.Create(teams, req.Rounds, s.estimator)
		diags = append(diags, sched.Diagnostics...)
		out.Schedule = &sched
	} else {
		out.Round = schedule.OptimalMatchups(teams, s.estimator)
	}
	s.logDiagnostics(ctx, "multi-team search", diags)
	out.Warnings = messages(diags)
	return out, nil
}

// ManualFeedback records a judgement that predictedWinner (1 or 2) was the
// stronger team. It updates ratings as a close game and counts the game
// played; statistics other than games played and chemistry are untouched.
func (s *Service) ManualFeedback(ctx context.Context, team1, team2 []string, predictedWinner int) (rating.Outcome, error) {
	if predictedWinner != 1 && predictedWinner != 2 {
		return rating.Outcome{}, fmt.Errorf("%w: winner must be 1 or 2, got %d", ErrInvalidFeedback, predictedWinner)
	}
	if err := validateTeams(team1, team2); err != nil {
		return rating.Outcome{}, fmt.Errorf("%w: %w", ErrInvalidFeedback, err)
	}

	score1, score2 := feedbackWinningScore, feedbackLosingScore
	if predictedWinner == 2 {
		score1, score2 = score2, score1
	}

	var out rating.Outcome
	err := s.roster.Mutate(ctx, func(tx repository.Tx) error {
		t1 := liveTeam(tx, team1)
		t2 := liveTeam(tx, team2)
		out = s.rating.Update(t1, t2, score1, score2)
		for _, p := range append(t1, t2...) {
			p.GamesPlayed++
		}
		return nil
	})
	if err != nil {
		return rating.Outcome{}, fmt.Errorf("feedback: %w", err)
	}

	metrics.RecordFeedback()
	metrics.RecordRatingUpdate(math.Abs(out.Team1Update))
	return out, nil
}

// PlayerStats returns the detailed view of one player.
func (s *Service) PlayerStats(ctx context.Context, name string) (types.PlayerStats, error) {
	p, err := s.roster.Player(ctx, strings.TrimSpace(name))
	if err != nil {
		return types.PlayerStats{}, err
	}

	low, high := rating.ConfidenceInterval(p)
	stats := types.PlayerStats{
		Name:          p.Name,
		SkillGroup:    p.SkillGroup.String(),
		Rating:        p.Rating,
		Sigma:         p.Sigma,
		Weighted:      rating.Weighted(p),
		Conservative:  rating.Conservative(p),
		IntervalLow:   low,
		IntervalHigh:  high,
		GamesPlayed:   p.GamesPlayed,
		Wins:          p.Wins,
		WinPercentage: p.WinPercentage(),
		PointsFor:     p.PointsFor,
		PointsAgainst: p.PointsAgainst,
		LastActive:    p.LastActive,
		BestTeammates: []types.Teammate{},
		RecentGames:   []types.GameSummary{},
	}
	for _, tm := range chemistry.BestTeammates(p, bestTeammates) {
		stats.BestTeammates = append(stats.BestTeammates, types.Teammate{Name: tm.Name, Chemistry: tm.Score})
	}
	for _, g := range s.roster.Games(ctx, p.Name, recentGames) {
		stats.RecentGames = append(stats.RecentGames, summarize(g, p.Name))
	}
	return stats, nil
}

// ResetPlayer restores a player's default statistics and forgets every
// chemistry entry involving them.
func (s *Service) ResetPlayer(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	err := s.roster.Mutate(ctx, func(tx repository.Tx) error {
		p, ok := tx.Lookup(name)
		if !ok {
			return fmt.Errorf("%q: %w", name, repository.ErrNotFound)
		}
		p.Reset(s.now())
		for _, other := range tx.All() {
			delete(other.Chemistry, name)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset player: %w", err)
	}
	s.tracker.Reset(name)
	s.logger.Info(ctx, "player reset", logger.String("name", name))
	return nil
}

// ResetAll restores default statistics for every player and returns how
// many were reset.
func (s *Service) ResetAll(ctx context.Context) (int, error) {
	n := 0
	err := s.roster.Mutate(ctx, func(tx repository.Tx) error {
		today := s.now()
		for _, p := range tx.All() {
			p.Reset(today)
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset all: %w", err)
	}
	s.tracker.Reset("")
	s.logger.Info(ctx, "all players reset", logger.Int("players", n))
	return n, nil
}

// Leaderboard returns the top n players by conservative rating.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	return s.roster.TopN(ctx, n)
}

// Rank returns the leaderboard entry of one player.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	return s.roster.Rank(ctx, strings.TrimSpace(name))
}

// PairWinRate returns how often two players won together and the number of
// games they shared since the service started.
func (s *Service) PairWinRate(a, b string) (float64, int) {
	return s.tracker.WinRate(a, b)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"teamSize":     s.teamSize,
		"trialWorkers": s.trialWorkers,
		"players":      s.roster.Count(ctx),
		"dedupeLength": s.deduper.Size(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["gamesProcessed"] = s.recorder.Processed()
		stats["gamesFailed"] = s.recorder.Failed()
		metrics.UpdateQueueSize(queueLen)
	}
	metrics.UpdatePlayersTotal(s.roster.Count(ctx))
	return stats
}

func (s *Service) selectPlayers(ctx context.Context, names []string) ([]*model.Player, error) {
	names = uniqueNames(names)
	if len(names) == 0 {
		return nil, ErrNoPlayers
	}
	players, err := s.roster.Select(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	return players, nil
}

func (s *Service) logDiagnostics(ctx context.Context, op string, diags []error) {
	for _, d := range diags {
		s.logger.Warn(ctx, op, logger.Error(d))
	}
}

func liveTeam(tx repository.Tx, names []string) model.Team {
	team := make(model.Team, len(names))
	for i, n := range names {
		team[i] = tx.Player(strings.TrimSpace(n))
	}
	return team
}

func recordStats(team model.Team, today time.Time, won bool, own, opponent int) {
	for _, p := range team {
		p.LastActive = today
		p.GamesPlayed++
		if won {
			p.Wins++
		}
		p.PointsFor += own
		p.PointsAgainst += opponent
	}
}

func summarize(g model.GameResult, name string) types.GameSummary {
	side := g.Side(name)
	own, opponent := g.Score1, g.Score2
	if side == 2 {
		own, opponent = opponent, own
	}
	return types.GameSummary{
		ID:       g.ID,
		PlayedAt: g.PlayedAt,
		Team:     side,
		Score:    fmt.Sprintf("%d-%d", own, opponent),
		Won:      g.WonBy(name),
	}
}

// trimmed returns g with player names trimmed so the game log matches roster keys.
func trimmed(g model.GameResult) model.GameResult { //nolint:gocritic // hugeParam: returns a modified copy
	trim := func(names []string) []string {
		out := make([]string, len(names))
		for i, n := range names {
			out[i] = strings.TrimSpace(n)
		}
		return out
	}
	g.Team1 = trim(g.Team1)
	g.Team2 = trim(g.Team2)
	return g
}

func validateGame(g model.GameResult) error { //nolint:gocritic // hugeParam: value keeps callers' games untouched
	if g.Score1 < 0 || g.Score2 < 0 {
		return fmt.Errorf("%w: negative score", ErrInvalidGame)
	}
	if err := validateTeams(g.Team1, g.Team2); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}
	return nil
}

func validateTeams(team1, team2 []string) error {
	if len(team1) == 0 || len(team2) == 0 {
		return errors.New("both teams need players")
	}
	seen := make(map[string]struct{}, len(team1)+len(team2))
	for _, n := range append(append([]string(nil), team1...), team2...) {
		n = strings.TrimSpace(n)
		if n == "" {
			return errors.New("empty player name")
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("player %q listed twice", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// uniqueNames trims names and drops blanks and repeats, keeping first order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func messages(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

var _ worker.Recorder = (*Service)(nil)
