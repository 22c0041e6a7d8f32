// Package rating implements the player rating model: a blend of the coarse
// skill-group rating with a learned rating, a pairwise team update rule
// driven by how surprising a result was, and inactivity decay.
package rating

import (
	"math"
	"time"

	"github.com/okian/rally/internal/domain/model"
)

// Default model parameters.
const (
	defaultBeta              = 20.0
	defaultDynamicFactor     = 5.0
	defaultUncertaintyFactor = 0.5

	// skill-group weight decays linearly over this many games down to minSkillWeight.
	weightHorizonGames = 30
	minSkillWeight     = 0.2

	sigmaShrink = 0.95

	decayGraceDays   = 30
	decayDaysPerUnit = 200.0
	maxDecay         = 0.25
	sigmaGrowthDays  = 30.0
	sigmaGrowthStep  = 10.0
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithBeta sets how many rating points translate into one point of expected
// score difference.
func WithBeta(beta float64) Option {
	return func(m *Model) {
		if beta > 0 {
			m.beta = beta
		}
	}
}

// WithDynamicFactor sets the base adjustment size of an update.
func WithDynamicFactor(f float64) Option {
	return func(m *Model) {
		if f > 0 {
			m.dynamicFactor = f
		}
	}
}

// WithUncertaintyFactor sets the strength of the pull towards the team mean.
func WithUncertaintyFactor(f float64) Option {
	return func(m *Model) {
		if f >= 0 {
			m.uncertaintyFactor = f
		}
	}
}

// Model updates ratings from game outcomes. It holds no per-player state and
// no random source, so updates are deterministic for fixed inputs.
type Model struct {
	beta              float64
	dynamicFactor     float64
	uncertaintyFactor float64
}

// New creates a Model with the default parameters.
func New(opts ...Option) *Model {
	m := &Model{
		beta:              defaultBeta,
		dynamicFactor:     defaultDynamicFactor,
		uncertaintyFactor: defaultUncertaintyFactor,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SkillWeight is the share of the skill-group base rating in the weighted
// rating: 1.0 with no games, falling linearly to 0.2 at 30 games and beyond.
func SkillWeight(gamesPlayed int) float64 {
	w := 1.0 - float64(gamesPlayed)*0.8/weightHorizonGames
	return math.Max(minSkillWeight, math.Min(1.0, w))
}

// Weighted returns the blend of skill-group base and learned rating.
func Weighted(p *model.Player) float64 {
	w := SkillWeight(p.GamesPlayed)
	return w*p.SkillGroup.BaseRating() + (1-w)*p.Rating
}

// Conservative returns the weighted rating minus two sigma.
func Conservative(p *model.Player) float64 {
	return Weighted(p) - 2*p.Sigma
}

// ConfidenceInterval returns rating ± two sigma.
func ConfidenceInterval(p *model.Player) (low, high float64) {
	return p.Rating - 2*p.Sigma, p.Rating + 2*p.Sigma
}

// TeamSkill returns the mean weighted rating of a team, 0 for an empty team.
func TeamSkill(team model.Team) float64 {
	if len(team) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range team {
		sum += Weighted(p)
	}
	return sum / float64(len(team))
}

// teamUncertainty is the root of summed variances divided by team size.
func teamUncertainty(team model.Team) float64 {
	sum := 0.0
	for _, p := range team {
		sum += p.Sigma * p.Sigma
	}
	return math.Sqrt(sum) / float64(len(team))
}

// Outcome describes the intermediate values of one update.
type Outcome struct {
	Team1Won    bool    `json:"team1_won"`
	Skill1      float64 `json:"skill1"`
	Skill2      float64 `json:"skill2"`
	Surprise    float64 `json:"surprise"`
	Adjustment  float64 `json:"adjustment"`
	Team1Update float64 `json:"team1_update"`
	Team2Update float64 `json:"team2_update"`
}

// Update applies a game result to both teams in place. Both team skills are
// taken before any player is touched. An empty team leaves everyone as is.
func (m *Model) Update(team1, team2 model.Team, score1, score2 int) Outcome {
	if len(team1) == 0 || len(team2) == 0 {
		return Outcome{}
	}

	out := Outcome{Team1Won: score1 > score2}
	scoreDiff := math.Abs(float64(score1 - score2))

	out.Skill1 = TeamSkill(team1)
	out.Skill2 = TeamSkill(team2)
	uncertainty1 := teamUncertainty(team1)
	uncertainty2 := teamUncertainty(team2)

	perfDiff := scoreDiff
	if !out.Team1Won {
		perfDiff = -scoreDiff
	}
	expectedDiff := out.Skill1 - out.Skill2
	out.Surprise = perfDiff - expectedDiff/m.beta

	// Close games and surprising results move ratings more, blowouts less.
	adjustment := m.dynamicFactor * (1.0 / (1.0 + 0.1*scoreDiff)) * (1.0 + math.Abs(out.Surprise)/10.0)
	adjustment *= math.Min(1, (uncertainty1+uncertainty2)/100)
	out.Adjustment = adjustment

	out.Team1Update = adjustment * out.Surprise / float64(len(team1))
	out.Team2Update = -adjustment * out.Surprise / float64(len(team2))

	m.applyTeam(team1, out.Team1Update, out.Skill1)
	m.applyTeam(team2, out.Team2Update, out.Skill2)
	return out
}

func (m *Model) applyTeam(team model.Team, teamUpdate, teamSkill float64) {
	for _, p := range team {
		// pull outliers back towards the team mean
		individual := teamUpdate - m.uncertaintyFactor*((p.Rating-teamSkill)/100)
		p.Rating += individual
		p.Sigma = math.Max(model.MinSigma, p.Sigma*sigmaShrink)
	}
}

// ApplyDecay moves the rating of every player inactive for more than 30 days
// towards the population mean and widens their uncertainty. It returns the
// number of players that decayed.
func (m *Model) ApplyDecay(players []*model.Player, today time.Time) int {
	decayed := 0
	for _, p := range players {
		if p.LastActive.IsZero() {
			continue
		}
		days := DaysBetween(p.LastActive, today)
		if days <= decayGraceDays {
			continue
		}
		decay := math.Min(float64(days)/decayDaysPerUnit, maxDecay)
		p.Rating = p.Rating*(1-decay) + model.MeanRating*decay
		p.Sigma = math.Min(p.Sigma+float64(days)/sigmaGrowthDays*sigmaGrowthStep, model.MaxSigma)
		decayed++
	}
	return decayed
}

// DaysBetween counts calendar days from a to b, ignoring the time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
