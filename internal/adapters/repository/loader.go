package repository

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/rally/internal/domain/model"
)

const dateLayout = "2006-01-02"

// rosterFile is the YAML layout of a roster seed file.
type rosterFile struct {
	Players []playerRecord `yaml:"players"`
}

// playerRecord tolerates malformed values: any field that does not parse
// falls back to the default for a new player.
type playerRecord struct {
	Name          string           `yaml:"name"`
	SkillGroup    string           `yaml:"skill_group"`
	Rating        lenientFloat     `yaml:"rating"`
	Sigma         lenientFloat     `yaml:"sigma"`
	LastActive    lenientDate      `yaml:"last_active"`
	GamesPlayed   lenientInt       `yaml:"games_played"`
	Wins          lenientInt       `yaml:"wins"`
	PointsFor     lenientInt       `yaml:"points_for"`
	PointsAgainst lenientInt       `yaml:"points_against"`
	Chemistry     lenientChemistry `yaml:"chemistry"`
}

type lenientFloat struct {
	value float64
	ok    bool
}

func (f *lenientFloat) UnmarshalYAML(value *yaml.Node) error {
	var v float64
	if err := value.Decode(&v); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		f.value, f.ok = v, true
	}
	return nil
}

type lenientInt struct {
	value int
	ok    bool
}

func (i *lenientInt) UnmarshalYAML(value *yaml.Node) error {
	var v int
	if err := value.Decode(&v); err == nil {
		i.value, i.ok = v, true
	}
	return nil
}

type lenientChemistry map[string]lenientFloat

func (c *lenientChemistry) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]lenientFloat
	if err := value.Decode(&m); err == nil {
		*c = m
	}
	return nil
}

type lenientDate struct {
	time.Time
	ok bool
}

func (d *lenientDate) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time, d.ok = t, true
			return nil
		}
	}
	return nil
}

// LoadRoster reads a YAML roster seed file.
func LoadRoster(path string, now time.Time) ([]*model.Player, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRoster, err)
	}
	return ParseRoster(data, now)
}

// ParseRoster decodes a YAML roster. Records without a name are skipped; a
// later record with the same name replaces an earlier one. Players with an
// unparseable last active date are treated as active at now.
func ParseRoster(data []byte, now time.Time) ([]*model.Player, error) {
	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRoster, err)
	}

	index := make(map[string]int, len(f.Players))
	out := make([]*model.Player, 0, len(f.Players))
	for _, rec := range f.Players {
		p, ok := rec.player(now)
		if !ok {
			continue
		}
		if i, dup := index[p.Name]; dup {
			out[i] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out, nil
}

func (rec playerRecord) player(now time.Time) (*model.Player, bool) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, false
	}
	group, _ := model.ParseSkillGroup(rec.SkillGroup)
	p := model.NewPlayer(name, group, now)

	if rec.Rating.ok {
		p.Rating = rec.Rating.value
	}
	if rec.Sigma.ok {
		p.Sigma = math.Max(model.MinSigma, math.Min(model.MaxSigma, rec.Sigma.value))
	}
	if rec.LastActive.ok {
		p.LastActive = rec.LastActive.Time
	}
	p.GamesPlayed = nonNegative(rec.GamesPlayed)
	p.Wins = min(nonNegative(rec.Wins), p.GamesPlayed)
	p.PointsFor = nonNegative(rec.PointsFor)
	p.PointsAgainst = nonNegative(rec.PointsAgainst)
	for peer, score := range rec.Chemistry {
		if score.ok && peer != "" {
			p.Chemistry[peer] = score.value
		}
	}
	return p, true
}

func nonNegative(v lenientInt) int {
	if !v.ok || v.value < 0 {
		return 0
	}
	return v.value
}
