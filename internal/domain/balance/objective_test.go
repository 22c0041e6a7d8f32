package balance

import (
	"math/rand"
	"testing"
	"time"

	"github.com/okian/rally/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rated(name string, g model.SkillGroup) *model.Player {
	p := model.NewPlayer(name, g, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	p.Sigma = 20
	return p
}

func bond(a, b *model.Player, v float64) {
	a.Chemistry[b.Name] = v
	b.Chemistry[a.Name] = v
}

func TestEvaluateObjective(t *testing.T) {
	Convey("Given hand-built teams of unplayed players", t, func() {
		o := New()
		a, b := rated("a", model.SkillA), rated("b", model.SkillB)
		c, d := rated("c", model.SkillB), rated("d", model.SkillB)
		bond(a, b, 10)
		bond(c, d, -4)

		Convey("When two full teams are scored", func() {
			teams := []model.Team{{a, b}, {c, d}}
			ev := o.evaluate(teams, 2, 130)

			Convey("Then every term of the objective matches the worked value", func() {
				// normalized 140 and 120; effective 142 and 119.2
				So(ev.normalized, ShouldResemble, []float64{140, 120})
				So(ev.variance, ShouldAlmostEqual, 100, 1e-9)
				So(ev.spread, ShouldAlmostEqual, 20, 1e-9)
				So(ev.quality, ShouldAlmostEqual, 20.62706270627062, 1e-9)
				So(ev.chemistry, ShouldAlmostEqual, 3, 1e-9)
				So(ev.score, ShouldAlmostEqual, 1059.4937293729374, 1e-9)
			})
		})

		Convey("When a short team is padded with the global average", func() {
			e := rated("e", model.SkillD)
			teams := []model.Team{{a, b}, {c, d}, {e}}
			ev := o.evaluate(teams, 2, 120)

			Convey("Then quality and chemistry average over every team", func() {
				So(ev.normalized, ShouldResemble, []float64{140, 120, 100})
				So(ev.variance, ShouldAlmostEqual, 266.6666666666667, 1e-9)
				So(ev.spread, ShouldAlmostEqual, 40, 1e-9)
				So(ev.quality, ShouldAlmostEqual, 14.334388702068638, 1e-9)
				So(ev.chemistry, ShouldAlmostEqual, 2, 1e-9)
				So(ev.score, ShouldAlmostEqual, 2786.3233227796463, 1e-9)
			})
		})
	})
}

// firstDraw is the first value a trial generator yields for trial i of a
// search seeded with seed.
func firstDraw(seed int64, i int) int64 {
	rng := rand.New(rand.NewSource(seed))
	var s int64
	for k := 0; k <= i; k++ {
		s = rng.Int63()
	}
	return rand.New(rand.NewSource(s)).Int63()
}

func TestSearchTies(t *testing.T) {
	lower := func(a, b float64) bool { return a < b }

	Convey("Given trials that all score the same", t, func() {
		run := func(r *rand.Rand) (int64, float64, bool) { return r.Int63(), 1, true }

		Convey("Then the first trial wins for any worker count", func() {
			for _, workers := range []int{1, 2, 4, 16} {
				best, found, stats := search(rand.New(rand.NewSource(42)), 10, workers, run, lower)
				So(found, ShouldBeTrue)
				So(stats.Accepted, ShouldEqual, 10)
				So(best, ShouldEqual, firstDraw(42, 0))
			}
		})
	})

	Convey("Given tied trials where the first few are skipped", t, func() {
		call := func(r *rand.Rand) (int64, float64, bool) {
			v := r.Int63()
			return v, 1, v != firstDraw(7, 0) && v != firstDraw(7, 1)
		}

		Convey("Then the first accepted trial wins", func() {
			for _, workers := range []int{1, 4} {
				best, found, stats := search(rand.New(rand.NewSource(7)), 10, workers, call, lower)
				So(found, ShouldBeTrue)
				So(stats.Skipped, ShouldEqual, 2)
				So(best, ShouldEqual, firstDraw(7, 2))
			}
		})
	})

	Convey("Given a strictly better later trial", t, func() {
		target := firstDraw(3, 6)
		run := func(r *rand.Rand) (int64, float64, bool) {
			v := r.Int63()
			if v == target {
				return v, 0, true
			}
			return v, 1, true
		}

		Convey("Then it beats the earlier ties", func() {
			for _, workers := range []int{1, 4} {
				best, _, _ := search(rand.New(rand.NewSource(3)), 10, workers, run, lower)
				So(best, ShouldEqual, target)
			}
		})
	})
}
