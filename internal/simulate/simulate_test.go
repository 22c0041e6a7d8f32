package simulate

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/rally/internal/adapters/http/api"
	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func TestGenerateGames(t *testing.T) {
	Convey("Given a seeded population", t, func() {
		rng := rand.New(rand.NewSource(5))
		players := generatePlayers(rng, 10)

		Convey("When games are generated", func() {
			games := generateGames(rng, players, 50, 4)

			Convey("Then every game has two disjoint full teams and a winner at 25", func() {
				So(games, ShouldHaveLength, 50)
				for _, g := range games {
					So(g.Team1, ShouldHaveLength, 4)
					So(g.Team2, ShouldHaveLength, 4)
					seen := map[string]bool{}
					for _, n := range append(append([]string(nil), g.Team1...), g.Team2...) {
						So(seen[n], ShouldBeFalse)
						seen[n] = true
					}
					So(max(g.Score1, g.Score2), ShouldEqual, winningScore)
					So(g.Score1, ShouldNotEqual, g.Score2)
					So(g.ID, ShouldNotBeEmpty)
				}
			})
		})

		Convey("When the team size exceeds the population", func() {
			games := generateGames(rng, players, 3, 8)

			Convey("Then teams shrink to half the population", func() {
				So(games[0].Team1, ShouldHaveLength, 5)
			})
		})
	})
}

func TestRankCorrelation(t *testing.T) {
	Convey("Given players with known strengths", t, func() {
		players := []player{{"a", 130}, {"b", 110}, {"c", 90}, {"d", 70}}

		Convey("A leaderboard in strength order correlates perfectly", func() {
			board := []leaderboardEntry{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}, {5, "outsider"}}
			r, n, err := rankCorrelation(players, board)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 4)
			So(r, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("A reversed leaderboard anti-correlates", func() {
			board := []leaderboardEntry{{1, "d"}, {2, "c"}, {3, "b"}, {4, "a"}}
			r, _, err := rankCorrelation(players, board)
			So(err, ShouldBeNil)
			So(r, ShouldAlmostEqual, -1.0, 1e-9)
			So(errors.Is(verify(Report{Correlation: r}, 0.5), ErrVerification), ShouldBeTrue)
		})

		Convey("A leaderboard without simulated players is an error", func() {
			_, _, err := rankCorrelation(players, []leaderboardEntry{{1, "x"}})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service behind an HTTP server", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()), service.WithQueueSize(1024))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When a simulation runs against it", func() {
			report, err := Run(context.Background(), Config{
				BaseURL:        srv.URL,
				Players:        16,
				Games:          200,
				TeamSize:       4,
				Workers:        1,
				Seed:           3,
				ProcessTimeout: 20 * time.Second,
				MinCorrelation: 0.3,
			})

			Convey("Then every game is applied and ratings track strength", func() {
				So(err, ShouldBeNil)
				So(report.Accepted, ShouldEqual, 200)
				So(report.Failed, ShouldEqual, 0)
				So(report.Processed, ShouldBeGreaterThanOrEqualTo, 200)
				So(report.Ranked, ShouldEqual, 16)
				So(report.Correlation, ShouldBeGreaterThan, 0.3)
			})
		})
	})

	Convey("Given no service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), Config{BaseURL: srv.URL, Timeout: time.Second})
			So(err, ShouldNotBeNil)
		})
	})
}
