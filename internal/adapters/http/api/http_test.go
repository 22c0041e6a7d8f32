package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/rally/internal/adapters/http/api"
	"github.com/okian/rally/internal/adapters/mq/queue"
	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newService() *service.Service {
	return service.New(
		service.WithLogger(logger.Nop()),
		service.WithSeed(1),
		service.WithPairIterations(20),
		service.WithMultiIterations(20),
	)
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder, v any) {
	So(json.NewDecoder(rec.Body).Decode(v), ShouldBeNil)
}

// fullQueue rejects every submission as if the queue were saturated.
type fullQueue struct {
	*service.Service
}

func (f fullQueue) SubmitGame(_ context.Context, g model.GameResult) (string, bool, error) {
	return g.ID, false, fmt.Errorf("submit: %w", queue.ErrFull)
}

const game = `{"id":"g1","team1":["ana","bo"],"team2":["cy","di"],"score1":25,"score2":18}`

func TestHealthAndStats(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(newService())

		Convey("When requesting /healthz", func() {
			rec := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then metrics are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "rally_matchmaker_")
			})
		})

		Convey("When requesting /stats", func() {
			rec := do(mux, http.MethodGet, "/stats", "")

			Convey("Then service statistics are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				decode(rec, &stats)
				So(stats["started"], ShouldEqual, false)
			})
		})

		Convey("When using the wrong method", func() {
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/games", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGames(t *testing.T) {
	Convey("Given a server over a stopped service", t, func() {
		mux := newMux(newService())

		Convey("When a game is posted for queueing", func() {
			rec := do(mux, http.MethodPost, "/games", game)

			Convey("Then the service is unavailable", func() {
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When a game is posted synchronously", func() {
			rec := do(mux, http.MethodPost, "/games?sync=true", game)
			So(rec.Code, ShouldEqual, http.StatusOK)

			Convey("Then the players reflect it", func() {
				rec := do(mux, http.MethodGet, "/players/ana", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats types.PlayerStats
				decode(rec, &stats)
				So(stats.GamesPlayed, ShouldEqual, 1)
				So(stats.Wins, ShouldEqual, 1)
				So(stats.RecentGames, ShouldHaveLength, 1)
			})

			Convey("And the leaderboard ranks the winners first", func() {
				rec := do(mux, http.MethodGet, "/leaderboard?limit=2", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				decode(rec, &entries)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Name, ShouldEqual, "ana")

				rec = do(mux, http.MethodGet, "/rank/bo", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				var e types.Entry
				decode(rec, &e)
				So(e.Rank, ShouldEqual, 1)
			})
		})

		Convey("When the body is malformed", func() {
			So(do(mux, http.MethodPost, "/games?sync=true", `{"team1":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/games?sync=true", `{"team1":["a"]}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/games?sync=true", `{"team1":["a"],"team2":["b"],"played_at":"yesterday"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/games?sync=true", `{"team1":["a"],"team2":["a"]}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a server over a started service", t, func() {
		svc := newService()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When the same game is posted twice", func() {
			first := do(mux, http.MethodPost, "/games", game)
			second := do(mux, http.MethodPost, "/games", game)

			Convey("Then the first is accepted and the second is a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				var ack map[string]any
				decode(second, &ack)
				So(ack["duplicate"], ShouldEqual, true)
				So(ack["id"], ShouldEqual, "g1")
			})
		})
	})

	Convey("Given a started service taking games both ways", t, func() {
		svc := newService()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When one game ID is posted synchronously twice and then queued", func() {
			first := do(mux, http.MethodPost, "/games?sync=true", game)
			second := do(mux, http.MethodPost, "/games?sync=true", game)
			third := do(mux, http.MethodPost, "/games", game)

			Convey("Then only the first application counts", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				var ack map[string]any
				decode(first, &ack)
				So(ack["status"], ShouldEqual, "recorded")

				So(second.Code, ShouldEqual, http.StatusOK)
				ack = nil
				decode(second, &ack)
				So(ack["duplicate"], ShouldEqual, true)

				So(third.Code, ShouldEqual, http.StatusOK)
				ack = nil
				decode(third, &ack)
				So(ack["duplicate"], ShouldEqual, true)

				rec := do(mux, http.MethodGet, "/players/ana", "")
				var stats types.PlayerStats
				decode(rec, &stats)
				So(stats.GamesPlayed, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a saturated queue", t, func() {
		mux := newMux(fullQueue{newService()})

		Convey("Then posting a game reports backpressure", func() {
			rec := do(mux, http.MethodPost, "/games", game)
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			var body map[string]string
			decode(rec, &body)
			So(body["code"], ShouldEqual, "backpressure")
		})
	})
}

func TestTeams(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(newService())

		Convey("When creating two teams of two", func() {
			rec := do(mux, http.MethodPost, "/teams", `{"players":["a","b","c","d"],"team_size":2}`)

			Convey("Then both teams are filled", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res struct {
					Team1 struct{ Players []string } `json:"team1"`
					Team2 struct{ Players []string } `json:"team2"`
				}
				decode(rec, &res)
				So(res.Team1.Players, ShouldHaveLength, 2)
				So(res.Team2.Players, ShouldHaveLength, 2)
			})
		})

		Convey("When creating multiple teams with a schedule", func() {
			rec := do(mux, http.MethodPost, "/teams/multi", `{"players":["a","b","c","d","e","f","g","h"],"team_size":2,"rounds":3}`)

			Convey("Then every team is scheduled", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res struct {
					TeamCount int `json:"team_count"`
					Schedule  struct {
						Rounds [][]map[string]any `json:"rounds"`
					} `json:"schedule"`
				}
				decode(rec, &res)
				So(res.TeamCount, ShouldEqual, 4)
				So(res.Schedule.Rounds, ShouldHaveLength, 3)
				So(res.Schedule.Rounds[0], ShouldHaveLength, 2)
			})
		})

		Convey("When no players are given", func() {
			So(do(mux, http.MethodPost, "/teams", `{"players":[]}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/teams/multi", `{"players":["a","b"],"rounds":-1}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestPlayers(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(newService(), api.WithMaxLeaderboardLimit(5))

		Convey("When players check in", func() {
			rec := do(mux, http.MethodPost, "/checkin", `{"players":["ana","bo","ana"]}`)

			Convey("Then each is checked in once", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res map[string]any
				decode(rec, &res)
				So(res["checked_in"], ShouldEqual, 2.0)
			})

			Convey("And a reset of everyone counts them", func() {
				rec := do(mux, http.MethodPost, "/reset", `{}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res map[string]int
				decode(rec, &res)
				So(res["reset"], ShouldEqual, 2)
			})

			Convey("And a single reset succeeds", func() {
				So(do(mux, http.MethodPost, "/reset", `{"name":"bo"}`).Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When an unknown player is requested", func() {
			So(do(mux, http.MethodGet, "/players/nobody", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/rank/nobody", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/reset", `{"name":"nobody"}`).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the leaderboard limit is out of range", func() {
			So(do(mux, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)

			rec := do(mux, http.MethodGet, "/leaderboard?limit=6", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			var body map[string]string
			decode(rec, &body)
			So(body["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("When feedback names an invalid winner", func() {
			rec := do(mux, http.MethodPost, "/feedback", `{"team1":["a"],"team2":["b"],"winner":3}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When feedback is valid", func() {
			rec := do(mux, http.MethodPost, "/feedback", `{"team1":["a"],"team2":["b"],"winner":1}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			var out map[string]any
			decode(rec, &out)
			So(out["team1_won"], ShouldEqual, true)
		})
	})
}
