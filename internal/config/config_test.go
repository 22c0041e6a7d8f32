package config_test

import (
	"errors"
	"testing"

	"github.com/okian/rally/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TeamSize, convey.ShouldEqual, 6)
			convey.So(cfg.PairIterations, convey.ShouldEqual, 500)
			convey.So(cfg.MultiIterations, convey.ShouldEqual, 200)
			convey.So(cfg.TrialWorkers, convey.ShouldEqual, 1)
			convey.So(cfg.Rating.Beta, convey.ShouldEqual, 20.0)
			convey.So(cfg.Rating.DynamicFactor, convey.ShouldEqual, 5.0)
			convey.So(cfg.Rating.UncertaintyFactor, convey.ShouldEqual, 0.5)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given invalid values", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":     func(c *config.Config) { c.Addr = "" },
			"zero team size": func(c *config.Config) { c.TeamSize = 0 },
			"no iterations":  func(c *config.Config) { c.MultiIterations = 0 },
			"zero beta":      func(c *config.Config) { c.Rating.Beta = 0 },
			"no queue":       func(c *config.Config) { c.QueueSize = 0 },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)

			convey.Convey("Then validation rejects "+name, func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
