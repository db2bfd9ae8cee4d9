package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/eventdraw/internal/config"
	"github.com/okian/eventdraw/internal/domain/tuning"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Preset, convey.ShouldEqual, "balanced")
			convey.So(cfg.MaxSessions, convey.ShouldEqual, 1_000)
			convey.So(cfg.MaxPoolSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.MaxCount, convey.ShouldEqual, 100)
			convey.So(cfg.JournalQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.SessionTTL, convey.ShouldEqual, 2*time.Hour)
			convey.So(cfg.JournalPath, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(ctx), convey.ShouldBeNil)
		})

		convey.Convey("Then the default tuning is the balanced preset", func() {
			tc, fellBack := cfg.Tuning()
			convey.So(fellBack, convey.ShouldBeFalse)
			convey.So(tc, convey.ShouldResemble, tuning.Default())
		})
	})

	convey.Convey("Given a config naming an unknown preset", t, func() {
		cfg := config.New(context.Background())
		cfg.Preset = "chaotic"

		convey.Convey("Then tuning falls back to balanced and says so", func() {
			tc, fellBack := cfg.Tuning()
			convey.So(fellBack, convey.ShouldBeTrue)
			convey.So(tc, convey.ShouldResemble, tuning.Default())
		})
	})

	convey.Convey("Given a config with a scenario and overrides", t, func() {
		cfg := config.New(context.Background())
		cfg.Preset = "conservative"
		cfg.Scenario = "quickGame"
		cfg.Overrides = map[string]float64{"MIN_WEIGHT": 0.2}

		convey.Convey("Then the scenario wins and overrides apply last", func() {
			tc, fellBack := cfg.Tuning()
			convey.So(fellBack, convey.ShouldBeFalse)
			convey.So(tc.Strategy, convey.ShouldEqual, tuning.StrategyAggressive)
			convey.So(tc.HistoryLength, convey.ShouldEqual, 8)
			convey.So(tc.ImmediatePenalty, convey.ShouldEqual, 0.15)
			convey.So(tc.MinWeight, convey.ShouldEqual, 0.2)
			convey.So(tc.Preset, convey.ShouldEqual, tuning.PresetCustom)
		})
	})
}
