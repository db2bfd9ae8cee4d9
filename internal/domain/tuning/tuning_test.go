package tuning_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/eventdraw/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given the preset table", t, func() {
		Convey("When resolving balanced", func() {
			c, err := tuning.Resolve("balanced")

			Convey("Then the documented defaults are returned", func() {
				So(err, ShouldBeNil)
				So(c.Preset, ShouldEqual, tuning.PresetBalanced)
				So(c.BaseWeight, ShouldEqual, 1.0)
				So(c.MinWeight, ShouldEqual, 0.1)
				So(c.ImmediatePenalty, ShouldEqual, 0.2)
				So(c.RecentPenalty, ShouldEqual, 0.5)
				So(c.DecayFactor, ShouldEqual, 0.8)
				So(c.HistoryLength, ShouldEqual, 10)
				So(c.CriticalRepeatThreshold, ShouldEqual, 3)
				So(c.Strategy, ShouldEqual, tuning.StrategyBalanced)
			})
		})

		Convey("When resolving with different case and padding", func() {
			c, err := tuning.Resolve("  Aggressive ")

			Convey("Then the name still matches", func() {
				So(err, ShouldBeNil)
				So(c.MinWeight, ShouldEqual, 0.05)
				So(c.HistoryLength, ShouldEqual, 15)
				So(c.CriticalRepeatThreshold, ShouldEqual, 2)
			})
		})

		Convey("When resolving conservative", func() {
			c, err := tuning.Resolve("conservative")
			So(err, ShouldBeNil)
			So(c.ImmediatePenalty, ShouldEqual, 0.4)
			So(c.RecentPenalty, ShouldEqual, 0.7)
			So(c.HistoryLength, ShouldEqual, 6)
			So(c.CriticalRepeatThreshold, ShouldEqual, 4)
		})

		Convey("When resolving custom", func() {
			c, err := tuning.Resolve("custom")
			b := tuning.Default()

			Convey("Then it carries the balanced values", func() {
				So(err, ShouldBeNil)
				So(c.Preset, ShouldEqual, tuning.PresetCustom)
				c.Preset = b.Preset
				So(c, ShouldResemble, b)
			})
		})

		Convey("When resolving an unknown name", func() {
			_, err := tuning.Resolve("chaotic")

			Convey("Then ErrUnknownPreset is returned", func() {
				So(errors.Is(err, tuning.ErrUnknownPreset), ShouldBeTrue)
			})
		})
	})
}

func TestApplyOverride(t *testing.T) {
	Convey("Given the balanced config", t, func() {
		base := tuning.Default()

		Convey("When MIN_WEIGHT is set far above its range", func() {
			c, err := tuning.ApplyOverride(base, "MIN_WEIGHT", 999)

			Convey("Then the value is clamped to the documented max", func() {
				So(err, ShouldBeNil)
				So(c.MinWeight, ShouldEqual, 0.5)
				So(c.Preset, ShouldEqual, tuning.PresetCustom)
			})
		})

		Convey("When a value is below its range", func() {
			c, err := tuning.ApplyOverride(base, "decay_factor", 0.01)
			So(err, ShouldBeNil)
			So(c.DecayFactor, ShouldEqual, 0.3)
		})

		Convey("When an integer field receives a fraction", func() {
			c, err := tuning.ApplyOverride(base, "HISTORY_LENGTH", 7.6)
			So(err, ShouldBeNil)
			So(c.HistoryLength, ShouldEqual, 8)

			c, err = tuning.ApplyOverride(base, "CRITICAL_REPEAT_THRESHOLD", 50)
			So(err, ShouldBeNil)
			So(c.CriticalRepeatThreshold, ShouldEqual, 10)
		})

		Convey("When NaN is supplied", func() {
			c, err := tuning.ApplyOverride(base, "RECENT_PENALTY", math.NaN())
			So(err, ShouldBeNil)
			So(c.RecentPenalty, ShouldEqual, 0.5)
		})

		Convey("When MIN_WEIGHT would exceed BASE_WEIGHT", func() {
			c, err := tuning.ApplyOverride(base, "BASE_WEIGHT", 0.1)
			So(err, ShouldBeNil)
			c, err = tuning.ApplyOverride(c, "MIN_WEIGHT", 0.4)
			So(err, ShouldBeNil)

			Convey("Then the floor is held at the ceiling", func() {
				So(c.BaseWeight, ShouldEqual, 0.1)
				So(c.MinWeight, ShouldEqual, 0.1)
			})
		})

		Convey("When the key is not a tunable", func() {
			c, err := tuning.ApplyOverride(base, "SMALL_POOL_THRESHOLD", 5)

			Convey("Then ErrUnknownField is returned and the config is unchanged", func() {
				So(errors.Is(err, tuning.ErrUnknownField), ShouldBeTrue)
				So(c, ShouldResemble, base)
			})
		})

		Convey("Then the original value is never modified", func() {
			_, _ = tuning.ApplyOverride(base, "MIN_WEIGHT", 0.3)
			So(base.MinWeight, ShouldEqual, 0.1)
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given overrides built from a map", t, func() {
		o, err := tuning.OverridesFromMap(map[string]float64{
			"history_length":    4,
			"IMMEDIATE_PENALTY": 2,
		})
		So(err, ShouldBeNil)
		So(o.Empty(), ShouldBeFalse)

		Convey("When merged into conservative", func() {
			base, _ := tuning.Resolve("conservative")
			c := tuning.Merge(base, o)

			Convey("Then only the set fields change, clamped", func() {
				So(c.HistoryLength, ShouldEqual, 4)
				So(c.ImmediatePenalty, ShouldEqual, 0.8)
				So(c.RecentPenalty, ShouldEqual, 0.7)
				So(c.Strategy, ShouldEqual, tuning.StrategyConservative)
				So(c.Preset, ShouldEqual, tuning.PresetCustom)
			})
		})

		Convey("When the map holds an unknown key", func() {
			_, err := tuning.OverridesFromMap(map[string]float64{"SPEED": 1})
			So(errors.Is(err, tuning.ErrUnknownField), ShouldBeTrue)
		})

		Convey("When no override is set", func() {
			c := tuning.Merge(tuning.Default(), tuning.Overrides{})
			So(tuning.Overrides{}.Empty(), ShouldBeTrue)
			So(c, ShouldResemble, tuning.Default())
		})
	})
}

func TestStrategies(t *testing.T) {
	Convey("Given the strategy table", t, func() {
		Convey("When looking up each name", func() {
			_, c, ok := tuning.LookupStrategy("conservative")
			So(ok, ShouldBeTrue)
			So(c, ShouldResemble, tuning.Strategy{Decay: 0.9, Penalty: 0.3, Recovery: 0.1})

			_, b, ok := tuning.LookupStrategy("BALANCED")
			So(ok, ShouldBeTrue)
			So(b, ShouldResemble, tuning.Strategy{Decay: 0.8, Penalty: 0.2, Recovery: 0.15})

			name, a, ok := tuning.LookupStrategy("aggressive")
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, tuning.StrategyAggressive)
			So(a, ShouldResemble, tuning.Strategy{Decay: 0.6, Penalty: 0.1, Recovery: 0.2})

			_, _, ok = tuning.LookupStrategy("reckless")
			So(ok, ShouldBeFalse)
			So(tuning.StrategyNames(), ShouldHaveLength, 3)
		})

		Convey("When adapting to pool size", func() {
			st := tuning.Strategy{Decay: 0.8, Penalty: 0.2, Recovery: 0.15}

			small := st.ForPoolSize(20)
			So(small.Decay, ShouldAlmostEqual, 0.96, 1e-9)
			So(small.Penalty, ShouldAlmostEqual, 0.3, 1e-9)
			So(small.Recovery, ShouldAlmostEqual, 0.12, 1e-9)

			So(st.ForPoolSize(21), ShouldResemble, st)
			So(st.ForPoolSize(99), ShouldResemble, st)

			large := st.ForPoolSize(100)
			So(large.Decay, ShouldAlmostEqual, 0.64, 1e-9)
			So(large.Penalty, ShouldAlmostEqual, 0.14, 1e-9)
			So(large.Recovery, ShouldAlmostEqual, 0.195, 1e-9)
		})

		Convey("When the config names a strategy", func() {
			c, _ := tuning.ApplyOverride(tuning.Default(), "DECAY_FACTOR", 0.5)
			st := c.NamedStrategy()

			Convey("Then decay comes from DECAY_FACTOR", func() {
				So(st.Decay, ShouldEqual, 0.5)
				So(st.Recovery, ShouldEqual, 0.15)
			})
		})
	})
}

func TestScenarios(t *testing.T) {
	Convey("Given the scenario catalog", t, func() {
		So(tuning.Scenarios(), ShouldHaveLength, 4)
		So(tuning.Presets(), ShouldHaveLength, 4)
		So(tuning.Describe(), ShouldHaveLength, 7)

		Convey("When applying largeParty", func() {
			c, err := tuning.ApplyScenario("largeParty")

			Convey("Then the aggressive preset is tuned", func() {
				So(err, ShouldBeNil)
				So(c.Strategy, ShouldEqual, tuning.StrategyAggressive)
				So(c.HistoryLength, ShouldEqual, 15)
				So(c.CriticalRepeatThreshold, ShouldEqual, 2)
				So(c.MinWeight, ShouldEqual, 0.05)
				So(c.Preset, ShouldEqual, tuning.PresetCustom)
			})
		})

		Convey("When applying longTerm case-insensitively", func() {
			c, err := tuning.ApplyScenario("LONGTERM")
			So(err, ShouldBeNil)
			So(c.Strategy, ShouldEqual, tuning.StrategyBalanced)
			So(c.HistoryLength, ShouldEqual, 12)
			So(c.DecayFactor, ShouldEqual, 0.85)
		})

		Convey("When applying an unknown scenario", func() {
			_, err := tuning.ApplyScenario("marathon")
			So(errors.Is(err, tuning.ErrUnknownScenario), ShouldBeTrue)
		})
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given an exported config", t, func() {
		c, _ := tuning.ApplyOverride(tuning.Default(), "HISTORY_LENGTH", 5)
		now := time.UnixMilli(1700000000000)
		s := tuning.Export(c, now)

		So(s.Version, ShouldEqual, tuning.SnapshotVersion)
		So(s.Timestamp, ShouldEqual, int64(1700000000000))

		Convey("When round-tripped through JSON", func() {
			data, err := s.JSON()
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"HISTORY_LENGTH": 5`)

			decoded, err := tuning.DecodeSnapshot(data)
			So(err, ShouldBeNil)
			got, err := tuning.Import(decoded)

			Convey("Then the config is restored", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, c)
			})
		})

		Convey("When round-tripped through YAML", func() {
			data, err := s.YAML()
			So(err, ShouldBeNil)
			decoded, err := tuning.DecodeSnapshot(data)
			So(err, ShouldBeNil)
			got, err := tuning.Import(decoded)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, c)
		})

		Convey("When the snapshot carries out-of-range values", func() {
			minWeight, history := 3.0, 100.0
			s.Params.MinWeight = &minWeight
			s.Params.HistoryLength = &history
			s.Params.Strategy = "unknown"
			got, err := tuning.Import(s)

			Convey("Then they are clamped", func() {
				So(err, ShouldBeNil)
				So(got.MinWeight, ShouldEqual, 0.5)
				So(got.HistoryLength, ShouldEqual, 20)
				So(got.Strategy, ShouldEqual, tuning.StrategyBalanced)
			})
		})

		Convey("When the version is missing", func() {
			s.Version = ""
			_, err := tuning.Import(s)
			So(errors.Is(err, tuning.ErrInvalidSnapshot), ShouldBeTrue)
		})

		Convey("When the params are missing", func() {
			decoded, err := tuning.DecodeSnapshot([]byte(`{"version":"1.0","preset":"custom"}`))
			So(err, ShouldBeNil)
			_, err = tuning.Import(decoded)
			So(errors.Is(err, tuning.ErrInvalidSnapshot), ShouldBeTrue)
		})

		Convey("When the payload is not a snapshot", func() {
			_, err := tuning.DecodeSnapshot([]byte("version: [unterminated"))
			So(errors.Is(err, tuning.ErrInvalidSnapshot), ShouldBeTrue)
		})
	})

	Convey("Given a snapshot carrying only some params", t, func() {
		decoded, err := tuning.DecodeSnapshot([]byte(`{"version":"1.0","preset":"custom","params":{"MIN_WEIGHT":0.2}}`))
		So(err, ShouldBeNil)
		got, err := tuning.Import(decoded)

		Convey("Then the missing fields keep the defaults", func() {
			So(err, ShouldBeNil)
			want, _ := tuning.ApplyOverride(tuning.Default(), "MIN_WEIGHT", 0.2)
			So(got, ShouldResemble, want)
			So(got.HistoryLength, ShouldEqual, 10)
			So(got.BaseWeight, ShouldEqual, 1.0)
			So(got.DecayFactor, ShouldEqual, 0.8)
		})
	})

	Convey("Given a YAML snapshot of a named preset with an empty params block", t, func() {
		decoded, err := tuning.DecodeSnapshot([]byte("version: \"1.0\"\npreset: aggressive\nparams: {}\n"))
		So(err, ShouldBeNil)
		got, err := tuning.Import(decoded)

		Convey("Then the preset is restored unchanged", func() {
			So(err, ShouldBeNil)
			want, _ := tuning.Resolve("aggressive")
			So(got, ShouldResemble, want)
		})
	})

	Convey("Given an exported preset that was never overridden", t, func() {
		c, _ := tuning.Resolve("conservative")
		got, err := tuning.Import(tuning.Export(c, time.Now()))

		Convey("Then it keeps its preset name", func() {
			So(err, ShouldBeNil)
			So(got.Preset, ShouldEqual, tuning.PresetConservative)
			So(got, ShouldResemble, c)
		})
	})
}
