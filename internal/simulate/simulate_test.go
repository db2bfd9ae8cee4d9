package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTally(t *testing.T) {
	Convey("Given three rounds over a pool of four", t, func() {
		tl := newTally([]string{"a", "b", "c", "d"})
		tl.add([]string{"a", "b"})
		tl.add([]string{"b", "c"})
		tl.add([]string{"c", "a"})
		r := tl.result()

		Convey("Then repeats, streaks and spread are measured", func() {
			So(r.AverageRepeatRate, ShouldEqual, 50)
			So(r.LongestStreak, ShouldEqual, 2)
			So(r.MaxPicks, ShouldEqual, 2)
			So(r.MinPicks, ShouldEqual, 0)
			So(r.CV, ShouldAlmostEqual, math.Sqrt(0.75)/1.5, 1e-9)
		})
	})

	Convey("Given a single round", t, func() {
		tl := newTally([]string{"a"})
		tl.add([]string{"a"})

		Convey("Then the repeat rate has no comparison", func() {
			So(tl.result().AverageRepeatRate, ShouldEqual, 0)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a seeded simulation", t, func() {
		ctx := context.Background()
		cfg := Config{PoolSize: 10, Count: 3, Rounds: 400, Presets: []string{"balanced", "aggressive"}, Seed: 42}

		report, err := Run(ctx, cfg)
		So(err, ShouldBeNil)

		Convey("Then every sampler is reported", func() {
			So(report.Results, ShouldHaveLength, 3)
			So(report.Results[0].Name, ShouldEqual, "balanced")
			So(report.Results[1].Name, ShouldEqual, "aggressive")
			So(report.Results[2].Name, ShouldEqual, Uniform)
			So(report.Seed, ShouldEqual, 42)
		})

		Convey("Then streak suppression shortens runs of the same event", func() {
			uniform := report.Results[2]
			So(uniform.AverageRepeatRate, ShouldBeGreaterThan, 15)
			So(report.Results[1].LongestStreak, ShouldBeLessThan, uniform.LongestStreak)
			for _, res := range report.Results {
				So(res.MaxPicks, ShouldBeGreaterThanOrEqualTo, res.MinPicks)
				So(res.MaxPicks*cfg.PoolSize, ShouldBeGreaterThanOrEqualTo, cfg.Rounds*cfg.Count)
			}
		})

		Convey("Then the same seed reproduces the report", func() {
			again, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, report)
		})
	})

	Convey("Given invalid parameters", t, func() {
		ctx := context.Background()

		Convey("Then Run rejects them", func() {
			for _, cfg := range []Config{
				{PoolSize: 0, Count: 1, Rounds: 1},
				{PoolSize: 3, Count: 0, Rounds: 1},
				{PoolSize: 3, Count: 1, Rounds: 0},
				{PoolSize: 3, Count: 1, Rounds: 1, Presets: []string{"wild"}},
			} {
				_, err := Run(ctx, cfg)
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			}
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then Run stops with the context error", func() {
			_, err := Run(ctx, Config{PoolSize: 5, Count: 2, Rounds: 10, Seed: 1})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestPoolAndUniformDraw(t *testing.T) {
	Convey("Given generated pools", t, func() {
		So(Pool(3), ShouldResemble, []string{"event_000", "event_001", "event_002"})
		So(Pool(1500)[1499], ShouldEqual, "event_1499")

		Convey("Then uniform draws are distinct and bounded", func() {
			src := newTestSource()
			got := uniformDraw(src, Pool(4), 6)
			So(got, ShouldHaveLength, 4)
			seen := map[string]bool{}
			for _, it := range got {
				So(seen[it], ShouldBeFalse)
				seen[it] = true
			}
		})
	})
}

func TestWrite(t *testing.T) {
	Convey("Given a report", t, func() {
		r := Report{PoolSize: 4, Count: 2, Rounds: 3, Seed: 9, Results: []Result{{Name: Uniform, AverageRepeatRate: 50, MaxPicks: 2}}}
		var buf bytes.Buffer

		Convey("When written as a table", func() {
			So(Write(&buf, r, FormatTable), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "SAMPLER")
			So(buf.String(), ShouldContainSubstring, "50.00")
		})

		Convey("When written as JSON", func() {
			So(Write(&buf, r, FormatJSON), ShouldBeNil)
			var back Report
			So(json.Unmarshal(buf.Bytes(), &back), ShouldBeNil)
			So(back, ShouldResemble, r)
		})

		Convey("When written as YAML", func() {
			So(Write(&buf, r, FormatYAML), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "averageRepeatRate: 50")
		})

		Convey("When the format is unknown", func() {
			So(errors.Is(Write(&buf, r, "xml"), ErrUnknownFormat), ShouldBeTrue)
		})
	})
}

func newTestSource() *sequenceSource { return &sequenceSource{} }

// sequenceSource cycles through indexes deterministically.
type sequenceSource struct{ n int }

func (s *sequenceSource) Float64() float64 { return 0.5 }

func (s *sequenceSource) IntN(n int) int {
	s.n++
	return s.n % n
}
