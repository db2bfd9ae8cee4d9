package model_test

import (
	"testing"

	model "github.com/okian/eventdraw/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRound(t *testing.T) {
	convey.Convey("Given two rounds", t, func() {
		prev := model.Round{Number: 1, Items: []string{"a", "b", "c"}}
		cur := model.Round{Number: 2, Items: []string{"c", "d", "a"}}

		convey.Convey("Then membership is reported", func() {
			convey.So(cur.Contains("d"), convey.ShouldBeTrue)
			convey.So(cur.Contains("b"), convey.ShouldBeFalse)
		})

		convey.Convey("Then overlap counts shared items", func() {
			convey.So(cur.Overlap(prev), convey.ShouldEqual, 2)
			convey.So(prev.Overlap(model.Round{}), convey.ShouldEqual, 0)
		})
	})
}
