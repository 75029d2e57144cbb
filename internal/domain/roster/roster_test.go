package roster_test

import (
	"testing"

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func ip(v int64) *int64 { return &v }

func fixture() []model.PlayerRecord {
	return []model.PlayerRecord{
		{ID: 1, Name: "A", Position: model.Forward, Price: 5_000_000, PointsLastSeason: 120, Points: 40, Played: 10},
		{ID: 2, Name: "B", Position: model.Forward, Price: 10_000_000, PointsLastSeason: 150, Points: 30, Played: 5},
		{ID: 3, Name: "C", Position: model.Forward, Price: 10_000_001, PointsLastSeason: 200, Points: 0, Played: 3},
		{ID: 4, Name: "D", Position: model.Keeper, Price: 6_000_000, PointsLastSeason: 300, Points: 12, Played: 0},
		{ID: 5, Name: "E", Position: model.Forward, Price: 7_500_000, PointsLastSeason: 120, Points: 8, Played: 2,
			Fitness: []*int64{ip(4), nil, ip(-1), ip(6)}},
		{ID: 6, Name: "F", Position: model.Forward, Price: 4_999_999, PointsLastSeason: 500},
	}
}

func TestRankTopLastSeason(t *testing.T) {
	Convey("Given a roster", t, func() {
		players := fixture()

		Convey("When ranking forwards between 5 and 10 million", func() {
			top := roster.RankTopLastSeason(players, model.Forward, 5, 10, 10)

			Convey("Then the band should be inclusive and ordered by last season points", func() {
				So(top, ShouldHaveLength, 3)
				So(top[0].ID, ShouldEqual, int64(2))
				// ties keep roster order
				So(top[1].ID, ShouldEqual, int64(1))
				So(top[2].ID, ShouldEqual, int64(5))
			})
		})

		Convey("When topN is smaller than the filtered set", func() {
			top := roster.RankTopLastSeason(players, model.Forward, 0, 100, 2)

			Convey("Then only topN rows should be returned", func() {
				So(top, ShouldHaveLength, 2)
				So(top[0].ID, ShouldEqual, int64(6))
				So(top[1].ID, ShouldEqual, int64(3))
			})
		})

		Convey("When fractional millions bound the band", func() {
			top := roster.RankTopLastSeason(players, model.Forward, 7.5, 7.5, 5)

			Convey("Then the exact price should match", func() {
				So(top, ShouldHaveLength, 1)
				So(top[0].ID, ShouldEqual, int64(5))
			})
		})

		Convey("When nothing matches or the roster is empty", func() {
			So(roster.RankTopLastSeason(players, model.Trainer, 0, 100, 5), ShouldBeEmpty)
			So(roster.RankTopLastSeason(nil, model.Forward, 0, 100, 5), ShouldNotBeNil)
			So(roster.RankTopLastSeason(players, model.Forward, 0, 100, 0), ShouldBeEmpty)
		})
	})
}

func TestPerformance(t *testing.T) {
	Convey("Given a roster", t, func() {
		rows := roster.Performance(fixture())

		Convey("Then players without points or games should be dropped", func() {
			So(rows, ShouldHaveLength, 3)
			for _, r := range rows {
				So(r.ID, ShouldNotBeIn, []int64{3, 4, 6})
			}
		})

		Convey("Then rows should carry efficiency ratios ordered by points per game", func() {
			So(rows[0].ID, ShouldEqual, int64(2))
			So(rows[0].PointsPerGame, ShouldEqual, 6.0)
			So(rows[0].PointsPerMillion, ShouldAlmostEqual, 3.0, 1e-9)
			So(rows[1].ID, ShouldEqual, int64(1))
			So(rows[1].PointsPerMillion, ShouldAlmostEqual, 8.0, 1e-9)
			So(rows[2].ID, ShouldEqual, int64(5))
			So(rows[2].FitnessTotal, ShouldEqual, int64(9))
		})
	})
}

func TestNames(t *testing.T) {
	Convey("Given a roster name index", t, func() {
		names := roster.Names(fixture())

		Convey("Then known ids should resolve and unknown ids should be Missing", func() {
			So(roster.NameOf(names, 2), ShouldEqual, "B")
			So(roster.NameOf(names, 99), ShouldEqual, roster.MissingName)
		})
	})

	Convey("Given a player with mixed fitness entries", t, func() {
		p := model.PlayerRecord{Fitness: []*int64{nil, ip(3), nil}}

		Convey("Then only numeric entries should be summed", func() {
			So(roster.FitnessTotal(p), ShouldEqual, int64(3))
			So(roster.FitnessTotal(model.PlayerRecord{}), ShouldEqual, int64(0))
		})
	})
}
