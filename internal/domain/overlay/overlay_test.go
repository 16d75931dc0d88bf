package overlay_test

import (
	"math"
	"testing"

	"github.com/okian/overlay/internal/domain/model"
	overlay "github.com/okian/overlay/internal/domain/overlay"
	. "github.com/smartystreets/goconvey/convey"
)

func snapshot(orderGold, chaosGold, orderCS, chaosCS int) model.MatchSnapshot {
	return model.MatchSnapshot{
		OrderTeam: &model.TeamStats{Gold: model.Int(orderGold), CS: model.Int(orderCS)},
		ChaosTeam: &model.TeamStats{Gold: model.Int(chaosGold), CS: model.Int(chaosCS)},
	}
}

func TestShares(t *testing.T) {
	Convey("Given teams with 15000 and 5000 gold", t, func() {
		s := snapshot(15000, 5000, 0, 0)

		Convey("Then gold splits 75/25", func() {
			So(overlay.GoldShare(s, model.Order), ShouldEqual, 75)
			So(overlay.GoldShare(s, model.Chaos), ShouldEqual, 25)
		})

		Convey("Then CS share is computed independently and is 0 on a zero sum", func() {
			So(overlay.CSShare(s, model.Order), ShouldEqual, 0)
			So(overlay.CSShare(s, model.Chaos), ShouldEqual, 0)
		})
	})

	Convey("Given both teams at zero gold", t, func() {
		s := snapshot(0, 0, 120, 80)

		Convey("Then both gold shares are 0 rather than NaN", func() {
			So(overlay.GoldShare(s, model.Order), ShouldEqual, 0)
			So(overlay.GoldShare(s, model.Chaos), ShouldEqual, 0)
			So(overlay.CSShare(s, model.Order), ShouldAlmostEqual, 60, 1e-9)
			So(overlay.CSShare(s, model.Chaos), ShouldAlmostEqual, 40, 1e-9)
		})
	})

	Convey("Given a snapshot with no teams at all", t, func() {
		var s model.MatchSnapshot
		So(overlay.GoldShare(s, model.Order), ShouldEqual, 0)
		So(overlay.CSShare(s, model.Chaos), ShouldEqual, 0)
	})
}

func TestFormatGoldK(t *testing.T) {
	Convey("Given player gold values", t, func() {
		cases := map[int]string{
			3450:  "3.5k",
			3449:  "3.4k",
			0:     "0.0k",
			999:   "1.0k",
			12000: "12.0k",
			-5:    "0.0k",
			949:   "0.9k",
			950:   "1.0k",
		}
		for gold, want := range cases {
			So(overlay.FormatGoldK(gold), ShouldEqual, want)
		}
	})

	Convey("Given the largest representable gold", t, func() {
		So(overlay.FormatGoldK(math.MaxInt), ShouldEqual, "9223372036854775.8k")
		So(overlay.FormatGoldK(math.MaxInt32), ShouldEqual, "2147483.6k")
	})
}

func TestChampionInitial(t *testing.T) {
	Convey("Given champion names", t, func() {
		So(overlay.ChampionInitial("Ahri"), ShouldEqual, "A")
		So(overlay.ChampionInitial(""), ShouldEqual, "")
		So(overlay.ChampionInitial("Évelynn"), ShouldEqual, "É")
		So(overlay.ChampionInitial("élise"), ShouldEqual, "é")
	})

	Convey("Given a player without a champion", t, func() {
		var p model.PlayerStats
		So(overlay.ChampionInitial(p.GetChampion()), ShouldEqual, "")
	})
}

func TestWinBarAndLead(t *testing.T) {
	Convey("Given win probabilities that do not sum to 100", t, func() {
		s := snapshot(8000, 10000, 0, 0)
		s.WinProbability = &model.WinProbability{Order: model.Float(40), Chaos: model.Float(70)}

		Convey("Then the bar uses ORDER verbatim", func() {
			So(overlay.WinBarWidth(s), ShouldEqual, 40)
		})

		Convey("Then CHAOS leads by 2000 gold", func() {
			lead, side := overlay.GoldLead(s)
			So(lead, ShouldEqual, 2000)
			So(side, ShouldEqual, model.Chaos)
		})
	})

	Convey("Given level gold and no win probability", t, func() {
		s := snapshot(5000, 5000, 0, 0)
		lead, side := overlay.GoldLead(s)
		So(lead, ShouldEqual, 0)
		So(side, ShouldEqual, model.Side(""))
		So(overlay.WinBarWidth(s), ShouldEqual, 0)
	})
}

func TestBuildView(t *testing.T) {
	Convey("Given a populated snapshot", t, func() {
		s := snapshot(15000, 5000, 300, 100)
		s.OrderTeam.Players = []model.PlayerStats{
			{Champion: model.String("Ahri"), Kills: model.Int(5), Deaths: model.Int(1), Assists: model.Int(3), Gold: model.Int(3450)},
			{},
		}
		s.WinProbability = &model.WinProbability{Order: model.Float(72.5), Chaos: model.Float(27.5)}

		v := overlay.BuildView(s)

		Convey("Then team rows carry totals and shares", func() {
			So(v.Order.GoldShare, ShouldEqual, 75)
			So(v.Chaos.CSShare, ShouldEqual, 25)
			So(v.Order.GoldK, ShouldEqual, "15.0k")
			So(v.GoldLead, ShouldEqual, 10000)
			So(v.LeadingTeam, ShouldEqual, model.Order)
			So(v.WinBar.Width, ShouldEqual, 72.5)
			So(v.WinBar.Chaos, ShouldEqual, 27.5)
		})

		Convey("Then player rows keep display order and default absent values", func() {
			So(len(v.Order.Players), ShouldEqual, 2)
			So(v.Order.Players[0].Initial, ShouldEqual, "A")
			So(v.Order.Players[0].KDA, ShouldEqual, "5/1/3")
			So(v.Order.Players[0].GoldK, ShouldEqual, "3.5k")
			So(v.Order.Players[1].Initial, ShouldEqual, "")
			So(v.Order.Players[1].KDA, ShouldEqual, "0/0/0")
			So(v.Chaos.Players, ShouldNotBeNil)
			So(v.Chaos.Players, ShouldBeEmpty)
		})
	})

	Convey("Given the default snapshot", t, func() {
		v := overlay.BuildView(model.Default())
		So(v.Order.GoldShare, ShouldEqual, 0)
		So(v.WinBar.Width, ShouldEqual, 50)
		So(v.LeadingTeam, ShouldEqual, model.Side(""))
	})
}
