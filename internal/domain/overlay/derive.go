// Package overlay derives presentation values from a match snapshot.
//
// Every rule is total: absent fields read as zero and zero denominators
// yield 0 instead of NaN, so a partially populated snapshot still renders.
package overlay

import (
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/okian/overlay/internal/domain/model"
)

const percent = 100

// GoldShare returns side's share of the combined team gold as a percentage.
func GoldShare(s model.MatchSnapshot, side model.Side) float64 {
	return share(s.Team(side).GetGold(), s.OrderTeam.GetGold()+s.ChaosTeam.GetGold())
}

// CSShare returns side's share of the combined creep score as a percentage.
func CSShare(s model.MatchSnapshot, side model.Side) float64 {
	return share(s.Team(side).GetCS(), s.OrderTeam.GetCS()+s.ChaosTeam.GetCS())
}

func share(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * percent
}

// FormatGoldK renders gold in thousands with one decimal, rounding half up:
// 3450 becomes "3.5k". Rounding is exact on integers, so 950 gives "1.0k"
// where a binary float toFixed(1) would give "0.9k".
func FormatGoldK(gold int) string {
	if gold < 0 {
		gold = 0
	}
	tenths := gold / 100
	if gold%100 >= 50 {
		tenths++
	}
	return fmt.Sprintf("%d.%dk", tenths/10, tenths%10)
}

// ChampionInitial returns the first user-perceived character of name, or ""
// when the name is empty.
func ChampionInitial(name string) string {
	if name == "" {
		return ""
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(name, -1)
	return cluster
}

// WinBarWidth returns the ORDER win probability as a bar width percentage.
// The value is used as sent; it is not normalized against CHAOS.
func WinBarWidth(s model.MatchSnapshot) float64 {
	return s.WinProbability.GetOrder()
}

// KDA renders a player's kills, deaths and assists as "k/d/a".
func KDA(p model.PlayerStats) string {
	return fmt.Sprintf("%d/%d/%d", p.GetKills(), p.GetDeaths(), p.GetAssists())
}

// GoldLead returns the absolute gold difference between the teams and the
// side that is ahead. The side is empty when gold is level.
func GoldLead(s model.MatchSnapshot) (int, model.Side) {
	diff := s.OrderTeam.GetGold() - s.ChaosTeam.GetGold()
	switch {
	case diff > 0:
		return diff, model.Order
	case diff < 0:
		return -diff, model.Chaos
	default:
		return 0, ""
	}
}
