package feed

import (
	"math"
	"math/rand/v2"

	"github.com/okian/overlay/internal/domain/model"
)

var champions = []string{
	"Ahri", "Braum", "Caitlyn", "Darius", "Ezreal", "Fiora", "Garen", "Hecarim",
	"Irelia", "Jinx", "Karma", "Leona", "Malphite", "Nami", "Orianna", "Pyke",
	"Rell", "Sejuani", "Thresh", "Udyr", "Viktor", "Wukong", "Xayah", "Yasuo", "Zed",
}

type player struct {
	champion string
	kills    int
	deaths   int
	assists  int
	cs       int
	gold     int
}

// Generator evolves a synthetic match one tick at a time. Team stats only
// grow, so successive snapshots look like a match in progress.
type Generator struct {
	rng   *rand.Rand
	tick  int
	order []player
	chaos []player
}

// NewGenerator creates a match with ten distinct champions picked from seed.
func NewGenerator(seed uint64) *Generator {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	picks := rng.Perm(len(champions))

	g := &Generator{rng: rng}
	for i := 0; i < playersPerTeam; i++ {
		g.order = append(g.order, player{champion: champions[picks[i]]})
		g.chaos = append(g.chaos, player{champion: champions[picks[playersPerTeam+i]]})
	}
	return g
}

// Tick returns how many times Next has been called.
func (g *Generator) Tick() int { return g.tick }

// Next advances the match by one tick and returns the resulting snapshot.
func (g *Generator) Next() model.MatchSnapshot {
	g.tick++
	g.farm(g.order)
	g.farm(g.chaos)

	if g.rng.IntN(100) < killChancePercent {
		if g.rng.IntN(2) == 0 {
			g.fight(g.order, g.chaos)
		} else {
			g.fight(g.chaos, g.order)
		}
	}
	return g.Snapshot()
}

// Snapshot returns the current state without advancing it.
func (g *Generator) Snapshot() model.MatchSnapshot {
	order := teamStats(g.order)
	chaos := teamStats(g.chaos)

	lead := float64(order.GetGold()-chaos.GetGold()) / goldPerWinPercent
	lead = math.Max(-maxWinSwing, math.Min(maxWinSwing, lead))
	orderWin := math.Round((50+lead)*10) / 10

	return model.MatchSnapshot{
		OrderTeam: order,
		ChaosTeam: chaos,
		WinProbability: &model.WinProbability{
			Order: model.Float(orderWin),
			Chaos: model.Float(100 - orderWin),
		},
	}
}

func (g *Generator) farm(team []player) {
	for i := range team {
		cs := g.rng.IntN(csPerTickMax + 1)
		team[i].cs += cs
		team[i].gold += passiveGoldMin + g.rng.IntN(passiveGoldRange) + cs*csGoldValue
	}
}

func (g *Generator) fight(winners, losers []player) {
	killer := g.rng.IntN(len(winners))
	winners[killer].kills++
	winners[killer].gold += killGold
	losers[g.rng.IntN(len(losers))].deaths++

	for i := range winners {
		if i != killer && g.rng.IntN(2) == 0 {
			winners[i].assists++
			winners[i].gold += assistGold
		}
	}
}

func teamStats(team []player) *model.TeamStats {
	var gold, kills, deaths, assists, cs int
	players := make([]model.PlayerStats, 0, len(team))
	for _, p := range team {
		gold += p.gold
		kills += p.kills
		deaths += p.deaths
		assists += p.assists
		cs += p.cs
		players = append(players, model.PlayerStats{
			Champion: model.String(p.champion),
			Kills:    model.Int(p.kills),
			Deaths:   model.Int(p.deaths),
			Assists:  model.Int(p.assists),
			CS:       model.Int(p.cs),
			Gold:     model.Int(p.gold),
		})
	}
	return &model.TeamStats{
		Gold:    model.Int(gold),
		Kills:   model.Int(kills),
		Deaths:  model.Int(deaths),
		Assists: model.Int(assists),
		CS:      model.Int(cs),
		Players: players,
	}
}
