// Package model contains the match snapshot passed between layers.
//
// Every field of the snapshot is optional: producers are not guaranteed to
// send complete data every cycle. Absent values are nil pointers and the
// Get* accessors default them (0 for numbers, "" for strings) so readers
// never have to nil-check.
package model

// Side identifies one of the two teams.
type Side string

const (
	Order Side = "order"
	Chaos Side = "chaos"
)

// MatchSnapshot is a complete point-in-time view of the match. A snapshot
// is replaced wholesale on every update and must not be mutated once stored.
type MatchSnapshot struct {
	OrderTeam      *TeamStats      `json:"orderTeam,omitempty"`
	ChaosTeam      *TeamStats      `json:"chaosTeam,omitempty"`
	WinProbability *WinProbability `json:"winProbability,omitempty"`
}

// TeamStats holds the aggregate totals of a team and its players in display
// order. Totals are supplied by the producer and are not derived from Players.
type TeamStats struct {
	Gold    *int          `json:"gold,omitempty"`
	Kills   *int          `json:"kills,omitempty"`
	Deaths  *int          `json:"deaths,omitempty"`
	Assists *int          `json:"assists,omitempty"`
	CS      *int          `json:"cs,omitempty"`
	Players []PlayerStats `json:"players,omitempty"`
}

// PlayerStats holds a single player's line.
type PlayerStats struct {
	Champion *string `json:"champion,omitempty"`
	Kills    *int    `json:"kills,omitempty"`
	Deaths   *int    `json:"deaths,omitempty"`
	Assists  *int    `json:"assists,omitempty"`
	CS       *int    `json:"cs,omitempty"`
	Gold     *int    `json:"gold,omitempty"`
}

// WinProbability carries percentages exactly as the producer sent them.
// They are not required to sum to 100.
type WinProbability struct {
	Order *float64 `json:"order,omitempty"`
	Chaos *float64 `json:"chaos,omitempty"`
}

// Default returns the snapshot shown before any update arrives: both teams
// zeroed with no players and an even win probability.
func Default() MatchSnapshot {
	return MatchSnapshot{
		OrderTeam:      zeroTeam(),
		ChaosTeam:      zeroTeam(),
		WinProbability: &WinProbability{Order: Float(50), Chaos: Float(50)},
	}
}

func zeroTeam() *TeamStats {
	return &TeamStats{
		Gold:    Int(0),
		Kills:   Int(0),
		Deaths:  Int(0),
		Assists: Int(0),
		CS:      Int(0),
		Players: []PlayerStats{},
	}
}

// Team returns the stats of side, nil when absent.
func (s MatchSnapshot) Team(side Side) *TeamStats {
	switch side {
	case Order:
		return s.OrderTeam
	case Chaos:
		return s.ChaosTeam
	default:
		return nil
	}
}

// GetGold returns the team gold, 0 when absent.
func (t *TeamStats) GetGold() int {
	if t == nil {
		return 0
	}
	return deref(t.Gold)
}

// GetKills returns the team kills, 0 when absent.
func (t *TeamStats) GetKills() int {
	if t == nil {
		return 0
	}
	return deref(t.Kills)
}

// GetDeaths returns the team deaths, 0 when absent.
func (t *TeamStats) GetDeaths() int {
	if t == nil {
		return 0
	}
	return deref(t.Deaths)
}

// GetAssists returns the team assists, 0 when absent.
func (t *TeamStats) GetAssists() int {
	if t == nil {
		return 0
	}
	return deref(t.Assists)
}

// GetCS returns the team creep score, 0 when absent.
func (t *TeamStats) GetCS() int {
	if t == nil {
		return 0
	}
	return deref(t.CS)
}

// GetPlayers returns the players in display order, nil when absent.
func (t *TeamStats) GetPlayers() []PlayerStats {
	if t == nil {
		return nil
	}
	return t.Players
}

// GetChampion returns the champion name, "" when absent.
func (p *PlayerStats) GetChampion() string {
	if p == nil || p.Champion == nil {
		return ""
	}
	return *p.Champion
}

func (p *PlayerStats) GetKills() int {
	if p == nil {
		return 0
	}
	return deref(p.Kills)
}

func (p *PlayerStats) GetDeaths() int {
	if p == nil {
		return 0
	}
	return deref(p.Deaths)
}

func (p *PlayerStats) GetAssists() int {
	if p == nil {
		return 0
	}
	return deref(p.Assists)
}

func (p *PlayerStats) GetCS() int {
	if p == nil {
		return 0
	}
	return deref(p.CS)
}

func (p *PlayerStats) GetGold() int {
	if p == nil {
		return 0
	}
	return deref(p.Gold)
}

// GetOrder returns the ORDER percentage, 0 when absent.
func (w *WinProbability) GetOrder() float64 {
	if w == nil || w.Order == nil {
		return 0
	}
	return *w.Order
}

// GetChaos returns the CHAOS percentage, 0 when absent.
func (w *WinProbability) GetChaos() float64 {
	if w == nil || w.Chaos == nil {
		return 0
	}
	return *w.Chaos
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
