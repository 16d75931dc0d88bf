package overlay

import "github.com/okian/overlay/internal/domain/model"

// View is the presentation-ready form of a snapshot. It is recomputed on
// every read and never stored.
type View struct {
	Order       TeamView   `json:"order"`
	Chaos       TeamView   `json:"chaos"`
	WinBar      WinBarView `json:"winBar"`
	GoldLead    int        `json:"goldLead"`
	LeadingTeam model.Side `json:"leadingTeam,omitempty"`
}

// TeamView carries a team's totals and its share bars.
type TeamView struct {
	Gold      int          `json:"gold"`
	GoldK     string       `json:"goldK"`
	Kills     int          `json:"kills"`
	Deaths    int          `json:"deaths"`
	Assists   int          `json:"assists"`
	CS        int          `json:"cs"`
	GoldShare float64      `json:"goldShare"`
	CSShare   float64      `json:"csShare"`
	Players   []PlayerView `json:"players"`
}

// PlayerView is one row of the player table.
type PlayerView struct {
	Champion string `json:"champion"`
	Initial  string `json:"initial"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	Assists  int    `json:"assists"`
	KDA      string `json:"kda"`
	CS       int    `json:"cs"`
	Gold     int    `json:"gold"`
	GoldK    string `json:"goldK"`
}

// WinBarView holds both probabilities as sent plus the bar width.
type WinBarView struct {
	Order float64 `json:"order"`
	Chaos float64 `json:"chaos"`
	Width float64 `json:"width"`
}

// BuildView derives the full view of s.
func BuildView(s model.MatchSnapshot) View {
	lead, leader := GoldLead(s)
	return View{
		Order: teamView(s, model.Order),
		Chaos: teamView(s, model.Chaos),
		WinBar: WinBarView{
			Order: s.WinProbability.GetOrder(),
			Chaos: s.WinProbability.GetChaos(),
			Width: WinBarWidth(s),
		},
		GoldLead:    lead,
		LeadingTeam: leader,
	}
}

func teamView(s model.MatchSnapshot, side model.Side) TeamView {
	team := s.Team(side)
	players := team.GetPlayers()
	rows := make([]PlayerView, 0, len(players))
	for i := range players {
		p := &players[i]
		rows = append(rows, PlayerView{
			Champion: p.GetChampion(),
			Initial:  ChampionInitial(p.GetChampion()),
			Kills:    p.GetKills(),
			Deaths:   p.GetDeaths(),
			Assists:  p.GetAssists(),
			KDA:      KDA(*p),
			CS:       p.GetCS(),
			Gold:     p.GetGold(),
			GoldK:    FormatGoldK(p.GetGold()),
		})
	}
	return TeamView{
		Gold:      team.GetGold(),
		GoldK:     FormatGoldK(team.GetGold()),
		Kills:     team.GetKills(),
		Deaths:    team.GetDeaths(),
		Assists:   team.GetAssists(),
		CS:        team.GetCS(),
		GoldShare: GoldShare(s, side),
		CSShare:   CSShare(s, side),
		Players:   rows,
	}
}
