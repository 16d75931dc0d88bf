package model

import "math"

// Normalize applies the ingress rules of DecodeSnapshot to a snapshot built
// in process: counts clamp to [0, MaxInt32] and non-finite probabilities
// become absent. It returns a deep copy and leaves snap untouched.
func Normalize(snap MatchSnapshot) MatchSnapshot {
	return MatchSnapshot{
		OrderTeam:      normalizeTeam(snap.OrderTeam),
		ChaosTeam:      normalizeTeam(snap.ChaosTeam),
		WinProbability: normalizeWinProbability(snap.WinProbability),
	}
}

func normalizeTeam(t *TeamStats) *TeamStats {
	if t == nil {
		return nil
	}
	out := &TeamStats{
		Gold:    clampCount(t.Gold),
		Kills:   clampCount(t.Kills),
		Deaths:  clampCount(t.Deaths),
		Assists: clampCount(t.Assists),
		CS:      clampCount(t.CS),
	}
	if t.Players != nil {
		out.Players = make([]PlayerStats, len(t.Players))
		for i, p := range t.Players {
			out.Players[i] = PlayerStats{
				Champion: copyString(p.Champion),
				Kills:    clampCount(p.Kills),
				Deaths:   clampCount(p.Deaths),
				Assists:  clampCount(p.Assists),
				CS:       clampCount(p.CS),
				Gold:     clampCount(p.Gold),
			}
		}
	}
	return out
}

func normalizeWinProbability(w *WinProbability) *WinProbability {
	if w == nil {
		return nil
	}
	return &WinProbability{Order: finite(w.Order), Chaos: finite(w.Chaos)}
}

func clampCount(v *int) *int {
	if v == nil {
		return nil
	}
	switch {
	case *v <= 0:
		return Int(0)
	case *v >= math.MaxInt32:
		return Int(math.MaxInt32)
	}
	return Int(*v)
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return Float(*v)
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	return String(*v)
}
