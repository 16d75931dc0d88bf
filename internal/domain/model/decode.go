package model

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedSnapshot reports a payload that is not a JSON object and so
// cannot be read as a snapshot at all.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// DecodeSnapshot coerces an untrusted JSON payload into a MatchSnapshot.
//
// Only the root shape is validated. Everything below it degrades field by
// field: numbers may arrive as JSON numbers or numeric strings, fractions are
// truncated, negatives clamp to zero, and anything unreadable becomes absent.
// A player entry that is not an object keeps its slot so display order holds.
func DecodeSnapshot(data []byte) (MatchSnapshot, error) {
	if !gjson.ValidBytes(data) {
		return MatchSnapshot{}, ErrMalformedSnapshot
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return MatchSnapshot{}, ErrMalformedSnapshot
	}
	return MatchSnapshot{
		OrderTeam:      decodeTeam(root.Get("orderTeam")),
		ChaosTeam:      decodeTeam(root.Get("chaosTeam")),
		WinProbability: decodeWinProbability(root.Get("winProbability")),
	}, nil
}

func decodeTeam(r gjson.Result) *TeamStats {
	if !r.IsObject() {
		return nil
	}
	return &TeamStats{
		Gold:    count(r.Get("gold")),
		Kills:   count(r.Get("kills")),
		Deaths:  count(r.Get("deaths")),
		Assists: count(r.Get("assists")),
		CS:      count(r.Get("cs")),
		Players: decodePlayers(r.Get("players")),
	}
}

func decodePlayers(r gjson.Result) []PlayerStats {
	if !r.IsArray() {
		return nil
	}
	entries := r.Array()
	players := make([]PlayerStats, 0, len(entries))
	for _, e := range entries {
		if !e.IsObject() {
			players = append(players, PlayerStats{})
			continue
		}
		players = append(players, PlayerStats{
			Champion: text(e.Get("champion")),
			Kills:    count(e.Get("kills")),
			Deaths:   count(e.Get("deaths")),
			Assists:  count(e.Get("assists")),
			CS:       count(e.Get("cs")),
			Gold:     count(e.Get("gold")),
		})
	}
	return players
}

func decodeWinProbability(r gjson.Result) *WinProbability {
	if !r.IsObject() {
		return nil
	}
	return &WinProbability{
		Order: number(r.Get("order")),
		Chaos: number(r.Get("chaos")),
	}
}

// number reads a finite float from a JSON number or numeric string.
func number(r gjson.Result) *float64 {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// count reads a non-negative integer stat.
func count(r gjson.Result) *int {
	f := number(r)
	if f == nil {
		return nil
	}
	v := math.Trunc(*f)
	switch {
	case v <= 0:
		return Int(0)
	case v >= math.MaxInt32:
		return Int(math.MaxInt32)
	}
	return Int(int(v))
}

// text reads a display string; numbers keep their literal form.
func text(r gjson.Result) *string {
	switch r.Type {
	case gjson.String:
		return String(r.Str)
	case gjson.Number:
		return String(r.Raw)
	default:
		return nil
	}
}
