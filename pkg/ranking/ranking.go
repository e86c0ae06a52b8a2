// Package ranking derives the leaderboards and season totals shown on the
// dashboard from a loaded ledger.
package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ligapro/pkg/ledger"
)

// EmptyLedgerMessage is shown when there is nothing to rank yet.
const EmptyLedgerMessage = "Sube primero una imagen o carga datos para empezar."

// ErrUnknownKind is returned for a ranking name that is not goals, assists
// or rating.
var ErrUnknownKind = errors.New("unknown ranking")

// Kind selects a leaderboard.
type Kind string

const (
	Goals   Kind = "goals"
	Assists Kind = "assists"
	Rating  Kind = "rating"
)

// Kinds lists the leaderboards in menu order.
var Kinds = []Kind{Goals, Assists, Rating}

// ParseKind maps a name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title is the heading of the leaderboard.
func (k Kind) Title() string {
	switch k {
	case Goals:
		return "Ranking Goleadores"
	case Assists:
		return "Ranking Asistencias"
	case Rating:
		return "Ranking MVP (Calificación Prom.)"
	}
	return string(k)
}

// Metric is the column name of the ranked value.
func (k Kind) Metric() string {
	switch k {
	case Goals:
		return "goals"
	case Assists:
		return "assists"
	case Rating:
		return "average_rating"
	}
	return ""
}

// Row is one line of a leaderboard.
type Row struct {
	Name        string  `json:"name"`
	Appearances int     `json:"appearances"`
	Value       float64 `json:"value"`
}

// View is a sorted leaderboard.
type View struct {
	Kind      Kind   `json:"kind"`
	Title     string `json:"title"`
	Metric    string `json:"metric"`
	Threshold int    `json:"min_appearances"`
	Rows      []Row  `json:"rows"`
}

// AverageRating is RatingTotal/Appearances rounded to two decimals.
func AverageRating(e ledger.Entry) float64 {
	if e.Appearances <= 0 {
		return 0
	}
	return math.Round(e.RatingTotal/float64(e.Appearances)*100) / 100
}

// Build returns the leaderboard of kind for players with at least minApps
// appearances, highest value first. Equal values keep ledger order.
func Build(kind Kind, l *ledger.Ledger, minApps int) (View, error) {
	var value func(ledger.Entry) float64
	switch kind {
	case Goals:
		value = func(e ledger.Entry) float64 { return float64(e.Goals) }
	case Assists:
		value = func(e ledger.Entry) float64 { return float64(e.Assists) }
	case Rating:
		value = AverageRating
	default:
		return View{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	rows := []Row{}
	for _, e := range l.Entries() {
		if e.Appearances < minApps {
			continue
		}
		rows = append(rows, Row{Name: e.Name, Appearances: e.Appearances, Value: value(e)})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })

	return View{Kind: kind, Title: kind.Title(), Metric: kind.Metric(), Threshold: minApps, Rows: rows}, nil
}

// ByGoals is Build(Goals, ...).
func ByGoals(l *ledger.Ledger, minApps int) []Row {
	v, _ := Build(Goals, l, minApps)
	return v.Rows
}

// ByAssists is Build(Assists, ...).
func ByAssists(l *ledger.Ledger, minApps int) []Row {
	v, _ := Build(Assists, l, minApps)
	return v.Rows
}

// ByRating is Build(Rating, ...).
func ByRating(l *ledger.Ledger, minApps int) []Row {
	v, _ := Build(Rating, l, minApps)
	return v.Rows
}

// Summary holds season totals over every player, independent of any
// appearances threshold.
type Summary struct {
	TotalGoals   int `json:"total_goals"`
	TotalAssists int `json:"total_assists"`
	TotalPlayers int `json:"total_players"`
}

// Summarize totals the whole ledger.
func Summarize(l *ledger.Ledger) Summary {
	var s Summary
	for _, e := range l.Entries() {
		s.TotalGoals += e.Goals
		s.TotalAssists += e.Assists
	}
	s.TotalPlayers = l.Len()
	return s
}

// Domain is the range of useful appearance thresholds.
type Domain struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ThresholdDomain returns [1, max appearances]. ok is false for an empty
// ledger.
func ThresholdDomain(l *ledger.Ledger) (d Domain, ok bool) {
	if l.Len() == 0 {
		return Domain{}, false
	}
	d.Min = 1
	for _, e := range l.Entries() {
		if e.Appearances > d.Max {
			d.Max = e.Appearances
		}
	}
	if d.Max < d.Min {
		d.Max = d.Min
	}
	return d, true
}

// Contains reports whether t is inside the domain.
func (d Domain) Contains(t int) bool {
	return t >= d.Min && t <= d.Max
}
