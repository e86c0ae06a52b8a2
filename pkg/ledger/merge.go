package ledger

import "ligapro/pkg/stats"

// Merge folds batch into a copy of l and returns it. A known name
// accumulates appearances, goals, assists and rating; an unknown name is
// appended with the observation's own counts. Duplicate names inside the
// batch are applied one after another.
func Merge(l *Ledger, batch []stats.Observation) *Ledger {
	out := l.Clone()
	for _, o := range batch {
		if i, ok := out.index[o.Name]; ok {
			e := &out.entries[i]
			e.Appearances += o.Appearances
			e.Goals += o.Goals
			e.Assists += o.Assists
			e.RatingTotal = addRatings(e.RatingTotal, o.Rating)
			continue
		}
		out.index[o.Name] = len(out.entries)
		out.entries = append(out.entries, Entry{
			Name:        o.Name,
			Appearances: o.Appearances,
			Goals:       o.Goals,
			Assists:     o.Assists,
			RatingTotal: o.Rating,
		})
	}
	return out
}
