// Package ledger holds the cumulative season table and the stores that
// persist it between runs.
package ledger

// Entry is one player's season-to-date totals.
type Entry struct {
	Name        string  `json:"name"`
	Appearances int     `json:"appearances"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	RatingTotal float64 `json:"rating_total"`
}

// Ledger is the table of entries keyed by player name. Entries keep the
// order in which they were first added or loaded.
type Ledger struct {
	entries []Entry
	index   map[string]int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{index: map[string]int{}}
}

// FromEntries builds a ledger from rows in load order. A repeated name is
// folded into the first row with that name.
func FromEntries(rows []Entry) *Ledger {
	l := New()
	for _, e := range rows {
		if i, ok := l.index[e.Name]; ok {
			cur := &l.entries[i]
			cur.Appearances += e.Appearances
			cur.Goals += e.Goals
			cur.Assists += e.Assists
			cur.RatingTotal = addRatings(cur.RatingTotal, e.RatingTotal)
			continue
		}
		l.index[e.Name] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return l
}

// Len is the number of distinct players.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Get returns the entry for name.
func (l *Ledger) Get(name string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	i, ok := l.index[name]
	if !ok {
		return Entry{}, false
	}
	return l.entries[i], true
}

// Entries returns a copy of all entries in ledger order.
func (l *Ledger) Entries() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clone returns an independent copy of l.
func (l *Ledger) Clone() *Ledger {
	c := New()
	if l == nil {
		return c
	}
	c.entries = l.Entries()
	for k, v := range l.index {
		c.index[k] = v
	}
	return c
}
