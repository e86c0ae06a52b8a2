package ledger

import (
	"sort"
	"testing"

	"ligapro/pkg/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(name string, rating float64, goals, assists int) stats.Observation {
	return stats.Observation{Name: name, Appearances: 1, Goals: goals, Assists: assists, Rating: rating}
}

// byName returns entries sorted by name so ledgers can be compared
// regardless of insertion order.
func byName(l *Ledger) []Entry {
	es := l.Entries()
	sort.Slice(es, func(i, j int) bool { return es[i].Name < es[j].Name })
	return es
}

func TestMergeCreatesAndAccumulates(t *testing.T) {
	l := Merge(New(), []stats.Observation{obs("A", 7.5, 2, 1)})
	e, ok := l.Get("A")
	require.True(t, ok)
	assert.Equal(t, Entry{Name: "A", Appearances: 1, Goals: 2, Assists: 1, RatingTotal: 7.5}, e)

	l = Merge(l, []stats.Observation{obs("A", 8.0, 1, 0), obs("B", 6.1, 0, 0)})
	e, _ = l.Get("A")
	assert.Equal(t, Entry{Name: "A", Appearances: 2, Goals: 3, Assists: 1, RatingTotal: 15.5}, e)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []string{"A", "B"}, []string{l.Entries()[0].Name, l.Entries()[1].Name})
}

func TestMergeLeavesInputUntouched(t *testing.T) {
	base := Merge(New(), []stats.Observation{obs("A", 7.0, 1, 1)})
	_ = Merge(base, []stats.Observation{obs("A", 7.0, 1, 1), obs("Z", 5.0, 0, 0)})

	e, _ := base.Get("A")
	assert.Equal(t, 1, e.Appearances)
	assert.Equal(t, 1, base.Len())
}

func TestMergeTakesAppearancesFromObservation(t *testing.T) {
	o := obs("A", 7.0, 0, 0)
	o.Appearances = 3
	l := Merge(New(), []stats.Observation{o})
	e, _ := l.Get("A")
	assert.Equal(t, 3, e.Appearances)
}

func TestMergeDisjointBatchesCommute(t *testing.T) {
	b1 := []stats.Observation{obs("A", 7.5, 2, 1), obs("B", 6.0, 0, 2)}
	b2 := []stats.Observation{obs("C", 8.8, 3, 0), obs("D", 7.1, 1, 1)}

	start := Merge(New(), []stats.Observation{obs("A", 6.6, 1, 0)})
	ab := Merge(Merge(start, b1), b2)
	ba := Merge(Merge(start, b2), b1)
	assert.Equal(t, byName(ab), byName(ba))
}

func TestMergeConcatenationMatchesSequential(t *testing.T) {
	b1 := []stats.Observation{obs("A", 7.5, 2, 1), obs("B", 6.0, 0, 2), obs("A", 6.9, 0, 0)}
	b2 := []stats.Observation{obs("A", 8.8, 3, 0), obs("B", 7.1, 1, 1)}

	seq := Merge(Merge(New(), b1), b2)
	cat := Merge(New(), append(append([]stats.Observation{}, b1...), b2...))
	assert.Equal(t, byName(seq), byName(cat))
}

func TestMergeConservation(t *testing.T) {
	start := Merge(New(), []stats.Observation{obs("Other", 6.0, 1, 1)})
	batch := []stats.Observation{
		obs("P", 7.1, 1, 0),
		obs("Other", 6.4, 0, 0),
		obs("P", 8.2, 2, 1),
		obs("P", 6.3, 0, 3),
	}
	out := Merge(start, batch)

	p, ok := out.Get("P")
	require.True(t, ok)
	assert.Equal(t, 3, p.Appearances)
	assert.Equal(t, 3, p.Goals)
	assert.Equal(t, 4, p.Assists)
	assert.Equal(t, 21.6, p.RatingTotal)

	other, _ := out.Get("Other")
	assert.Equal(t, 2, other.Appearances)
	assert.Equal(t, 12.4, other.RatingTotal)
}

func TestAddRatingsIsExact(t *testing.T) {
	assert.Equal(t, 15.3, addRatings(7.1, 8.2))
	assert.Equal(t, 0.3, addRatings(0.1, 0.2))

	total := 0.0
	for i := 0; i < 10; i++ {
		total = addRatings(total, 7.7)
	}
	assert.Equal(t, 77.0, total)
}

func TestFromEntriesFoldsDuplicates(t *testing.T) {
	l := FromEntries([]Entry{
		{Name: "A", Appearances: 1, Goals: 1, RatingTotal: 7},
		{Name: "B", Appearances: 1, RatingTotal: 6},
		{Name: "A", Appearances: 2, Goals: 1, Assists: 1, RatingTotal: 14.5},
	})
	require.Equal(t, 2, l.Len())
	a, _ := l.Get("A")
	assert.Equal(t, Entry{Name: "A", Appearances: 3, Goals: 2, Assists: 1, RatingTotal: 21.5}, a)
}
