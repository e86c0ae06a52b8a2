package stats

import "fmt"

// MaxRating is the highest per-match rating the stats screen can show.
const MaxRating = 9.9

// Observation is one player's line from a single post-match screen.
type Observation struct {
	Name        string  `json:"name"`
	Appearances int     `json:"appearances"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	Rating      float64 `json:"rating"`
}

// Validate reports whether o can be merged into a ledger.
func (o Observation) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("observation: empty name")
	}
	for _, r := range o.Name {
		if !isNameRune(r) {
			return fmt.Errorf("observation %q: invalid name character %q", o.Name, r)
		}
	}
	if o.Appearances < 1 {
		return fmt.Errorf("observation %q: appearances %d < 1", o.Name, o.Appearances)
	}
	if o.Goals < 0 || o.Assists < 0 {
		return fmt.Errorf("observation %q: negative goals/assists", o.Name)
	}
	if o.Rating < 0 || o.Rating > MaxRating {
		return fmt.Errorf("observation %q: rating %.1f out of range", o.Name, o.Rating)
	}
	return nil
}
