// Package stats turns recognised text lines from a post-match screen into
// per-player observations.
//
// A row looks like "<name> <rating> <goals> <assists>" but OCR lines carry
// icons, shirt numbers and other columns around it, so each line is searched
// for the first run of fields that fits the row shape rather than matched
// end to end. That tolerance also means a noise line that happens to have a
// name-like token followed by a d.d field and two integers is read as a
// player row.
package stats

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// ErrMalformedRow is wrapped by the error of a line that has the row shape
// but whose numbers could not be turned into a valid observation.
var ErrMalformedRow = errors.New("malformed row")

// MalformedLine records a skipped line and why.
type MalformedLine struct {
	Index int
	Line  string
	Err   error
}

// Report is the outcome of scanning a batch of lines.
type Report struct {
	Observations []Observation
	Malformed    []MalformedLine
	Unmatched    int
}

// Extract returns one observation per matching line, in line order.
func Extract(lines []string) []Observation {
	return Scan(lines).Observations
}

// Scan is Extract plus bookkeeping about the lines that were dropped.
func Scan(lines []string) Report {
	var rep Report
	for i, line := range lines {
		obs, ok, err := ParseLine(line)
		switch {
		case err != nil:
			rep.Malformed = append(rep.Malformed, MalformedLine{Index: i, Line: line, Err: err})
		case !ok:
			rep.Unmatched++
		default:
			rep.Observations = append(rep.Observations, obs)
		}
	}
	return rep
}

// ParseLine searches line for the first name/rating/goals/assists window.
// ok is false when nothing fits; err is non-nil when a window fits the shape
// but its numbers are unusable, in which case the whole line is dropped.
func ParseLine(line string) (obs Observation, ok bool, err error) {
	fields := splitFields(line)
	for i := 0; i+3 < len(fields); i++ {
		w, matched := matchWindow(fields[i : i+4])
		if !matched {
			continue
		}
		obs, err = w.observation()
		if err != nil {
			return Observation{}, false, fmt.Errorf("%w: %q: %v", ErrMalformedRow, line, err)
		}
		return obs, true, nil
	}
	return Observation{}, false, nil
}

// window holds the raw text of the four captured groups.
type window struct {
	name, rating, goals, assists string
}

// matchWindow checks four consecutive fields against the row shape.
// The name is the trailing run of name characters of the first field, the
// rating and goals must fill their fields, and assists only needs leading
// digits.
func matchWindow(f []string) (window, bool) {
	name := trailingName(f[0])
	if name == "" {
		return window{}, false
	}
	if !isRating(f[1]) || !allDigits(f[2]) {
		return window{}, false
	}
	assists := leadingDigits(f[3])
	if assists == "" {
		return window{}, false
	}
	return window{name: name, rating: f[1], goals: f[2], assists: assists}, true
}

func (w window) observation() (Observation, error) {
	rating, err := strconv.ParseFloat(w.rating, 64)
	if err != nil {
		return Observation{}, fmt.Errorf("rating %q: %w", w.rating, err)
	}
	goals, err := strconv.Atoi(w.goals)
	if err != nil {
		return Observation{}, fmt.Errorf("goals %q: %w", w.goals, err)
	}
	assists, err := strconv.Atoi(w.assists)
	if err != nil {
		return Observation{}, fmt.Errorf("assists %q: %w", w.assists, err)
	}
	obs := Observation{Name: w.name, Appearances: 1, Goals: goals, Assists: assists, Rating: rating}
	if err := obs.Validate(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// splitFields splits on runs of whitespace.
func splitFields(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '-':
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// trailingName returns the longest suffix of field made of name characters.
func trailingName(field string) string {
	i := len(field)
	for i > 0 && isNameRune(rune(field[i-1])) {
		i--
	}
	return field[i:]
}

// isRating accepts exactly one digit, a dot and one digit.
func isRating(field string) bool {
	return len(field) == 3 && isDigit(field[0]) && field[1] == '.' && isDigit(field[2])
}

func allDigits(field string) bool {
	if field == "" {
		return false
	}
	for i := 0; i < len(field); i++ {
		if !isDigit(field[i]) {
			return false
		}
	}
	return true
}

func leadingDigits(field string) string {
	i := 0
	for i < len(field) && isDigit(field[i]) {
		i++
	}
	return field[:i]
}
