package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Column names of the stats file. They match files written by earlier
// versions of the dashboard and must not change.
const (
	ColName        = "Nombre"
	ColAppearances = "PJ"
	ColGoals       = "Goles"
	ColAssists     = "Asistencias"
	ColRatingTotal = "CalificacionTotal"
)

// Header is the exact header row of the stats file.
var Header = []string{ColName, ColAppearances, ColGoals, ColAssists, ColRatingTotal}

// CSVStore keeps the ledger in a comma separated file.
type CSVStore struct {
	Path string
}

// NewCSVStore returns a store backed by the file at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path}
}

// Init writes a header-only file when the file is missing or empty.
func (s *CSVStore) Init(ctx context.Context) error {
	fi, err := os.Stat(s.Path)
	switch {
	case err == nil && fi.Size() > 0:
		return nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat %s: %w", s.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	return s.Save(ctx, New())
}

// Load reads the whole file. A missing file reads as an empty ledger.
func (s *CSVStore) Load(ctx context.Context) (*Ledger, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()
	rows, err := readRows(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return FromEntries(rows), nil
}

// Save rewrites the file through a temporary file and a rename, so readers
// see either the old or the new table.
func (s *CSVStore) Save(ctx context.Context, l *Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := writeRows(tmp, l.Entries()); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		cleanup()
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func writeRows(w io.Writer, rows []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range rows {
		rec := []string{
			e.Name,
			strconv.Itoa(e.Appearances),
			strconv.Itoa(e.Goals),
			strconv.Itoa(e.Assists),
			formatRating(e.RatingTotal),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRows(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := map[string]int{}
	for i, h := range head {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[h] = i
	}
	for _, want := range Header {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}

	var out []Entry
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		e, err := parseRow(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptRow, line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRow(cols map[string]int, rec []string) (Entry, error) {
	var e Entry
	var err error
	e.Name = valueAt(cols, rec, ColName)
	if e.Name == "" {
		return e, fmt.Errorf("empty %s", ColName)
	}
	if e.Appearances, err = parseCount(valueAt(cols, rec, ColAppearances)); err != nil {
		return e, fmt.Errorf("%s: %w", ColAppearances, err)
	}
	if e.Appearances < 1 {
		return e, fmt.Errorf("%s must be at least 1, got %d", ColAppearances, e.Appearances)
	}
	if e.Goals, err = parseCount(valueAt(cols, rec, ColGoals)); err != nil {
		return e, fmt.Errorf("%s: %w", ColGoals, err)
	}
	if e.Assists, err = parseCount(valueAt(cols, rec, ColAssists)); err != nil {
		return e, fmt.Errorf("%s: %w", ColAssists, err)
	}
	if e.RatingTotal, err = strconv.ParseFloat(valueAt(cols, rec, ColRatingTotal), 64); err != nil {
		return e, fmt.Errorf("%s: %w", ColRatingTotal, err)
	}
	return e, nil
}

func valueAt(cols map[string]int, rec []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseCount accepts "3" and also "3.0", which older writers produced for
// integer columns.
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("not a whole count: %q", s)
	}
	return int(f), nil
}
