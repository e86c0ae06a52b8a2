// Package process runs screenshots through OCR, extraction and the ledger
// read-modify-write, either one at a time or for a watched directory.
package process

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ligapro/models"
	"ligapro/pkg/ledger"
	"ligapro/pkg/ocr"
	"ligapro/pkg/stats"

	"github.com/google/uuid"
)

// Status is the outcome of an ingestion that did not fail.
type Status string

const (
	StatusUpdated Status = "updated"
	StatusNoData  Status = "no_data"
)

// User-facing messages.
const (
	MessageUpdated = "¡Estadísticas actualizadas!"
	MessageNoData  = "No se reconocieron datos claros en la imagen (verifica la calidad o plantilla)."
)

// Result describes one ingestion.
type Result struct {
	BatchID   string `json:"batch_id"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
	Lines     int    `json:"lines"`
	Records   int    `json:"records"`
	Malformed int    `json:"malformed"`
	Merged    bool   `json:"merged"`
	Players   int    `json:"players,omitempty"`
}

// Journal records every processed upload. ledger.GormStore implements it.
type Journal interface {
	RecordUpload(ctx context.Context, up models.Upload) error
}

// Image is one screenshot to ingest.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ingestor owns the read-modify-write cycle against a store. OCR runs
// outside the lock so watcher workers overlap on it; merges never do.
type Ingestor struct {
	source  ocr.TextLineSource
	store   ledger.Store
	logger  *slog.Logger
	metrics *Metrics
	journal Journal

	mu sync.Mutex
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(in *Ingestor) { in.metrics = m }
}

// WithJournal records each upload after it is processed.
func WithJournal(j Journal) Option {
	return func(in *Ingestor) { in.journal = j }
}

// NewIngestor wires a text source to a store. If the store also implements
// Journal it is used as the journal unless WithJournal overrides it.
func NewIngestor(source ocr.TextLineSource, store ledger.Store, opts ...Option) *Ingestor {
	in := &Ingestor{source: source, store: store}
	if j, ok := store.(Journal); ok {
		in.journal = j
	}
	for _, o := range opts {
		o(in)
	}
	if in.logger == nil {
		in.logger = slog.New(slog.DiscardHandler)
	}
	return in
}

// Store returns the ledger store the ingestor writes to.
func (in *Ingestor) Store() ledger.Store { return in.store }

// Ingest extracts the player rows of img and merges them into the stored
// ledger. A screenshot without rows yields StatusNoData and leaves the
// store untouched; so does any error.
func (in *Ingestor) Ingest(ctx context.Context, img Image) (Result, error) {
	start := time.Now()
	res := Result{BatchID: uuid.NewString()}

	lines, err := in.source.Lines(ctx, img.Data)
	if err != nil {
		in.fail(ctx, img, res, "ocr", err)
		return res, fmt.Errorf("read text from %s: %w", img.Name, err)
	}
	return in.apply(ctx, img, res, lines, start)
}

// IngestLines merges already recognised lines, bypassing the text source.
func (in *Ingestor) IngestLines(ctx context.Context, name string, lines []string) (Result, error) {
	return in.apply(ctx, Image{Name: name}, Result{BatchID: uuid.NewString()}, lines, time.Now())
}

func (in *Ingestor) apply(ctx context.Context, img Image, res Result, lines []string, start time.Time) (Result, error) {
	log := in.logger.With("batch", res.BatchID, "file", img.Name)
	res.Lines = len(lines)

	rep := stats.Scan(lines)
	for _, m := range rep.Malformed {
		log.Debug("skipping malformed row", "line", m.Index, "text", ocr.Snippet(m.Line, 80), "err", m.Err)
	}
	res.Records = len(rep.Observations)
	res.Malformed = len(rep.Malformed)

	if len(rep.Observations) == 0 {
		res.Status = StatusNoData
		res.Message = MessageNoData
		log.Info("no rows recognised", "lines", res.Lines, "unmatched", rep.Unmatched)
		if in.metrics != nil {
			in.metrics.EmptyBatches.Inc()
			in.metrics.Images.WithLabelValues(string(StatusNoData)).Inc()
			in.metrics.Duration.Observe(time.Since(start).Seconds())
		}
		in.record(ctx, img, res, "")
		return res, nil
	}

	players, err := in.merge(ctx, rep.Observations)
	if err != nil {
		in.fail(ctx, img, res, "store", err)
		return res, err
	}

	res.Status = StatusUpdated
	res.Message = MessageUpdated
	res.Merged = true
	res.Players = players
	log.Info("ledger updated", "records", res.Records, "players", players, "elapsed", time.Since(start))
	if in.metrics != nil {
		in.metrics.Observations.Add(float64(res.Records))
		in.metrics.Images.WithLabelValues(string(StatusUpdated)).Inc()
		in.metrics.Duration.Observe(time.Since(start).Seconds())
	}
	in.record(ctx, img, res, "")
	return res, nil
}

func (in *Ingestor) merge(ctx context.Context, batch []stats.Observation) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	current, err := in.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}
	next := ledger.Merge(current, batch)
	if err := in.store.Save(ctx, next); err != nil {
		return 0, fmt.Errorf("save ledger: %w", err)
	}
	return next.Len(), nil
}

func (in *Ingestor) fail(ctx context.Context, img Image, res Result, stage string, err error) {
	in.logger.Error("ingestion failed", "batch", res.BatchID, "file", img.Name, "stage", stage, "err", err)
	if in.metrics != nil {
		in.metrics.Errors.WithLabelValues(stage).Inc()
		in.metrics.Images.WithLabelValues("failed").Inc()
	}
	in.record(ctx, img, res, ocr.Snippet(err.Error(), 250))
}

func (in *Ingestor) record(ctx context.Context, img Image, res Result, failure string) {
	if in.journal == nil {
		return
	}
	records := 0
	if res.Merged {
		records = res.Records
	}
	up := models.Upload{
		BatchID:      res.BatchID,
		FileName:     img.Name,
		ContentType:  img.ContentType,
		Lines:        res.Lines,
		Records:      records,
		Failed:       failure != "",
		FailedReason: failure,
	}
	if err := in.journal.RecordUpload(ctx, up); err != nil {
		in.logger.Warn("journal upload", "batch", res.BatchID, "err", err)
	}
}
