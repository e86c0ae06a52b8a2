package process

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	debounceTick   = 250 * time.Millisecond
	debounceStable = 300 * time.Millisecond
)

// Watcher ingests every screenshot dropped into Dir. Successfully read
// files are moved to ProcessedDir so they are never counted twice.
type Watcher struct {
	Dir          string
	ProcessedDir string
	Workers      int
	// MaxProcessedBytes bounds archived files; zero keeps them as they are.
	MaxProcessedBytes int64

	Ingestor *Ingestor
	Logger   *slog.Logger

	inflight sync.Map
	files    atomic.Int64
	updated  atomic.Int64
	noData   atomic.Int64
	failed   atomic.Int64
}

// ScanSummary counts the outcomes of a scan or watch session.
type ScanSummary struct {
	Files   int64
	Updated int64
	NoData  int64
	Failed  int64
}

// Summary returns the counters accumulated so far.
func (w *Watcher) Summary() ScanSummary {
	return ScanSummary{
		Files:   w.files.Load(),
		Updated: w.updated.Load(),
		NoData:  w.noData.Load(),
		Failed:  w.failed.Load(),
	}
}

func (w *Watcher) workers() int {
	if w.Workers <= 0 {
		return runtime.NumCPU()
	}
	return w.Workers
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}

// Scan ingests the screenshots currently in Dir and returns once all of
// them are handled.
func (w *Watcher) Scan(ctx context.Context) (ScanSummary, error) {
	files, err := ListImages(w.Dir)
	if err != nil {
		return ScanSummary{}, fmt.Errorf("list %s: %w", w.Dir, err)
	}
	w.logger().Info("scanning", "dir", w.Dir, "files", len(files), "workers", w.workers())

	names := make(chan string)
	done := w.startPool(ctx, names)
	feed(ctx, names, files)
	close(names)
	<-done
	return w.Summary(), ctx.Err()
}

// Run scans Dir, then keeps ingesting new files until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	// watch before listing so nothing created in between is missed
	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}

	names := make(chan string, 256)
	done := w.startPool(ctx, names)
	defer func() {
		close(names)
		<-done
	}()

	files, err := ListImages(w.Dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", w.Dir, err)
	}
	feed(ctx, names, files)
	w.logger().Info("watching", "dir", w.Dir, "existing", len(files))

	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !IsSupportedImage(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > debounceStable {
					delete(pending, name)
					feed(ctx, names, []string{name})
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger().Warn("watch error", "err", err)
		}
	}
}

func feed(ctx context.Context, names chan<- string, files []string) {
	for _, f := range files {
		select {
		case names <- f:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) startPool(ctx context.Context, names <-chan string) <-chan struct{} {
	var wg sync.WaitGroup
	for i := 0; i < w.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range names {
				if ctx.Err() != nil {
					continue
				}
				w.processFile(ctx, name)
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// processFile ingests one file. A name already being handled by another
// worker is skipped.
func (w *Watcher) processFile(ctx context.Context, name string) {
	if _, busy := w.inflight.LoadOrStore(name, struct{}{}); busy {
		return
	}
	defer w.inflight.Delete(name)

	log := w.logger().With("file", name)
	path := filepath.Join(w.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			log.Debug("already gone")
			return
		}
		w.failed.Add(1)
		log.Error("read image", "err", err)
		return
	}
	w.files.Add(1)

	res, err := w.Ingestor.Ingest(ctx, Image{Name: name, ContentType: ContentType(name), Data: data})
	if err != nil {
		w.failed.Add(1)
		return
	}
	switch res.Status {
	case StatusUpdated:
		w.updated.Add(1)
	case StatusNoData:
		w.noData.Add(1)
	}

	if w.ProcessedDir == "" {
		return
	}
	if err := moveToProcessed(path, w.ProcessedDir, w.MaxProcessedBytes); err != nil {
		log.Warn("move to processed", "err", err)
		return
	}
	log.Debug("moved", "to", w.ProcessedDir)
}
