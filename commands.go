package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ligapro/pkg/ocr"
	"ligapro/pkg/ranking"
	"ligapro/process"

	"github.com/gin-gonic/gin"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfgPath string
	cfg     Config
	logger  *slog.Logger
	// newSource builds the OCR engine; tests swap it for a static one.
	newSource func(OCRConfig, *slog.Logger) ocr.TextLineSource
}

func tesseractSource(cfg OCRConfig, logger *slog.Logger) ocr.TextLineSource {
	return ocr.NewTesseract(ocr.Config{
		Languages:   strings.Split(cfg.Language, "+"),
		PageSegMode: cfg.PageSegMode,
		MinHeight:   cfg.MinHeight,
		Threshold:   uint8(cfg.Threshold),
	}, logger)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{newSource: tesseractSource})
}

func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ligapro",
		Short: "League statistics from post-match screenshots",
		Long: `ligapro reads player rows off post-match screenshots, accumulates them
into a season ledger and serves rankings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(viper.New(), a.cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default .ligapro.yaml in . or $HOME)")

	root.AddCommand(
		a.initCmd(),
		a.ingestCmd(),
		a.serveCmd(),
		a.watchCmd(),
		a.rankCmd(),
		a.summaryCmd(),
	)
	return root
}

func (a *app) newIngestor(ctx context.Context, metrics *process.Metrics) (*process.Ingestor, func() error, error) {
	store, closeFn, err := openStore(ctx, a.cfg.Store, a.logger)
	if err != nil {
		return nil, closeFn, err
	}
	src := a.newSource(a.cfg.OCR, a.logger)
	return process.NewIngestor(src, store, process.WithLogger(a.logger), process.WithMetrics(metrics)), closeFn, nil
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the ledger storage if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, closeFn, err := openStore(cmd.Context(), a.cfg.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeFn()
			fmt.Fprintf(cmd.OutOrStdout(), "ledger ready (%s)\n", a.cfg.Store.Driver)
			return nil
		},
	}
}

func (a *app) ingestCmd() *cobra.Command {
	var fromText bool
	cmd := &cobra.Command{
		Use:   "ingest <image>...",
		Short: "Read screenshots and merge their player rows into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, closeFn, err := a.newIngestor(ctx, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				res, err := ingestPath(ctx, in, path, fromText)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: error: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "%s: %s (%d filas) %s\n", path, res.Message, res.Records, res.BatchID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromText, "text", false, "treat arguments as saved OCR text, one line per row")
	return cmd
}

func ingestPath(ctx context.Context, in *process.Ingestor, path string, fromText bool) (process.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return process.Result{}, err
	}
	name := filepath.Base(path)
	if fromText {
		return in.IngestLines(ctx, name, strings.Split(string(data), "\n"))
	}
	return in.Ingest(ctx, process.Image{Name: name, ContentType: process.ContentType(name), Data: data})
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload and ranking HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			metrics := process.NewMetrics()
			in, closeFn, err := a.newIngestor(ctx, metrics)
			if err != nil {
				return err
			}
			defer closeFn()

			r := gin.Default()
			setupRoutes(r, &server{
				ingestor: in,
				store:    in.Store(),
				metrics:  metrics,
				maxBytes: a.cfg.Upload.MaxBytes,
				logger:   a.logger,
			})
			srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			a.logger.Info("listening", "addr", a.cfg.Server.Addr, "store", a.cfg.Store.Driver)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Ingest screenshots dropped into the watch directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := os.MkdirAll(a.cfg.Watch.Dir, 0o755); err != nil {
				return fmt.Errorf("watch dir: %w", err)
			}
			in, closeFn, err := a.newIngestor(ctx, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			w := &process.Watcher{
				Dir:               a.cfg.Watch.Dir,
				ProcessedDir:      a.cfg.Watch.ProcessedDir,
				Workers:           a.cfg.Watch.Workers,
				MaxProcessedBytes: a.cfg.Watch.MaxBytes,
				Ingestor:          in,
				Logger:            a.logger,
			}
			if once {
				_, err = w.Scan(ctx)
			} else {
				err = w.Run(ctx)
			}
			s := w.Summary()
			fmt.Fprintf(cmd.OutOrStdout(), "files=%d updated=%d no_data=%d failed=%d\n", s.Files, s.Updated, s.NoData, s.Failed)
			return err
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "scan the directory once and exit")
	return cmd
}

func (a *app) rankCmd() *cobra.Command {
	var (
		kind  string
		minPJ int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print a leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := ranking.ParseKind(kind)
			if err != nil {
				return err
			}
			if minPJ < 1 {
				return errors.New("--min-pj must be at least 1")
			}
			store, closeFn, err := openStore(cmd.Context(), a.cfg.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeFn()
			l, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if l.Len() == 0 {
				fmt.Fprintln(out, ranking.EmptyLedgerMessage)
				return nil
			}
			view, err := ranking.Build(k, l, minPJ)
			if err != nil {
				return err
			}
			renderView(out, view)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(ranking.Goals), "goals, assists or rating")
	cmd.Flags().IntVar(&minPJ, "min-pj", 1, "minimum appearances")
	return cmd
}

func renderView(w io.Writer, v ranking.View) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(v.Title)
	tbl.AppendHeader(table.Row{"#", "Nombre", "PJ", v.Metric})
	for i, r := range v.Rows {
		value := fmt.Sprintf("%.0f", r.Value)
		if v.Kind == ranking.Rating {
			value = fmt.Sprintf("%.2f", r.Value)
		}
		tbl.AppendRow(table.Row{i + 1, r.Name, r.Appearances, value})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("PJ >= %d", v.Threshold), "", fmt.Sprintf("%d jugadores", len(v.Rows))})
	tbl.Render()
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print season totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := openStore(cmd.Context(), a.cfg.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeFn()
			l, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			dom, ok := ranking.ThresholdDomain(l)
			if !ok {
				fmt.Fprintln(out, ranking.EmptyLedgerMessage)
				return nil
			}
			s := ranking.Summarize(l)
			tbl := table.NewWriter()
			tbl.SetOutputMirror(out)
			tbl.SetStyle(table.StyleLight)
			tbl.AppendRows([]table.Row{
				{"Goles totales", s.TotalGoals},
				{"Asistencias totales", s.TotalAssists},
				{"Jugadores", s.TotalPlayers},
				{"PJ mínimo/máximo", fmt.Sprintf("%d-%d", dom.Min, dom.Max)},
			})
			tbl.Render()
			return nil
		},
	}
}
