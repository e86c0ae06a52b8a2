package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"ligapro/pkg/ledger"
	"ligapro/pkg/ocr"
	"ligapro/pkg/ranking"
	"ligapro/process"

	"github.com/gin-gonic/gin"
)

// server holds what the HTTP handlers share.
type server struct {
	ingestor *process.Ingestor
	store    ledger.Store
	metrics  *process.Metrics
	maxBytes int64
	logger   *slog.Logger
}

func setupRoutes(r *gin.Engine, s *server) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	r.POST("/uploads", s.uploadHandler)
	r.GET("/stats", s.statsHandler)
	r.GET("/rankings/:kind", s.rankingHandler)
	r.GET("/ledger", s.ledgerHandler)
}

// uploadHandler runs one screenshot through the pipeline. Both "updated"
// and "no_data" answer 200; the status field tells them apart.
func (s *server) uploadHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > s.maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large (max %d bytes)", s.maxBytes)})
		return
	}
	if !process.IsSupportedImage(file.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type (png, jpg, jpeg)"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	if int64(len(data)) > s.maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large (max %d bytes)", s.maxBytes)})
		return
	}

	ct := file.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = process.ContentType(file.Filename)
	}
	res, err := s.ingestor.Ingest(c.Request.Context(), process.Image{
		Name:        filepath.Base(file.Filename),
		ContentType: ct,
		Data:        data,
	})
	if err != nil {
		if errors.Is(err, ocr.ErrUnreadableImage) || errors.Is(err, ocr.ErrEmptyImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image", "batch_id": res.BatchID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed", "batch_id": res.BatchID})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) statsHandler(c *gin.Context) {
	l, ok := s.loadLedger(c)
	if !ok {
		return
	}
	dom, ok := ranking.ThresholdDomain(l)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"message": ranking.EmptyLedgerMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": ranking.Summarize(l), "threshold": dom})
}

func (s *server) rankingHandler(c *gin.Context) {
	kind, err := ranking.ParseKind(strings.ToLower(c.Param("kind")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	minPJ := 1
	if v := c.Query("min_pj"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_pj must be a positive integer"})
			return
		}
		minPJ = n
	}
	l, ok := s.loadLedger(c)
	if !ok {
		return
	}
	if l.Len() == 0 {
		c.JSON(http.StatusOK, gin.H{"message": ranking.EmptyLedgerMessage})
		return
	}
	view, err := ranking.Build(kind, l, minPJ)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

type ledgerRow struct {
	ledger.Entry
	AverageRating float64 `json:"average_rating"`
}

func (s *server) ledgerHandler(c *gin.Context) {
	l, ok := s.loadLedger(c)
	if !ok {
		return
	}
	rows := make([]ledgerRow, 0, l.Len())
	for _, e := range l.Entries() {
		rows = append(rows, ledgerRow{Entry: e, AverageRating: ranking.AverageRating(e)})
	}
	c.JSON(http.StatusOK, gin.H{"players": rows})
}

func (s *server) loadLedger(c *gin.Context) (*ledger.Ledger, bool) {
	l, err := s.store.Load(c.Request.Context())
	if err != nil {
		s.logger.Error("load ledger", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger unavailable"})
		return nil, false
	}
	return l, true
}
