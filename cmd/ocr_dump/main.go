// Command ocr_dump prints what the OCR pass reads off a screenshot and how
// each line is classified, to debug templates that yield no rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"ligapro/pkg/ocr"
	"ligapro/pkg/stats"

	"github.com/disintegration/imaging"
)

func main() {
	path := flag.String("path", "", "image path")
	lang := flag.String("lang", "eng", "tesseract languages, joined with +")
	psm := flag.Int("psm", 0, "tesseract page segmentation mode (0 keeps the default)")
	minHeight := flag.Int("min-height", 900, "upscale images shorter than this")
	threshold := flag.Int("threshold", 0, "global binarisation threshold (0 disables)")
	dump := flag.Bool("dump-preprocessed", false, "write the preprocessed image next to the input as <name>.ocr.png")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()
	if *path == "" {
		log.Fatal("--path is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	tess := ocr.NewTesseract(ocr.Config{
		Languages:   strings.Split(*lang, "+"),
		PageSegMode: *psm,
		MinHeight:   *minHeight,
		Threshold:   uint8(*threshold),
	}, logger)

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	if *dump {
		img, err := tess.Preprocess(data)
		if err != nil {
			log.Fatalf("preprocess: %v", err)
		}
		out := strings.TrimSuffix(*path, ".png") + ".ocr.png"
		if err := imaging.Save(img, out); err != nil {
			log.Fatalf("save preprocessed: %v", err)
		}
		fmt.Printf("preprocessed image: %s\n", out)
	}

	lines, err := tess.Lines(context.Background(), data)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	var rows int
	for i, line := range lines {
		obs, ok, err := stats.ParseLine(line)
		switch {
		case err != nil:
			fmt.Printf("%3d MALFORMED %q (%v)\n", i, line, err)
		case ok:
			rows++
			fmt.Printf("%3d ROW       %q -> %s rating=%.1f goals=%d assists=%d\n", i, line, obs.Name, obs.Rating, obs.Goals, obs.Assists)
		default:
			fmt.Printf("%3d skip      %q\n", i, line)
		}
	}
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("lines=%d rows=%d\n", len(lines), rows)
}
