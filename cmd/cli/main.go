package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/analytics"
	"github.com/dvloznov/ledger-analyzer/internal/config"
	"github.com/dvloznov/ledger-analyzer/internal/extract"
	"github.com/dvloznov/ledger-analyzer/internal/ingest"
	"github.com/dvloznov/ledger-analyzer/internal/logger"
	"github.com/dvloznov/ledger-analyzer/internal/objectstore"
	"github.com/dvloznov/ledger-analyzer/internal/storage"
	"github.com/dvloznov/ledger-analyzer/internal/vision"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Ledger Analyzer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Ingest a local document and print its analytics")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// runAnalyze is a one-shot local run: ingest a file into an in-memory
// repository and print the summary, ratios and anomalies as JSON. Nothing
// touches BigQuery or GCS.
func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	file := fs.String("file", "", "Path to the document (xlsx, xls, csv, tsv, pdf)")
	format := fs.String("format", "", "Declared format, overrides extension detection")
	useVision := fs.Bool("vision", false, "Enable the vision fallback for PDFs (needs GEMINI_API_KEY)")
	fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := config.Load()
	ctx := context.Background()

	var analyzer vision.Analyzer
	if *useVision {
		var err error
		analyzer, err = vision.NewGeminiAnalyzer(ctx, cfg.Ingest.VisionModel, logger.WithComponent(log, "vision"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create vision analyzer")
		}
	}

	repo := storage.NewMemoryRepository()
	store := objectstore.NewMemoryStore()
	runner := extract.NewExecRunner(logger.WithComponent(log, "exec"))
	pdfCfg := extract.PDFConfig{
		PdftotextBin: cfg.Ingest.PdftotextBin,
		PdftoppmBin:  cfg.Ingest.PdftoppmBin,
		RasterDPI:    cfg.Ingest.RasterDPI,
		PageTimeout:  cfg.Ingest.VisionPageTimeout,
	}
	ingestor := ingest.New(cfg.Ingest, repo, store,
		extract.NewSpreadsheetExtractor(logger.WithComponent(log, "spreadsheet")),
		extract.NewDelimitedExtractor(logger.WithComponent(log, "delimited")),
		extract.NewPDFExtractor(pdfCfg, runner, analyzer, logger.WithComponent(log, "pdf")),
		logger.WithComponent(log, "ingest"),
	)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to open document")
	}
	defer f.Close()

	result := ingestor.Ingest(ctx, f, *file, *format)
	printJSON("result", result)
	if !result.Success {
		os.Exit(1)
	}

	engine := analytics.NewEngine(repo, cfg.Analytics, logger.WithComponent(log, "analytics"))

	summary, err := engine.Summarize(ctx, result.DocumentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Summary failed")
	}
	printJSON("summary", summary)

	ratios, err := engine.Ratios(ctx, result.DocumentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Ratios failed")
	}
	printJSON("ratios", ratios)

	anomalies, err := engine.DetectAnomalies(ctx, result.DocumentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Anomaly detection failed")
	}
	printJSON("anomalies", anomalies)
}

func printJSON(label string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding %s: %v\n", label, err)
		return
	}
	fmt.Printf("== %s ==\n%s\n", label, data)
}
