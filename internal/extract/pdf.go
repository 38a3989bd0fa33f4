package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
	"github.com/dvloznov/ledger-analyzer/internal/vision"
)

// minTextRecords is the escalation threshold: a text-layer pass that yields
// fewer records than this is assumed to have hit a scanned or image-heavy
// PDF, and the vision stage takes over.
const minTextRecords = 3

// PDFConfig carries the external-tool settings for PDF extraction.
type PDFConfig struct {
	PdftotextBin string
	PdftoppmBin  string
	RasterDPI    int
	PageTimeout  time.Duration
}

// PDFExtractor runs the two-stage PDF strategy: a cheap pdftotext pass
// first, then per-page rasterization and a vision model when the text layer
// is too thin. A nil analyzer disables the second stage.
type PDFExtractor struct {
	cfg      PDFConfig
	runner   Runner
	analyzer vision.Analyzer
	log      zerolog.Logger
	now      func() time.Time
}

func NewPDFExtractor(cfg PDFConfig, runner Runner, analyzer vision.Analyzer, log zerolog.Logger) *PDFExtractor {
	if cfg.PdftotextBin == "" {
		cfg.PdftotextBin = "pdftotext"
	}
	if cfg.PdftoppmBin == "" {
		cfg.PdftoppmBin = "pdftoppm"
	}
	if cfg.RasterDPI <= 0 {
		cfg.RasterDPI = 200
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 60 * time.Second
	}
	return &PDFExtractor{cfg: cfg, runner: runner, analyzer: analyzer, log: log, now: time.Now}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	// Page count is advisory; pdftotext is the real arbiter of whether
	// the bytes are a workable PDF.
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		e.log.Warn().Err(err).Msg("pdf validation failed, continuing")
		pages = 0
	}

	tmpDir, err := os.MkdirTemp("", "ledger-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("PDFExtractor.Extract: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("PDFExtractor.Extract: write temp pdf: %w", err)
	}

	textResult, textErr := e.extractText(ctx, pdfPath)
	if textErr == nil && len(textResult.Records) >= minTextRecords {
		e.log.Debug().Int("pages", pages).Int("records", len(textResult.Records)).Msg("text layer sufficient")
		return textResult, nil
	}

	if e.analyzer == nil {
		if textErr != nil {
			return nil, textErr
		}
		textResult.Warnings = append(textResult.Warnings, "text layer thin and no vision analyzer configured")
		return textResult, nil
	}

	e.log.Info().Int("pages", pages).Msg("text layer thin, escalating to vision")
	visionResult, err := e.extractVision(ctx, tmpDir, pdfPath)
	if err != nil {
		// Vision failed outright; the thin text result is still better
		// than nothing.
		if textErr == nil {
			textResult.Warnings = append(textResult.Warnings, fmt.Sprintf("vision stage failed: %v", err))
			return textResult, nil
		}
		return nil, err
	}
	return visionResult, nil
}

func (e *PDFExtractor) extractText(ctx context.Context, pdfPath string) (*Result, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.PdftotextBin, "-layout", "-enc", "UTF-8", "-eol", "unix", pdfPath, "-")
	if err != nil {
		return nil, fmt.Errorf("PDFExtractor.extractText: pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	return &Result{
		Records: parsePDFText(string(out), e.now()),
		Source:  SourceText,
	}, nil
}

func (e *PDFExtractor) extractVision(ctx context.Context, tmpDir, pdfPath string) (*Result, error) {
	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := e.runner.Run(ctx, e.cfg.PdftoppmBin, "-r", strconv.Itoa(e.cfg.RasterDPI), "-png", pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("PDFExtractor.extractVision: pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	images, _ := filepath.Glob(prefix + "-*.png")
	// Length-first sort keeps page-10 after page-9.
	sort.Slice(images, func(i, j int) bool {
		if len(images[i]) != len(images[j]) {
			return len(images[i]) < len(images[j])
		}
		return images[i] < images[j]
	})
	if len(images) == 0 {
		return nil, fmt.Errorf("PDFExtractor.extractVision: pdftoppm produced no images")
	}

	result := &Result{Source: SourceVision}
	now := e.now()
	for page, img := range images {
		records, warnings, err := e.analyzePage(ctx, img, page+1, now)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("page %d: vision failed: %v", page+1, err))
			continue
		}
		result.Records = append(result.Records, records...)
		result.Warnings = append(result.Warnings, warnings...)
	}
	return result, nil
}

func (e *PDFExtractor) analyzePage(ctx context.Context, imgPath string, page int, now time.Time) ([]domain.Record, []string, error) {
	img, err := os.ReadFile(imgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read page image: %w", err)
	}

	pageCtx, cancel := context.WithTimeout(ctx, e.cfg.PageTimeout)
	defer cancel()

	response, err := e.analyzer.AnalyzeImage(pageCtx, img, vision.PagePrompt)
	if err != nil {
		return nil, nil, err
	}
	records, warnings := vision.ParseLines(response, page, now)
	return records, warnings, nil
}

var _ Extractor = (*PDFExtractor)(nil)
