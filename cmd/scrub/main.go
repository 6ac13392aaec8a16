// Command scrub de-identifies a clinical note from a file or stdin and
// prints the scrubbed text. With -audit, the full audit report is written
// as JSON to the given path. Multiple positional file arguments are scrubbed
// concurrently; each result lands next to its input as <file>.scrubbed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/phi-scrubber/internal/config"
	"github.com/wolfman30/phi-scrubber/internal/deid"
	"github.com/wolfman30/phi-scrubber/internal/recognizer"
	"github.com/wolfman30/phi-scrubber/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var (
		inPath    = flag.String("in", "", "input file (default: stdin)")
		auditPath = flag.String("audit", "", "write audit report JSON to this path")
		docType   = flag.String("type", "operative_note", "document type recorded in the audit")
		specialty = flag.String("specialty", "interventional_pulmonology", "specialty recorded in the audit")
		useStub   = flag.Bool("stub", false, "skip the statistical recognizer (pattern detectors only)")
	)
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).Component("scrub-cli")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var detector deid.Detector
	if *useStub {
		detector = recognizer.StubDetector{}
		logger.Warn("statistical recognizer disabled, running pattern detectors only")
	} else {
		det, err := recognizer.NewFromEnv(ctx, cfg.AWSRegion, cfg.AWSEndpointOverride)
		if err != nil {
			logger.Error("recognizer unavailable; re-run with -stub for degraded operation", "error", err)
			os.Exit(1)
		}
		detector = det
	}

	scrubber := deid.NewScrubber(detector, deid.Options{
		ScoreThresholds:               cfg.ScoreThresholds(),
		RelativeDatetimePhrases:       cfg.RelativeDatetimePhrases,
		EnableDriverLicenseRecognizer: cfg.EnableDriverLicenseRecognizer,
		Logger:                        logger,
	})

	meta := deid.DocumentMeta{DocumentType: *docType, Specialty: *specialty}

	if paths := flag.Args(); len(paths) > 0 {
		if err := scrubFiles(ctx, scrubber, paths, meta, cfg.BundleWorkers, logger); err != nil {
			logger.Error("bundle scrub failed", "error", err)
			os.Exit(1)
		}
		return
	}

	text, err := readInput(*inPath)
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	result, audit, err := scrubber.ScrubWithAudit(ctx, text, meta)
	if err != nil {
		logger.Error("scrub failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(result.ScrubbedText)
	if len(result.ScrubbedText) > 0 && result.ScrubbedText[len(result.ScrubbedText)-1] != '\n' {
		fmt.Println()
	}

	if *auditPath != "" {
		data, err := audit.JSON()
		if err != nil {
			logger.Error("failed to encode audit report", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*auditPath, data, 0o600); err != nil {
			logger.Error("failed to write audit report", "error", err)
			os.Exit(1)
		}
		logger.Info("audit report written",
			"path", *auditPath,
			"run_id", audit.RunID,
			"entities", len(result.Entities),
			"removed", len(audit.RemovedDetections),
		)
	}
}

// scrubFiles runs the given files through the pipeline as one concurrent
// bundle. Each output is written next to its input as <path>.scrubbed with
// the audit report at <path>.audit.json.
func scrubFiles(ctx context.Context, s *deid.Scrubber, paths []string, meta deid.DocumentMeta, workers int, logger *logging.Logger) error {
	docs := make([]deid.Document, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		docs[i] = deid.Document{ID: p, Text: string(data), Meta: meta}
	}

	results, err := deid.ScrubBundle(ctx, s, docs, workers)
	if err != nil {
		return err
	}

	for _, r := range results {
		if err := os.WriteFile(r.ID+".scrubbed", []byte(r.Result.ScrubbedText), 0o600); err != nil {
			return fmt.Errorf("write %s.scrubbed: %w", r.ID, err)
		}
		data, err := r.Audit.JSON()
		if err != nil {
			return fmt.Errorf("encode audit for %s: %w", r.ID, err)
		}
		if err := os.WriteFile(r.ID+".audit.json", data, 0o600); err != nil {
			return fmt.Errorf("write %s.audit.json: %w", r.ID, err)
		}
		logger.Info("document scrubbed",
			"path", r.ID,
			"run_id", r.Audit.RunID,
			"entities", len(r.Result.Entities),
		)
	}
	return nil
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
