// Command departure-delta reconciles a prediction departure feed against a
// reference departure feed and writes match tables to an output directory.
//
// Usage:
//
//	departure-delta [flags] <prediction-file> <reference-file> [tolerance]
//	departure-delta retrieve [-config FILE] [-date YYYY-MM-DD]... [-stop ID] [-out DIR]
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/departure-delta/config"
	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/internal"
	"github.com/theoremus-urban-solutions/departure-delta/normalize"
	"github.com/theoremus-urban-solutions/departure-delta/pipeline"
	"github.com/theoremus-urban-solutions/departure-delta/record"
	"github.com/theoremus-urban-solutions/departure-delta/report"
)

const usage = "Usage: departure-delta [flags] <prediction-file> <reference-file> [tolerance]\n" +
	"       departure-delta retrieve [-config FILE] [-date YYYY-MM-DD]... [-stop ID] [-out DIR]\n"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "retrieve" {
		return runRetrieve(ctx, args[1:], stdout, stderr)
	}
	return runReconcile(ctx, args, stdout, stderr)
}

func runReconcile(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("departure-delta", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "config file (default: ./config.yml if present)")
	mode := fs.String("mode", "", "delta|gap|presence (overrides config)")
	outDir := fs.String("out", "", "output directory (overrides config)")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall deadline for the run")
	workers := fs.Int("workers", -1, "matcher goroutines (overrides config)")
	logLevel := fs.String("log-level", "", "debug|info|warn|error (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	pos := fs.Args()
	if len(pos) != 2 && len(pos) != 3 {
		fs.Usage()
		return 1
	}
	var tolerance int64 = -1
	if len(pos) == 3 {
		n, err := strconv.ParseInt(pos[2], 10, 64)
		if err != nil || n < 0 {
			fmt.Fprintf(stderr, "invalid tolerance %q\n", pos[2])
			fs.Usage()
			return 1
		}
		tolerance = n
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if tolerance >= 0 {
		cfg.Tolerance.Primary = tolerance
		if cfg.Tolerance.Wide < tolerance {
			cfg.Tolerance.Wide = tolerance
		}
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logger := internal.InitLogging(cfg.LogLevel, stderr)
	if err := reconcile(ctx, cfg, pos[0], pos[1], *timeout, stdout, logger); err != nil {
		var iv *record.InvariantViolation
		if errors.As(err, &iv) {
			logger.Error("invariant violation", "feed", iv.Feed, "position", iv.Position)
		}
		logger.Error("run failed", "err", err)
		return 1
	}
	return 0
}

func reconcile(ctx context.Context, cfg *config.AppConfig, predictionPath, referencePath string, timeout time.Duration, stdout io.Writer, logger *slog.Logger) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pcfg, err := pipeline.FromAppConfig(*cfg)
	if err != nil {
		return err
	}
	pcfg.Logger = logger

	f := newFetcher()
	prediction, err := load(ctx, f, predictionPath, cfg.Input.PredictionFormat, normalize.Options{
		Source:   record.Prediction,
		Location: pcfg.Location,
		Layouts:  cfg.Input.Layouts,
		StopID:   cfg.Input.StopID,
		Dedup:    cfg.Input.Dedup,
		UTF8:     cfg.Input.UTF8,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("prediction feed: %w", err)
	}
	// Presence mode reads fall-back wall clocks as standard time instead of
	// dropping them.
	overlap := instant.RejectOverlap
	if pcfg.Mode == pipeline.ModePresence {
		overlap = instant.StandardOnOverlap
	}
	reference, err := load(ctx, f, referencePath, cfg.Input.ReferenceFormat, normalize.Options{
		Source:           record.Reference,
		Location:         pcfg.Location,
		Layouts:          cfg.Input.Layouts,
		Overlap:          overlap,
		StopID:           cfg.Input.StopID,
		RequireAuxiliary: cfg.Input.RequireAuxiliary && pcfg.Mode != pipeline.ModePresence,
		UTF8:             cfg.Input.UTF8,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("reference feed: %w", err)
	}

	res, err := pipeline.Run(ctx, pcfg, prediction, reference)
	if err != nil {
		return err
	}

	files := report.Files(res, report.Options{
		Manifest: cfg.Output.Manifest,
		Metrics:  cfg.Output.Metrics,
		Inputs:   map[string]string{"prediction": predictionPath, "reference": referencePath},
	})
	if err := report.NewWriter(cfg.Output.Dir, logger).Commit(ctx, files); err != nil {
		return err
	}
	return report.Summary(stdout, res)
}

func load(ctx context.Context, f *fetcher, path, format string, opts normalize.Options) ([]record.Record, error) {
	fmtName, err := normalize.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if fmtName == "" {
		fmtName = normalize.Detect(path)
	}
	data, err := f.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	recs, st, err := normalize.Read(bytes.NewReader(data), fmtName, opts)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("loaded feed", "path", path, "format", string(fmtName),
		"read", st.Read, "kept", st.Kept, "dropped", st.Dropped, "duplicates", st.Duplicates)
	return recs, nil
}
