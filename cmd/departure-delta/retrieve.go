package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/theoremus-urban-solutions/departure-delta/config"
	"github.com/theoremus-urban-solutions/departure-delta/internal"
	"github.com/theoremus-urban-solutions/departure-delta/retriever"
)

// dateList collects repeated -date flags.
type dateList []string

func (d *dateList) String() string { return strings.Join(*d, ",") }

func (d *dateList) Set(v string) error {
	*d = append(*d, v)
	return nil
}

func runRetrieve(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("departure-delta retrieve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default: ./config.yml if present)")
	var dates dateList
	fs.Var(&dates, "date", "service date YYYY-MM-DD (repeatable)")
	stopID := fs.String("stop", "", "stop id (overrides config)")
	outDir := fs.String("out", ".", "directory for the merged CSV")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *stopID != "" {
		cfg.Retriever.StopID = *stopID
	}
	if len(dates) == 0 || cfg.Retriever.StopID == "" || cfg.Retriever.BaseURL == "" {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
		return 1
	}

	logger := internal.InitLogging(cfg.LogLevel, stderr)
	client := retriever.NewClient(cfg.Retriever.MaxRetries, cfg.Retriever.RetryDelay,
		retriever.WithHTTPClient(&http.Client{Timeout: cfg.Retriever.Timeout}),
		retriever.WithLogger(logger))
	r := retriever.New(cfg.Retriever.BaseURL, client, logger)

	data, err := r.Retrieve(ctx, dates, cfg.Retriever.StopID)
	if err != nil {
		logger.Error("retrieve failed", "err", err)
		return 1
	}
	path := filepath.Join(*outDir, retriever.FileName(cfg.Retriever.StopID, dates))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("write merged file", "err", err)
		return 1
	}
	logger.Info("saved merged file", "path", path)
	fmt.Fprintln(stdout, path)
	return 0
}
