package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/tabulate"
	"github.com/poiesic/tabulate/config"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/export"
	"github.com/poiesic/tabulate/pipeline"
	"github.com/poiesic/tabulate/storage"
	"github.com/poiesic/tabulate/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(c.String("request"))
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	req, err := core.ParseBatchRequest(data)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	if dir := c.String("source-dir"); dir != "" {
		cfg.Source.Kind = config.SourceDir
		cfg.Source.Dir = dir
	}
	metricsAddr := cfg.Metrics.Addr
	if c.IsSet("metrics-addr") {
		metricsAddr = c.String("metrics-addr")
	}

	proc, err := tabulate.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer proc.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts := []pipeline.Option{pipeline.WithMetrics(pipeline.NewMetrics(reg))}
	if c.Bool("progress") {
		opts = append(opts, pipeline.WithProgress(c.App.ErrWriter))
	}
	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg)
		defer shutdown(srv)
	}

	orchestrator, err := proc.NewOrchestrator(opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Documents: %d\n", len(req.Documents))
	fmt.Fprintf(c.App.ErrWriter, "Attributes: %d\n", len(req.Attributes))
	fmt.Fprintf(c.App.ErrWriter, "Backend: %s\n", cfg.Extraction.Backend)
	fmt.Fprintln(c.App.ErrWriter)

	result, err := orchestrator.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}
	if err := writeJSON(c.App.Writer, c.String("output"), result); err != nil {
		return err
	}
	if !result.Succeeded() {
		return cli.Exit(fmt.Sprintf("%s: %s", result.Failure.Error, result.Failure.Cause), 2)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("metrics server shutdown", "err", err)
	}
}

func classifyCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file name is required")
	}
	for _, name := range c.Args().Slice() {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", name, core.Classify(name))
	}
	return nil
}

// openBatches opens the batch repository of an existing database.
func openBatches(c *cli.Context) (storage.BatchRepository, func(), error) {
	dbPath := c.String("db")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	repo := badger.NewBatchRepository(backend)
	return repo, func() {
		repo.Close()
		backend.Close()
	}, nil
}

func listBatchesCommand(c *cli.Context) error {
	repo, closeDB, err := openBatches(c)
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := repo.ListBatches(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tDOCUMENTS\tFAILED")
	for _, r := range records {
		status, docs, failed := "-", 0, 0
		if r.Result != nil {
			status = string(r.Result.Status)
			docs = len(r.Result.Documents)
			failed = len(r.Result.Failures)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.StartedAt.Format(time.RFC3339), status, docs, failed)
	}
	return w.Flush()
}

func batchID(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("exactly one batch ID is required")
	}
	return c.Args().First(), nil
}

func showBatchCommand(c *cli.Context) error {
	id, err := batchID(c)
	if err != nil {
		return err
	}
	repo, closeDB, err := openBatches(c)
	if err != nil {
		return err
	}
	defer closeDB()

	record, err := repo.GetBatch(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to load batch %s: %w", id, err)
	}
	return writeJSON(c.App.Writer, "", record)
}

func exportCommand(c *cli.Context) error {
	id, err := batchID(c)
	if err != nil {
		return err
	}
	repo, closeDB, err := openBatches(c)
	if err != nil {
		return err
	}
	defer closeDB()

	record, err := repo.GetBatch(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to load batch %s: %w", id, err)
	}
	data, err := export.BatchXLSX(record)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := os.WriteFile(c.String("out"), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.String("out"), err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Exported %s to %s\n", id, c.String("out"))
	return nil
}

// writeJSON writes v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
