// Command loadcsv bulk-ingests a directory of stats files and prints a
// summary of what each partition now holds. It is useful for checking a
// data drop before serving it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"prepstats/internal/config"
	"prepstats/internal/exporter"
	"prepstats/internal/files"
	"prepstats/internal/infrastructure"
	"prepstats/internal/selection"
	"prepstats/internal/services"
	"prepstats/internal/store"
	"prepstats/internal/validation"
	"prepstats/pkg/contracts/domain"
)

func main() {
	dir := flag.String("dir", "", "directory containing stats files (defaults to the configured data dir)")
	pattern := flag.String("pattern", "", "glob pattern to restrict which files are loaded, e.g. CA_*.csv")
	exportKey := flag.String("export-key", "", "partition key to export after loading")
	exportCategory := flag.String("export-category", "batting", "category to export")
	out := flag.String("out", "view.csv", "output csv path for -export-key")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:  "info",
				Format: "text",
				Output: "console",
			},
			Paths: config.PathsConfig{DataDir: "data"},
		}
	}

	if _, err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
	}

	// Every run gets its own trace ID so log lines from concurrent loads
	// can be told apart.
	ctx := infrastructure.WithTraceID(context.Background(), infrastructure.GenerateTraceID())
	logger := infrastructure.LoggerWithContext(ctx)

	if *dir == "" {
		*dir = cfg.Paths.DataDir
	}

	logger.Info("starting bulk load", slog.String("dir", *dir))

	st := store.New()
	sel := selection.New()
	st.Subscribe(sel.ObserveStore)
	svc := services.NewStatsService(st, sel, logger)

	if err := validation.NewFileValidator(logger).ValidateInputDirectory(*dir); err != nil {
		logger.Error("invalid input directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	discovery := files.NewDiscovery(*dir)
	var found []files.FileInfo
	if *pattern != "" {
		found, err = discovery.FindFilesByPattern(".", *pattern)
	} else {
		found, err = discovery.FindStatFiles(".")
	}
	if err != nil {
		logger.Error("discovery failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(found) == 0 {
		logger.Warn("no stats files found", slog.String("dir", *dir))
		return
	}

	if latest, ok := files.GetLatestFile(found); ok {
		logger.Info("newest input file",
			slog.String("file", latest.Name),
			slog.Time("mod_time", latest.ModTime))
	}

	accepted, skipped := 0, 0
	for _, f := range found {
		if err := ingestFile(ctx, svc, f.Path, f.Name); err != nil {
			skipped++
			logger.Warn("file skipped",
				slog.String("file", f.Name),
				slog.String("error", err.Error()))
			continue
		}
		accepted++
	}

	logger.Info("bulk load complete",
		slog.Int("accepted", accepted),
		slog.Int("skipped", skipped))

	printSummary(st)

	if *exportKey != "" {
		result, err := svc.View(ctx, *exportKey, *exportCategory, "", domain.SortDirective{})
		if err != nil {
			logger.Error("export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := exporter.WriteViewFile(*out, result.Columns, result.Rows, exporter.WriteOptions{BOMPrefix: true}); err != nil {
			logger.Error("export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("view exported",
			slog.String("path", *out),
			slog.Int("rows", len(result.Rows)))
	}
}

func ingestFile(ctx context.Context, svc *services.StatsService, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = svc.Ingest(ctx, name, file)
	return err
}

func printSummary(st *store.Store) {
	for _, key := range st.Keys() {
		counts := st.Counts(key)
		fmt.Printf("%s:", key)
		for _, cat := range domain.Categories() {
			if n, ok := counts[cat]; ok {
				fmt.Printf(" %s=%d", cat, n)
			}
		}
		fmt.Println()
	}
}
