package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"memberhub/internal/config"
	"memberhub/internal/database"
	"memberhub/internal/importer"
	"memberhub/internal/lib/logger"
	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/mapper"
	"memberhub/internal/members"
	"memberhub/internal/store"
	"memberhub/internal/webhook"
)

// Imports a CSV/XLSX file or a published spreadsheet URL into the member
// collection, the same way the import page does.
func main() {
	file := flag.String("file", "", "path to a .csv or .xlsx file")
	url := flag.String("url", "", "CSV/XLSX URL or Google Sheets link")
	batch := flag.Bool("batch", false, "send all rows in one BULK_CREATE_MEMBERS call")
	dryRun := flag.Bool("dry-run", false, "only validate the rows")
	flag.Parse()

	if (*file == "") == (*url == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -url is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rows, err := readRows(ctx, cfg, *file, *url)
	if err != nil {
		log.Error("failed to read import source", sl.Err(err))
		os.Exit(1)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Error("failed to open database", sl.Err(err))
		os.Exit(1)
	}
	svc := members.NewService(webhook.NewClient(config.NewRuntime(cfg), cfg.WebhookTimeout), store.New(db),
		members.WithLogger(log))
	im := importer.New(svc, mapper.New(), progressLogger{log}, log)

	if *dryRun {
		printJSON(im.Validate(rows))
		return
	}

	report, err := im.Run(ctx, rows, *batch)
	if report != nil {
		printJSON(report)
	}
	if err != nil {
		if !errors.Is(err, importer.ErrInvalidRows) {
			log.Error("import failed", sl.Err(err))
		}
		os.Exit(1)
	}
}

func readRows(ctx context.Context, cfg *config.Config, file, url string) ([]mapper.Row, error) {
	if url != "" {
		return importer.NewFetcher(cfg.WebhookTimeout).Fetch(ctx, url)
	}

	format, err := importer.DetectFormat(filepath.Base(file), "")
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return importer.Decode(f, format)
}

type progressLogger struct {
	log *slog.Logger
}

func (p progressLogger) Progress(done, total int) {
	p.log.Info("import progress", slog.Int("done", done), slog.Int("total", total))
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
