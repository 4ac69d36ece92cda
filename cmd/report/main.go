package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"memberhub/internal/analytics"
	"memberhub/internal/config"
	"memberhub/internal/database"
	"memberhub/internal/lib/logger"
	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/members"
	"memberhub/internal/models"
	"memberhub/internal/report"
	"memberhub/internal/store"
	"memberhub/internal/webhook"
)

// Writes the analytics report archive to disk.
func main() {
	out := flag.String("out", ".", "directory the archive is written to")
	charts := flag.String("charts", strings.Join(report.ChartNames(), ","), "comma-separated chart targets, empty for none")
	local := flag.Bool("local", false, "use the local cache instead of fetching detailed records")
	flag.Parse()

	cfg := config.LoadConfig()
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Error("failed to open database", sl.Err(err))
		os.Exit(1)
	}
	svc := members.NewService(webhook.NewClient(config.NewRuntime(cfg), cfg.WebhookTimeout), store.New(db),
		members.WithLogger(log),
		members.WithConcurrency(cfg.DetailConcurrency),
	)

	var list []models.Member
	if *local {
		list, err = svc.List(ctx, "")
	} else {
		var outcome members.Outcome
		list, outcome, err = svc.FetchAllDetailed(ctx)
		if outcome.Warning != "" {
			log.Warn(outcome.Warning)
		}
	}
	if err != nil {
		log.Error("failed to load members", sl.Err(err))
		os.Exit(1)
	}

	var names []string
	for _, name := range strings.Split(*charts, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	engine := analytics.New(log)
	archive, err := report.NewAssembler(engine, report.NewPNGRenderer(), log).
		Generate(ctx, list, report.Options{Charts: names})
	if err != nil {
		log.Error("failed to build report", sl.Err(err))
		os.Exit(1)
	}

	path := filepath.Join(*out, archive.Name)
	if err := os.WriteFile(path, archive.Data, 0o644); err != nil {
		log.Error("failed to write report", sl.Err(err))
		os.Exit(1)
	}
	log.Info("report written",
		slog.String("path", path),
		slog.Int("members", len(list)),
		slog.String("charts", strings.Join(archive.Charts, ",")),
	)
}
