package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memberhub/internal/analytics"
	"memberhub/internal/api"
	"memberhub/internal/config"
	"memberhub/internal/database"
	"memberhub/internal/importer"
	"memberhub/internal/lib/logger"
	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/mapper"
	"memberhub/internal/members"
	"memberhub/internal/report"
	"memberhub/internal/store"
	"memberhub/internal/webhook"
	"memberhub/internal/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.Env)
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Error("failed to open database", sl.Err(err))
		os.Exit(1)
	}

	runtime := config.NewRuntime(cfg)
	if runtime.WebhookURL() == "" {
		log.Warn("N8N_WEBHOOK_URL is not set, member changes will only be stored locally")
	}
	client := webhook.NewClient(runtime, cfg.WebhookTimeout)
	hub := ws.NewHub(log)

	svc := members.NewService(client, store.New(db),
		members.WithNotifier(hub),
		members.WithLogger(log),
		members.WithConcurrency(cfg.DetailConcurrency),
	)
	engine := analytics.New(log)

	router := api.NewRouter(api.Deps{
		Members:     svc,
		Engine:      engine,
		Assembler:   report.NewAssembler(engine, report.NewPNGRenderer(), log),
		Importer:    importer.New(svc, mapper.New(), hub, log),
		Fetcher:     importer.NewFetcher(cfg.WebhookTimeout),
		Runtime:     runtime,
		Client:      client,
		Hub:         hub,
		ImportBatch: cfg.ImportBatch,
		Log:         log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if list, outcome, err := svc.Refresh(ctx); err != nil {
		log.Error("initial member load failed", sl.Err(err))
	} else {
		log.Info("members loaded", slog.Int("count", len(list)), slog.String("path", string(outcome.Path)))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}
