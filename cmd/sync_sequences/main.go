package main

import (
	"log/slog"
	"os"

	"memberhub/internal/config"
	"memberhub/internal/database"
	"memberhub/internal/lib/logger"
	"memberhub/internal/lib/logger/sl"
)

// Moves the PostgreSQL serial sequences past the ids copied in by
// cmd/migrate_data. Member ids are strings and have no sequence.
func main() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.Env)

	cfg.DBDriver = "postgres"
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Error("failed to connect to PostgreSQL", sl.Err(err))
		os.Exit(1)
	}

	tables := []string{
		"member_phones",
		"member_employment",
		"member_relationships",
		"sync_logs",
	}

	log.Info("syncing PostgreSQL sequences")

	failed := false
	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			log.Error("sequence sync failed", slog.String("table", table), sl.Err(err))
			failed = true
			continue
		}
		log.Info("sequence synced", slog.String("table", table))
	}

	if failed {
		os.Exit(1)
	}
	log.Info("done")
}
