package main

import (
	"log/slog"
	"os"

	"memberhub/internal/config"
	"memberhub/internal/database"
	"memberhub/internal/lib/logger"
	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Copies the SQLite member cache at DB_PATH into the PostgreSQL database
// described by the DB_* settings. Run cmd/sync_sequences afterwards.
func main() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.Env)

	sqliteDB, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Error("failed to connect to SQLite", sl.Err(err))
		os.Exit(1)
	}
	log.Info("connected to SQLite", slog.String("path", cfg.DBPath))

	pgCfg := *cfg
	pgCfg.DBDriver = "postgres"
	pgDB, err := database.Open(&pgCfg, log)
	if err != nil {
		log.Error("failed to connect to PostgreSQL", sl.Err(err))
		os.Exit(1)
	}

	log.Info("starting data migration")

	migrateTable := func(table string, rows interface{}) bool {
		if err := sqliteDB.Table(table).Find(rows).Error; err != nil {
			log.Error("read failed", slog.String("table", table), sl.Err(err))
			return false
		}
		err := pgDB.Transaction(func(tx *gorm.DB) error {
			return tx.Table(table).CreateInBatches(rows, 200).Error
		})
		if err != nil {
			log.Error("write failed", slog.String("table", table), sl.Err(err))
			return false
		}
		log.Info("table migrated", slog.String("table", table))
		return true
	}

	// Members first; the child tables reference them.
	var list []models.Member
	if !migrateTable("members", &list) {
		os.Exit(1)
	}

	var phones []models.Phone
	migrateTable("member_phones", &phones)

	var employment []models.Employment
	migrateTable("member_employment", &employment)

	var relationships []models.FamilyRelationship
	migrateTable("member_relationships", &relationships)

	var logs []models.SyncLog
	migrateTable("sync_logs", &logs)

	log.Info("migration completed")
}
