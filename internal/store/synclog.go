package store

import (
	"context"
	"fmt"

	"memberhub/internal/models"
)

func (s *Store) LogSync(ctx context.Context, entry *models.SyncLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("write sync log: %w", err)
	}
	return nil
}

// SyncLogs returns the most recent entries first.
func (s *Store) SyncLogs(ctx context.Context, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 100
	}
	logs := []models.SyncLog{}
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("read sync logs: %w", err)
	}
	return logs, nil
}
