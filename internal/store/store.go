package store

import (
	"context"
	"errors"
	"fmt"

	"memberhub/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("member not found")
	ErrExists    = errors.New("member already exists")
	ErrMissingID = errors.New("member id is empty")
)

// Store owns the local member collection. The webhook is the system of
// record; between syncs this cache is authoritative (last write wins).
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func preloaded(tx *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
	return tx.Preload("Phones", byID).Preload("Employment").Preload("Relationships", byID)
}

// List returns every member in collection order.
func (s *Store) List(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := preloaded(s.db.WithContext(ctx)).Order("position ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	for i := range members {
		members[i].Normalize()
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

func (s *Store) Get(ctx context.Context, id models.ID) (*models.Member, error) {
	var m models.Member
	err := preloaded(s.db.WithContext(ctx)).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", id, err)
	}
	m.Normalize()
	return &m, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Member{}).Count(&n).Error
	return n, err
}

// Add appends a member at the end of the collection.
func (s *Store) Add(ctx context.Context, m *models.Member) error {
	if m.ID == "" {
		return ErrMissingID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := exists(tx, m.ID)
		if err != nil {
			return err
		}
		if found {
			return ErrExists
		}

		var next int64
		if err := tx.Model(&models.Member{}).Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error; err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		m.Position = next
		resetChildren(m)

		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("create member %s: %w", m.ID, err)
		}
		return nil
	})
}

// Replace overwrites a member and its owned records, keeping its position.
func (s *Store) Replace(ctx context.Context, m *models.Member) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Member
		err := tx.Select("id", "position", "created_at").First(&existing, "id = ?", m.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load member %s: %w", m.ID, err)
		}

		if err := deleteMember(tx, m.ID); err != nil {
			return err
		}

		m.Position = existing.Position
		m.CreatedAt = existing.CreatedAt
		resetChildren(m)
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("replace member %s: %w", m.ID, err)
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, id models.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := exists(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		return deleteMember(tx, id)
	})
}

// ReplaceAll swaps the whole collection for the given members, in order.
// Duplicate ids keep their first occurrence.
func (s *Store) ReplaceAll(ctx context.Context, members []models.Member) error {
	unique := make([]models.Member, 0, len(members))
	seen := make(map[models.ID]bool, len(members))
	for _, m := range members {
		if m.ID == "" {
			return ErrMissingID
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		unique = append(unique, m)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.Phone{}, &models.Employment{}, &models.FamilyRelationship{}, &models.Member{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("clear collection: %w", err)
			}
		}
		if len(unique) == 0 {
			return nil
		}

		for i := range unique {
			unique[i].Position = int64(i)
			resetChildren(&unique[i])
		}
		if err := tx.CreateInBatches(&unique, 100).Error; err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		return nil
	})
}

func exists(tx *gorm.DB, id models.ID) (bool, error) {
	var n int64
	if err := tx.Model(&models.Member{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup member %s: %w", id, err)
	}
	return n > 0, nil
}

func deleteMember(tx *gorm.DB, id models.ID) error {
	for _, model := range []interface{}{&models.Phone{}, &models.Employment{}, &models.FamilyRelationship{}} {
		if err := tx.Where("member_id = ?", id).Delete(model).Error; err != nil {
			return fmt.Errorf("delete records of %s: %w", id, err)
		}
	}
	if err := tx.Where("id = ?", id).Delete(&models.Member{}).Error; err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	return nil
}

// resetChildren clears owned-record keys so they are inserted fresh.
func resetChildren(m *models.Member) {
	for i := range m.Phones {
		m.Phones[i].ID = 0
		m.Phones[i].MemberID = m.ID
	}
	if m.Employment != nil {
		m.Employment.ID = 0
		m.Employment.MemberID = m.ID
	}
	for i := range m.Relationships {
		m.Relationships[i].ID = 0
		m.Relationships[i].MemberID = m.ID
	}
}
