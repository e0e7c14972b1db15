package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-board/internal/model"
)

// SQLStorage keeps slots in the storage_items table.
type SQLStorage struct {
	db *gorm.DB
}

func NewSQLStorage(db *gorm.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item model.StorageItem
	err := s.db.WithContext(ctx).Where("slot_key = ?", key).First(&item).Error
	switch {
	case err == nil:
		return item.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
}

func (s *SQLStorage) SetItem(ctx context.Context, key, value string) error {
	item := model.StorageItem{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}

func (s *SQLStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&model.StorageItem{}).
		Where("substr(slot_key, 1, ?) = ?", len(prefix), prefix).
		Order("slot_key ASC").
		Pluck("slot_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}
