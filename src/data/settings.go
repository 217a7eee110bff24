package data

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Setting is a key/value row of the settings table.
type Setting struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:64;uniqueIndex;not null"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null;default:1"`
}

// SettingsStore caches the active rows of the settings table.
type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: map[string]string{}}
}

// Load replaces the cache with the active settings in db.
func (s *SettingsStore) Load(ctx context.Context, db *gorm.DB) error {
	var rows []Setting
	if err := db.WithContext(ctx).Where("active = ?", 1).Find(&rows).Error; err != nil {
		return fmt.Errorf("data: load settings: %w", err)
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Name] = row.Value
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Get returns the cached value for name, or "".
func (s *SettingsStore) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name]
}
