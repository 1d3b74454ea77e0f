package database

import (
	"sync"

	"github.com/greenpoints/gp-ui/database/model"

	"gorm.io/gorm"
)

// KV is the chokepoint every snapshot mutation goes through. Keeping it an
// interface lets tests inject MemoryKV and leaves room to add locking or
// versioning later without touching callers.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key string, value string) error
	Delete(key string) error
}

// GormKV stores values in the kv_entries table.
type GormKV struct {
	db *gorm.DB
}

func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

func (s *GormKV) Get(key string) (string, bool, error) {
	entry := &model.KVEntry{}
	err := s.db.Model(model.KVEntry{}).
		Where("key = ?", key).
		First(entry).
		Error
	if IsNotFound(err) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *GormKV) Set(key string, value string) error {
	entry := &model.KVEntry{}
	err := s.db.Model(model.KVEntry{}).
		Where("key = ?", key).
		First(entry).
		Error
	if IsNotFound(err) {
		entry = &model.KVEntry{Key: key, Value: value}
		return s.db.Create(entry).Error
	} else if err != nil {
		return err
	}
	entry.Value = value
	return s.db.Save(entry).Error
}

func (s *GormKV) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&model.KVEntry{}).Error
}

// MemoryKV is the in-memory implementation used by tests.
type MemoryKV struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string]string)}
}

func (s *MemoryKV) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryKV) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemoryKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
