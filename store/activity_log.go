package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// RecordActivity appends an admin activity entry.
func (s *GormStore) RecordActivity(ctx context.Context, entry *models.ActivityLog) error {
	return translate("record activity", s.db.WithContext(ctx).Create(entry).Error)
}

// ListActivity returns the newest entries first, at most limit of them.
func (s *GormStore) ListActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, translate("list activity", err)
}

func (m *MemoryStore) RecordActivity(ctx context.Context, entry *models.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.Must(uuid.NewV7())
	}
	if entry.Status == "" {
		entry.Status = models.StatusSuccess
	}
	entry.CreatedAt = m.now()
	m.activity = append(m.activity, *entry)
	return nil
}

// Activity returns a copy of the recorded entries in insertion order.
func (m *MemoryStore) Activity() []models.ActivityLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ActivityLog(nil), m.activity...)
}
