package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

type dbRecorder struct {
	db *gorm.DB
}

// NewRecorder returns a Recorder and Reader backed by the audit_logs table.
func NewRecorder(db *gorm.DB) *dbRecorder {
	return &dbRecorder{db: db}
}

func (r *dbRecorder) Record(ctx context.Context, entry Entry) error {
	row := Log{
		UserID:     entry.UserID,
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID,
		Outcome:    entry.Outcome,
	}
	if row.Outcome == "" {
		row.Outcome = OutcomeSuccess
	}
	if len(entry.Details) > 0 {
		details, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		row.Details = details
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *dbRecorder) RecentForUser(ctx context.Context, userID string, limit int) ([]Log, error) {
	var logs []Log
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	return logs, nil
}

// MemoryRecorder keeps entries in order of arrival. Used by tests in place of
// the database-backed recorder.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Outcome == "" {
		entry.Outcome = OutcomeSuccess
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryRecorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Actions returns the recorded action names in arrival order.
func (r *MemoryRecorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	actions := make([]string, len(r.entries))
	for i, e := range r.entries {
		actions[i] = e.Action
	}
	return actions
}
