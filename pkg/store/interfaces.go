package store

import (
	"context"
	"time"
)

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
	ListState(ctx context.Context, prefix string) (map[string]string, error)
}

// RebuildRecord is one registry rebuild attempt.
type RebuildRecord struct {
	ID         string        `json:"id"`
	Generation uint64        `json:"generation"`
	Entries    int           `json:"entries"`
	Reason     string        `json:"reason,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// RebuildLogStore records registry rebuild attempts.
type RebuildLogStore interface {
	SaveRebuild(ctx context.Context, rec *RebuildRecord) error
	RecentRebuilds(ctx context.Context, limit int) ([]RebuildRecord, error)
}
