package job

import "context"

// Snapshot is the persisted shape: the whole collection under one key.
type Snapshot struct {
	Jobs []*Job `json:"jobs" yaml:"jobs"`
}

// Repository reads and writes the snapshot slot. Implementations report
// every failure; the best-effort policy lives in Persistence.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}
