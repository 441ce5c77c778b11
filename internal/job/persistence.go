package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kazz187/jobflow/pkg/cerr"
)

// errIncompatible marks a snapshot that decoded but cannot be used.
var errIncompatible = errors.New("incompatible snapshot")

// Persistence wraps a Repository with cache semantics: loading never fails
// (it falls back to the seed collection) and saving never fails (errors are
// logged and dropped). The in-memory collection stays authoritative.
type Persistence struct {
	repo  Repository
	now   func() time.Time
	newID IDFunc
}

func NewPersistence(repo Repository, now func() time.Time, newID IDFunc) *Persistence {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = NewULID
	}
	return &Persistence{repo: repo, now: now, newID: newID}
}

// Load returns the stored collection, or the seed collection when the
// snapshot is absent, unreadable, or incompatible. An absent or incompatible
// snapshot is replaced by the seed right away, so ids stay stable across
// processes. A read failure leaves the slot untouched.
func (p *Persistence) Load(ctx context.Context) []*Job {
	snapshot, err := p.repo.Load(ctx)
	if err == nil {
		err = checkSnapshot(snapshot)
	}
	if err != nil {
		jobs := Seed(p.now(), p.newID)
		switch {
		case cerr.IsCode(err, cerr.NotFound):
			slog.InfoContext(ctx, "no snapshot found, starting from seed data")
		case cerr.IsCode(err, cerr.DataLoss), errors.Is(err, errIncompatible):
			slog.WarnContext(ctx, "snapshot is incompatible, replacing it with seed data", "error", err)
		default:
			slog.WarnContext(ctx, "failed to load snapshot, starting from seed data", "error", err)
			return jobs
		}
		p.Save(ctx, jobs)
		return jobs
	}
	slog.DebugContext(ctx, "snapshot loaded", "jobs", len(snapshot.Jobs))
	return snapshot.Jobs
}

// Save writes the full collection. Failures are logged, never returned.
func (p *Persistence) Save(ctx context.Context, jobs []*Job) {
	if jobs == nil {
		jobs = []*Job{}
	}
	if err := p.repo.Save(ctx, &Snapshot{Jobs: jobs}); err != nil {
		slog.WarnContext(ctx, "failed to save snapshot", "error", err, "jobs", len(jobs))
	}
}

func checkSnapshot(s *Snapshot) error {
	if s == nil || s.Jobs == nil {
		return fmt.Errorf("%w: missing jobs", errIncompatible)
	}
	seen := make(map[string]bool, len(s.Jobs))
	for i, j := range s.Jobs {
		if j == nil {
			return fmt.Errorf("%w: job %d is empty", errIncompatible, i)
		}
		if j.ID == "" {
			return fmt.Errorf("%w: job %d has no id", errIncompatible, i)
		}
		if seen[j.ID] {
			return fmt.Errorf("%w: duplicate job id %q", errIncompatible, j.ID)
		}
		seen[j.ID] = true
		if !j.Status.Valid() {
			return fmt.Errorf("%w: job %q has no status", errIncompatible, j.ID)
		}
		if j.AssigneeIDs == nil {
			j.AssigneeIDs = []string{}
		}
		if j.Tasks == nil {
			j.Tasks = []*Task{}
		}
		for k, t := range j.Tasks {
			if t == nil {
				return fmt.Errorf("%w: job %q task %d is empty", errIncompatible, j.ID, k)
			}
		}
	}
	return nil
}
