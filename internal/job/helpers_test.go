package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kazz187/jobflow/internal/eventbus"
	"github.com/kazz187/jobflow/internal/person"
	"github.com/kazz187/jobflow/pkg/cerr"
)

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// seqIDs returns an IDFunc producing prefix-1, prefix-2, ...
func seqIDs(prefix string) IDFunc {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func testRoster() *person.Roster {
	return person.DemoRoster()
}

func ptr[T any](v T) *T { return &v }

// memRepo keeps deep copies of what it is given, like a real backend would.
type memRepo struct {
	mu       sync.Mutex
	snapshot *Snapshot
	loadErr  error
	saveErr  error
	saves    int
}

func (r *memRepo) Load(context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.snapshot == nil {
		return nil, cerr.NewError(cerr.NotFound, "snapshot not found", nil)
	}
	if r.snapshot.Jobs == nil {
		return &Snapshot{}, nil
	}
	return &Snapshot{Jobs: CloneAll(r.snapshot.Jobs)}, nil
}

func (r *memRepo) Save(_ context.Context, s *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.snapshot = &Snapshot{Jobs: CloneAll(s.Jobs)}
	return nil
}

func (r *memRepo) saved() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		return nil
	}
	return CloneAll(r.snapshot.Jobs)
}

func (r *memRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

type recordedEvent struct {
	Type       string
	ResourceID string
	Metadata   map[string]string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishNew(eventType eventbus.EventType, resourceID string, metadata map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: string(eventType), ResourceID: resourceID, Metadata: metadata})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// newSeededStore starts from an empty repository, so the store loads and saves the
// seed collection: ids seed-1 (Indomie) with tasks seed-2..4, and seed-5
// (Fakieh) with tasks seed-6..7.
func newSeededStore() (*Store, *memRepo, *recordingPublisher) {
	repo := &memRepo{}
	pub := &recordingPublisher{}
	s := NewStore(context.Background(), repo, testRoster(),
		WithClock(fixedClock),
		WithIDFunc(seqIDs("seed")),
		WithPublisher(pub),
	)
	return s, repo, pub
}
