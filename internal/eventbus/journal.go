package eventbus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kazz187/jobflow/pkg/storage"
)

const (
	journalDayFormat = "2006-01-02"
	journalExt       = ".ndjson"
)

// Journal keeps an append-only activity log of events, one NDJSON object per
// line, in one storage object per UTC day.
type Journal struct {
	storage storage.Storage
	prefix  string
	mu      sync.Mutex
}

func NewJournal(s storage.Storage, prefix string) *Journal {
	return &Journal{storage: s, prefix: prefix}
}

func (j *Journal) path(day time.Time) string {
	return fmt.Sprintf("%s/%s%s", j.prefix, day.UTC().Format(journalDayFormat), journalExt)
}

// Record appends ev to the log of the day it was created.
func (j *Journal) Record(ctx context.Context, ev *Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	key := j.path(ev.CreatedAt)
	data, err := j.storage.Read(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to read journal %s: %w", key, err)
	}
	data = append(data, line...)
	data = append(data, '\n')
	if err := j.storage.Write(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write journal %s: %w", key, err)
	}
	return nil
}

// Day returns the events recorded on day, oldest first. Lines that do not
// decode are skipped.
func (j *Journal) Day(ctx context.Context, day time.Time) ([]*Event, error) {
	data, err := j.storage.Read(ctx, j.path(day))
	if errors.Is(err, storage.ErrNotFound) {
		return []*Event{}, nil
	}
	if err != nil {
		return nil, err
	}
	events := []*Event{}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			slog.WarnContext(ctx, "skipping malformed journal line", "error", err)
			continue
		}
		events = append(events, &ev)
	}
	return events, nil
}

// Days returns the UTC days that have a log, oldest first. Keys under the
// prefix that are not day logs are ignored.
func (j *Journal) Days(ctx context.Context) ([]time.Time, error) {
	keys, err := j.storage.List(ctx, j.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal days: %w", err)
	}
	days := []time.Time{}
	for _, key := range keys {
		name, ok := strings.CutSuffix(path.Base(key), journalExt)
		if !ok {
			continue
		}
		day, err := time.Parse(journalDayFormat, name)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	return days, nil
}

// Consume records events from ch until it is closed. Events already buffered
// when ch closes are still recorded.
func (j *Journal) Consume(ctx context.Context, ch <-chan *Event) {
	for ev := range ch {
		if err := j.Record(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to record event", "error", err, "event_type", ev.Type)
		}
	}
}
