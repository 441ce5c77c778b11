package repositoryimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/pkg/cerr"
	"github.com/kazz187/jobflow/pkg/storage"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// SnapshotRepository keeps the whole job collection in a single storage
// object named <key>.<format>.
type SnapshotRepository struct {
	storage storage.Storage
	key     string
	format  Format
}

func NewSnapshotRepository(s storage.Storage, key string, format Format) (*SnapshotRepository, error) {
	switch format {
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
	if key == "" {
		return nil, fmt.Errorf("snapshot key is required")
	}
	return &SnapshotRepository{storage: s, key: key, format: format}, nil
}

// Path is the storage key the snapshot lives under.
func (r *SnapshotRepository) Path() string {
	return fmt.Sprintf("%s.%s", r.key, r.format)
}

func (r *SnapshotRepository) Load(ctx context.Context) (*job.Snapshot, error) {
	data, err := r.storage.Read(ctx, r.Path())
	if err != nil {
		return nil, cerr.WrapStorageReadError("snapshot", err)
	}
	var s job.Snapshot
	if err := r.unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.DataLoss, "snapshot is corrupt", fmt.Errorf("failed to unmarshal snapshot: %w", err))
	}
	return &s, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, s *job.Snapshot) error {
	data, err := r.marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal snapshot: %w", err))
	}
	if err := r.storage.Write(ctx, r.Path(), data); err != nil {
		return cerr.WrapStorageWriteError("snapshot", err)
	}
	return nil
}

// Reset removes the stored snapshot so the next load starts from seed data.
// It reports whether there was a snapshot to remove.
func (r *SnapshotRepository) Reset(ctx context.Context) (bool, error) {
	exists, err := r.storage.Exists(ctx, r.Path())
	if err != nil {
		return false, cerr.WrapStorageReadError("snapshot", err)
	}
	if !exists {
		return false, nil
	}
	if err := r.storage.Delete(ctx, r.Path()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, cerr.WrapStorageDeleteError("snapshot", err)
	}
	return true, nil
}

func (r *SnapshotRepository) marshal(s *job.Snapshot) ([]byte, error) {
	if r.format == FormatYAML {
		return yaml.Marshal(s)
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *SnapshotRepository) unmarshal(data []byte, s *job.Snapshot) error {
	if r.format == FormatYAML {
		return yaml.Unmarshal(data, s)
	}
	return json.Unmarshal(data, s)
}
