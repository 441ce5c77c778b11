package job

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kazz187/jobflow/internal/eventbus"
	"github.com/kazz187/jobflow/internal/person"
	"github.com/kazz187/jobflow/pkg/cerr"
	"github.com/kazz187/jobflow/pkg/clog"
)

// NewTaskTitle is the placeholder title of a freshly added task.
const NewTaskTitle = "New task"

// Publisher receives a notification after every successful mutation.
type Publisher interface {
	PublishNew(eventType eventbus.EventType, resourceID string, metadata map[string]string)
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDFunc(newID IDFunc) Option {
	return func(s *Store) { s.newID = newID }
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// Store owns the job collection. Its methods are the only write path; each
// runs to completion under one lock and ends by saving the full collection.
// Callers only ever see copies.
type Store struct {
	mu        sync.Mutex
	jobs      []*Job
	roster    *person.Roster
	persist   *Persistence
	publisher Publisher
	now       func() time.Time
	newID     IDFunc
}

// NewStore loads the collection through repo, exactly once.
func NewStore(ctx context.Context, repo Repository, roster *person.Roster, opts ...Option) *Store {
	s := &Store{
		roster: roster,
		now:    time.Now,
		newID:  NewULID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.persist = NewPersistence(repo, s.now, s.newID)
	s.jobs = s.persist.Load(ctx)
	return s
}

func (s *Store) Roster() *person.Roster {
	return s.roster
}

// Now is the store's clock, shared with the views it derives.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneAll(s.jobs)
}

func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.jobs[i].Clone(), nil
}

func (s *Store) View(f Filter) View {
	return NewView(s.Jobs(), f, s.now())
}

// Calendar returns the filtered jobs due in target's month.
func (s *Store) Calendar(f Filter, target time.Time) []*Job {
	return Calendar(f.Apply(s.Jobs(), s.now()), target)
}

func (s *Store) CreateJob(ctx context.Context, in CreateJobInput) (*Job, error) {
	j := &Job{
		Title:       strings.TrimSpace(in.Title),
		Client:      strings.TrimSpace(in.Client),
		Description: in.Description,
		Status:      StatusBacklog,
		Priority:    in.Priority.OrDefault(),
		DueDate:     cloneTime(in.DueDate),
		OwnerID:     in.OwnerID,
		AssigneeIDs: dedupe(in.AssigneeIDs),
		Tasks:       []*Task{},
	}
	if err := ValidationError("invalid job", Validate(j, s.roster)); err != nil {
		slog.InfoContext(ctx, "job rejected", "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = s.newID()
	s.jobs = slices.Insert(s.jobs, 0, j)
	s.commit(ctx, eventbus.JobCreated, j.ID, map[string]string{"client": j.Client})
	clog.AddAttribute(ctx, "job_id", j.ID)
	slog.InfoContext(ctx, "job created", "job_id", j.ID)
	return j.Clone(), nil
}

func (s *Store) UpdateJob(ctx context.Context, id string, patch JobPatch) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ctx, id)
	if err != nil {
		return nil, err
	}
	current := s.jobs[i]
	updated := current.Clone()
	patch.apply(updated)
	if err := s.checkEdit(ctx, current, updated); err != nil {
		return nil, err
	}
	s.jobs[i] = updated
	md := map[string]string{"status": updated.Status.String()}
	s.commit(ctx, eventbus.JobUpdated, id, md)
	if updated.Status != current.Status && s.publisher != nil {
		s.publisher.PublishNew(eventbus.JobStatusChanged, id, md)
	}
	return updated.Clone(), nil
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ctx, id)
	if err != nil {
		return err
	}
	s.jobs = slices.Delete(s.jobs, i, i+1)
	s.commit(ctx, eventbus.JobDeleted, id, nil)
	slog.InfoContext(ctx, "job deleted", "job_id", id)
	return nil
}

// MoveStatus relabels the job's column; every status is reachable from every
// other.
func (s *Store) MoveStatus(ctx context.Context, id string, status Status) (*Job, error) {
	if !status.Valid() {
		return nil, ValidationError("invalid status", []Violation{{Field: "status", Message: "unknown status " + status.String()}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ctx, id)
	if err != nil {
		return nil, err
	}
	j := s.jobs[i]
	from := j.Status
	j.Status = status
	s.commit(ctx, eventbus.JobStatusChanged, id, map[string]string{"from": from.String(), "to": status.String()})
	return j.Clone(), nil
}

// SetAssignee adds or removes personID from the job's assignees. Repeating
// the same call changes nothing further.
func (s *Store) SetAssignee(ctx context.Context, id, personID string, present bool) (*Job, error) {
	if present && !s.roster.Contains(personID) {
		return nil, ValidationError("invalid assignee", []Violation{{Field: "assigneeIds", Message: "unknown person " + personID}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ctx, id)
	if err != nil {
		return nil, err
	}
	j := s.jobs[i]
	changed := false
	switch has := j.HasAssignee(personID); {
	case present && !has:
		j.AssigneeIDs = append(j.AssigneeIDs, personID)
		changed = true
	case !present && has:
		j.AssigneeIDs = slices.DeleteFunc(j.AssigneeIDs, func(a string) bool { return a == personID })
		changed = true
	}
	s.persist.Save(ctx, s.jobs)
	if changed && s.publisher != nil {
		s.publisher.PublishNew(eventbus.JobAssigneeChanged, id, map[string]string{"person_id": personID})
	}
	return j.Clone(), nil
}

// AddTask appends an empty, undone task with a placeholder title.
func (s *Store) AddTask(ctx context.Context, jobID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ctx, jobID)
	if err != nil {
		return nil, err
	}
	t := &Task{ID: s.newID(), Title: NewTaskTitle}
	s.jobs[i].Tasks = append(s.jobs[i].Tasks, t)
	s.commit(ctx, eventbus.TaskCreated, t.ID, map[string]string{"job_id": jobID})
	return t.Clone(), nil
}

func (s *Store) UpdateTask(ctx context.Context, jobID, taskID string, patch TaskPatch) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, k, err := s.taskIndexOf(ctx, jobID, taskID)
	if err != nil {
		return nil, err
	}
	current := s.jobs[i]
	updated := current.Clone()
	patch.apply(updated.Tasks[k])
	if err := s.checkEdit(ctx, current, updated); err != nil {
		return nil, err
	}
	s.jobs[i] = updated
	s.commit(ctx, eventbus.TaskUpdated, taskID, map[string]string{"job_id": jobID})
	return updated.Tasks[k].Clone(), nil
}

func (s *Store) RemoveTask(ctx context.Context, jobID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, k, err := s.taskIndexOf(ctx, jobID, taskID)
	if err != nil {
		return err
	}
	s.jobs[i].Tasks = slices.Delete(s.jobs[i].Tasks, k, k+1)
	s.commit(ctx, eventbus.TaskDeleted, taskID, map[string]string{"job_id": jobID})
	return nil
}

// checkEdit rejects an edit that introduces violations; problems the job
// already had (e.g. a person since removed from the roster) do not block it.
func (s *Store) checkEdit(ctx context.Context, before, after *Job) error {
	vs := newViolations(Validate(before, s.roster), Validate(after, s.roster))
	if err := ValidationError("invalid job", vs); err != nil {
		slog.InfoContext(ctx, "job edit rejected", "job_id", before.ID, "error", err)
		return err
	}
	return nil
}

func (s *Store) commit(ctx context.Context, eventType eventbus.EventType, resourceID string, md map[string]string) {
	s.persist.Save(ctx, s.jobs)
	if s.publisher != nil {
		s.publisher.PublishNew(eventType, resourceID, md)
	}
}

func (s *Store) indexOf(ctx context.Context, id string) (int, error) {
	i := slices.IndexFunc(s.jobs, func(j *Job) bool { return j.ID == id })
	if i < 0 {
		slog.InfoContext(ctx, "job not found", "job_id", id)
		return -1, cerr.NewError(cerr.NotFound, "job not found", nil)
	}
	return i, nil
}

func (s *Store) taskIndexOf(ctx context.Context, jobID, taskID string) (int, int, error) {
	i, err := s.indexOf(ctx, jobID)
	if err != nil {
		return -1, -1, err
	}
	k := s.jobs[i].TaskIndex(taskID)
	if k < 0 {
		slog.InfoContext(ctx, "task not found", "job_id", jobID, "task_id", taskID)
		return -1, -1, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return i, k, nil
}
