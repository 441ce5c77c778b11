package job

import (
	"slices"
	"time"
)

// Task is a checklist item owned by exactly one Job.
type Task struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Done       bool       `json:"done" yaml:"done"`
	AssigneeID string     `json:"assigneeId,omitempty" yaml:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
}

// Job is a client work item tracked across the board.
type Job struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Client      string     `json:"client" yaml:"client"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
	OwnerID     string     `json:"ownerId,omitempty" yaml:"owner_id,omitempty"`
	AssigneeIDs []string   `json:"assigneeIds" yaml:"assignee_ids"`
	Tasks       []*Task    `json:"tasks" yaml:"tasks"`
}

func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.DueDate = cloneTime(t.DueDate)
	return &c
}

func (j *Job) Clone() *Job {
	c := *j
	c.DueDate = cloneTime(j.DueDate)
	c.AssigneeIDs = append([]string{}, j.AssigneeIDs...)
	c.Tasks = make([]*Task, len(j.Tasks))
	for i, t := range j.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return &c
}

func (j *Job) HasAssignee(personID string) bool {
	return slices.Contains(j.AssigneeIDs, personID)
}

// TaskIndex returns -1 when the job has no task with that id.
func (j *Job) TaskIndex(taskID string) int {
	return slices.IndexFunc(j.Tasks, func(t *Task) bool { return t.ID == taskID })
}

// OpenTasks counts tasks that are not done yet.
func (j *Job) OpenTasks() int {
	n := 0
	for _, t := range j.Tasks {
		if !t.Done {
			n++
		}
	}
	return n
}

func CloneAll(jobs []*Job) []*Job {
	out := make([]*Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.Clone()
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// dedupe keeps the first occurrence of every id and drops blanks.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
