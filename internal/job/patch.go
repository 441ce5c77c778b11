package job

import (
	"strings"
	"time"
)

// CreateJobInput carries the raw fields of the new-job form.
type CreateJobInput struct {
	Title       string     `json:"title"`
	Client      string     `json:"client"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	OwnerID     string     `json:"ownerId,omitempty"`
	AssigneeIDs []string   `json:"assigneeIds,omitempty"`
}

// JobPatch lists the fields an update may touch. A nil pointer or nil slice
// leaves the field unchanged; an empty non-nil slice clears it. The id is
// not patchable.
type JobPatch struct {
	Title        *string    `json:"title,omitempty"`
	Client       *string    `json:"client,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Priority     *Priority  `json:"priority,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
	// OwnerID set to "" removes the owner.
	OwnerID     *string  `json:"ownerId,omitempty"`
	AssigneeIDs []string `json:"assigneeIds,omitempty"`
	// Tasks replaces the whole task sequence, as the job editor does on save.
	Tasks []*Task `json:"tasks,omitempty"`
}

func (p JobPatch) apply(j *Job) {
	if p.Title != nil {
		j.Title = strings.TrimSpace(*p.Title)
	}
	if p.Client != nil {
		j.Client = strings.TrimSpace(*p.Client)
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Priority != nil {
		j.Priority = p.Priority.OrDefault()
	}
	if p.ClearDueDate {
		j.DueDate = nil
	} else if p.DueDate != nil {
		j.DueDate = cloneTime(p.DueDate)
	}
	if p.OwnerID != nil {
		j.OwnerID = *p.OwnerID
	}
	if p.AssigneeIDs != nil {
		j.AssigneeIDs = dedupe(p.AssigneeIDs)
	}
	if p.Tasks != nil {
		j.Tasks = make([]*Task, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			if t != nil {
				j.Tasks = append(j.Tasks, t.Clone())
			}
		}
	}
}

// TaskPatch is the JobPatch counterpart for a single task. AssigneeID set to
// "" unassigns the task.
type TaskPatch struct {
	Title        *string    `json:"title,omitempty"`
	Done         *bool      `json:"done,omitempty"`
	AssigneeID   *string    `json:"assigneeId,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
}

func (p TaskPatch) apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	if p.AssigneeID != nil {
		t.AssigneeID = *p.AssigneeID
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = cloneTime(p.DueDate)
	}
}
