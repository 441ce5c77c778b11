package job

import (
	"fmt"
	"strings"

	"github.com/kazz187/jobflow/internal/person"
	"github.com/kazz187/jobflow/pkg/cerr"
)

// Violation is one reason a job is not acceptable.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Validate checks a job against the domain rules and the roster. It never
// modifies the job.
func Validate(j *Job, roster *person.Roster) []Violation {
	var vs []Violation
	add := func(field, format string, args ...any) {
		vs = append(vs, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(j.Title) == "" {
		add("title", "title is required")
	}
	if strings.TrimSpace(j.Client) == "" {
		add("client", "client is required")
	}
	if !j.Status.Valid() {
		add("status", "unknown status %d", int(j.Status))
	}
	if !j.Priority.Valid() {
		add("priority", "unknown priority %d", int(j.Priority))
	}
	if j.OwnerID != "" && !roster.Contains(j.OwnerID) {
		add("ownerId", "unknown person %q", j.OwnerID)
	}
	for _, id := range j.AssigneeIDs {
		if !roster.Contains(id) {
			add("assigneeIds", "unknown person %q", id)
		}
	}

	seen := make(map[string]bool, len(j.Tasks))
	for i, t := range j.Tasks {
		if t == nil {
			add(fmt.Sprintf("tasks[#%d]", i), "task is empty")
			continue
		}
		field := fmt.Sprintf("tasks[%s]", t.ID)
		if t.ID == "" {
			field = fmt.Sprintf("tasks[#%d]", i)
			add(field+".id", "task id is required")
		} else if seen[t.ID] {
			add(field+".id", "duplicate task id %q", t.ID)
		}
		seen[t.ID] = true
		if t.AssigneeID != "" && !roster.Contains(t.AssigneeID) {
			add(field+".assigneeId", "unknown person %q", t.AssigneeID)
		}
	}
	return vs
}

// newViolations returns the entries of after that are not in before, so an
// edit is judged only by what it breaks.
func newViolations(before, after []Violation) []Violation {
	known := make(map[Violation]bool, len(before))
	for _, v := range before {
		known[v] = true
	}
	var out []Violation
	for _, v := range after {
		if !known[v] {
			out = append(out, v)
		}
	}
	return out
}

// ValidationError converts violations into an InvalidArgument error, or nil
// when there are none.
func ValidationError(msg string, vs []Violation) error {
	if len(vs) == 0 {
		return nil
	}
	err := cerr.NewError(cerr.InvalidArgument, msg, nil)
	for _, v := range vs {
		err.AddDetail(cerr.Detail{Field: v.Field, Message: v.Message})
	}
	return err
}
