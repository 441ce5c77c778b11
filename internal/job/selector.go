package job

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// AllAssignees disables the assignee filter.
const AllAssignees = "all"

// Filter is the board's filter bar state.
type Filter struct {
	Query        string `json:"query,omitempty"`
	AssigneeID   string `json:"assigneeId,omitempty"`
	DueTodayOnly bool   `json:"dueTodayOnly,omitempty"`
}

// Apply keeps the jobs matching every active part of the filter, in input
// order. now decides what "today" is, in now's location.
func (f Filter) Apply(jobs []*Job, now time.Time) []*Job {
	out := FilterByText(jobs, f.Query)
	out = FilterByAssignee(out, f.AssigneeID)
	if f.DueTodayOnly {
		out = FilterDueToday(out, now)
	}
	return out
}

// FilterByText matches title or client, case-insensitively. An empty query
// matches everything.
func FilterByText(jobs []*Job, query string) []*Job {
	q := strings.ToLower(query)
	return filter(jobs, func(j *Job) bool {
		return strings.Contains(strings.ToLower(j.Title), q) ||
			strings.Contains(strings.ToLower(j.Client), q)
	})
}

// FilterByAssignee passes everything for "" or AllAssignees.
func FilterByAssignee(jobs []*Job, personID string) []*Job {
	if personID == "" || personID == AllAssignees {
		return filter(jobs, func(*Job) bool { return true })
	}
	return filter(jobs, func(j *Job) bool { return j.HasAssignee(personID) })
}

func FilterDueToday(jobs []*Job, now time.Time) []*Job {
	return filter(jobs, func(j *Job) bool { return j.DueDate != nil && SameDay(*j.DueDate, now) })
}

// SameDay compares calendar days in ref's location.
func SameDay(t, ref time.Time) bool {
	ty, tm, td := t.In(ref.Location()).Date()
	ry, rm, rd := ref.Date()
	return ty == ry && tm == rm && td == rd
}

// Overdue reports a due date strictly before now on a job that is not done.
func Overdue(j *Job, now time.Time) bool {
	return j.DueDate != nil && j.DueDate.Before(now) && j.Status != StatusDone
}

// Column is one kanban column.
type Column struct {
	Status Status `json:"status"`
	Jobs   []*Job `json:"jobs"`
}

// Kanban partitions jobs into the four status columns, always all four and
// always in board order, each sorted by priority.
func Kanban(jobs []*Job) []Column {
	columns := make([]Column, len(Statuses))
	index := make(map[Status]int, len(Statuses))
	for i, st := range Statuses {
		columns[i] = Column{Status: st, Jobs: []*Job{}}
		index[st] = i
	}
	for _, j := range jobs {
		i, ok := index[j.Status]
		if !ok {
			// Unknown statuses cannot be stored; park them in Backlog
			// rather than lose them from the board.
			i = 0
		}
		columns[i].Jobs = append(columns[i].Jobs, j)
	}
	for i := range columns {
		SortByPriority(columns[i].Jobs)
	}
	return columns
}

// Ordered returns the list view: all jobs sorted by priority.
func Ordered(jobs []*Job) []*Job {
	out := slices.Clone(jobs)
	SortByPriority(out)
	return out
}

// SortByPriority sorts in place, Urgent first; ties keep their order.
func SortByPriority(jobs []*Job) {
	slices.SortStableFunc(jobs, func(a, b *Job) int {
		return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
	})
}

// MonthTarget is the first day of the month offset months away from now's
// month, in now's location.
func MonthTarget(now time.Time, offset int) time.Time {
	return time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
}

// Calendar keeps the jobs due in the month of target (year and month, in
// target's location), earliest first.
func Calendar(jobs []*Job, target time.Time) []*Job {
	year, month, _ := target.Date()
	out := filter(jobs, func(j *Job) bool {
		if j.DueDate == nil {
			return false
		}
		y, m, _ := j.DueDate.In(target.Location()).Date()
		return y == year && m == month
	})
	slices.SortStableFunc(out, func(a, b *Job) int {
		return a.DueDate.Compare(*b.DueDate)
	})
	return out
}

// Reminder is an open task due today together with its job.
type Reminder struct {
	Job  *Job  `json:"job"`
	Task *Task `json:"task"`
}

// DueToday lists the open tasks due today, in job order then task order.
func DueToday(jobs []*Job, now time.Time) []Reminder {
	out := []Reminder{}
	for _, j := range jobs {
		for _, t := range j.Tasks {
			if t.DueDate != nil && !t.Done && SameDay(*t.DueDate, now) {
				out = append(out, Reminder{Job: j, Task: t})
			}
		}
	}
	return out
}

// View bundles everything the board screens render for one filter state.
type View struct {
	Filter    Filter     `json:"filter"`
	Jobs      []*Job     `json:"jobs"`
	Board     []Column   `json:"board"`
	List      []*Job     `json:"list"`
	Reminders []Reminder `json:"reminders"`
}

func NewView(jobs []*Job, f Filter, now time.Time) View {
	filtered := f.Apply(jobs, now)
	return View{
		Filter:    f,
		Jobs:      filtered,
		Board:     Kanban(filtered),
		List:      Ordered(filtered),
		Reminders: DueToday(jobs, now),
	}
}

func filter(jobs []*Job, keep func(*Job) bool) []*Job {
	out := make([]*Job, 0, len(jobs))
	for _, j := range jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}
