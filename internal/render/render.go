// Package render draws the board screens as colored terminal text.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/internal/person"
)

const (
	shortDate = "Jan 2"
	longDate  = "2006-01-02"
)

var (
	statusColors = map[job.Status]*color.Color{
		job.StatusBacklog:    color.New(color.FgHiBlack),
		job.StatusInProgress: color.New(color.FgBlue),
		job.StatusReview:     color.New(color.FgYellow),
		job.StatusDone:       color.New(color.FgGreen),
	}
	priorityColors = map[job.Priority]*color.Color{
		job.PriorityLow:    color.New(color.FgWhite),
		job.PriorityMedium: color.New(color.FgCyan),
		job.PriorityHigh:   color.New(color.FgHiYellow),
		job.PriorityUrgent: color.New(color.FgRed, color.Bold),
	}

	titleStyle   = color.New(color.Bold)
	mutedStyle   = color.New(color.Faint)
	overdueStyle = color.New(color.FgRed, color.Bold)
	headerStyle  = color.New(color.Bold, color.Underline)
	personStyle  = color.New(color.FgMagenta)
	fallback     = color.New(color.Reset)
)

// Renderer writes human-readable views of jobs. now decides what is overdue.
type Renderer struct {
	w      io.Writer
	roster *person.Roster
	now    time.Time
}

func New(w io.Writer, roster *person.Roster, now time.Time) *Renderer {
	return &Renderer{w: w, roster: roster, now: now}
}

func (r *Renderer) Board(columns []job.Column) {
	for i, c := range columns {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		fmt.Fprintf(r.w, "%s %s\n", statusBadge(c.Status), mutedStyle.Sprintf("(%d)", len(c.Jobs)))
		if len(c.Jobs) == 0 {
			fmt.Fprintf(r.w, "  %s\n", mutedStyle.Sprint("empty"))
			continue
		}
		for _, j := range c.Jobs {
			r.card(j, "  ")
		}
	}
}

func (r *Renderer) List(jobs []*job.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(r.w, "No jobs match. Adjust filters or create a new job.")
		return
	}
	for _, j := range jobs {
		fmt.Fprintf(r.w, "%s %s %s %s\n", titleStyle.Sprint(j.Title), statusBadge(j.Status), priorityBadge(j.Priority), mutedStyle.Sprint(j.ID))
		r.details(j, "  ")
	}
}

// Calendar lists the jobs of target's month by due day.
func (r *Renderer) Calendar(target time.Time, jobs []*job.Job) {
	fmt.Fprintln(r.w, headerStyle.Sprint(target.Format("January 2006")))
	if len(jobs) == 0 {
		fmt.Fprintf(r.w, "  %s\n", mutedStyle.Sprint("No jobs due this month."))
		return
	}
	for _, j := range jobs {
		due := j.DueDate.In(target.Location())
		fmt.Fprintf(r.w, "  %s  %s %s %s\n",
			r.dueBadge(j, due.Format("Mon Jan 2")),
			titleStyle.Sprint(j.Title),
			mutedStyle.Sprintf("(%s)", j.Client),
			mutedStyle.Sprintf("%d open tasks", j.OpenTasks()),
		)
	}
}

func (r *Renderer) Reminders(reminders []job.Reminder) {
	fmt.Fprintln(r.w, headerStyle.Sprint("Due Today"))
	if len(reminders) == 0 {
		fmt.Fprintf(r.w, "  %s\n", mutedStyle.Sprint("Nothing due today."))
		return
	}
	for _, rm := range reminders {
		fmt.Fprintf(r.w, "  %s %s  %s  %s\n",
			titleStyle.Sprint(rm.Task.Title),
			mutedStyle.Sprintf("• %s", rm.Job.Title),
			personStyle.Sprint(r.roster.DisplayName(rm.Task.AssigneeID)),
			rm.Task.DueDate.Format(shortDate),
		)
	}
}

// Job prints everything the job editor shows, tasks included.
func (r *Renderer) Job(j *job.Job) {
	fmt.Fprintf(r.w, "%s %s %s\n", titleStyle.Sprint(j.Title), statusBadge(j.Status), priorityBadge(j.Priority))
	fmt.Fprintf(r.w, "  id:        %s\n", j.ID)
	fmt.Fprintf(r.w, "  client:    %s\n", j.Client)
	if j.Description != "" {
		fmt.Fprintf(r.w, "  about:     %s\n", j.Description)
	}
	if j.DueDate != nil {
		fmt.Fprintf(r.w, "  due:       %s\n", r.dueBadge(j, j.DueDate.Format(longDate)))
	}
	if j.OwnerID != "" {
		fmt.Fprintf(r.w, "  owner:     %s\n", personStyle.Sprint(r.roster.DisplayName(j.OwnerID)))
	}
	fmt.Fprintf(r.w, "  assignees: %s\n", r.people(j.AssigneeIDs, r.roster.DisplayName))

	fmt.Fprintf(r.w, "  tasks:     %d open / %d\n", j.OpenTasks(), len(j.Tasks))
	for _, t := range j.Tasks {
		box := "[ ]"
		if t.Done {
			box = color.GreenString("[x]")
		}
		line := fmt.Sprintf("    %s %s %s", box, t.Title, mutedStyle.Sprint(t.ID))
		if t.AssigneeID != "" {
			line += " " + personStyle.Sprint(r.roster.DisplayName(t.AssigneeID))
		}
		if t.DueDate != nil {
			line += " " + mutedStyle.Sprint(t.DueDate.Format(shortDate))
		}
		fmt.Fprintln(r.w, line)
	}
}

func (r *Renderer) People(people []person.Person) {
	for _, p := range people {
		fmt.Fprintf(r.w, "%s  %s  %s\n", mutedStyle.Sprint(p.ID), personStyle.Sprint(p.Name), p.Role)
	}
}

func (r *Renderer) card(j *job.Job, indent string) {
	fmt.Fprintf(r.w, "%s%s %s %s\n", indent, priorityBadge(j.Priority), titleStyle.Sprint(j.Title), mutedStyle.Sprint(j.ID))
	r.details(j, indent+"  ")
}

func (r *Renderer) details(j *job.Job, indent string) {
	parts := []string{j.Client}
	if j.DueDate != nil {
		parts = append(parts, r.dueBadge(j, j.DueDate.Format(shortDate)))
	}
	if len(j.AssigneeIDs) > 0 {
		parts = append(parts, r.people(j.AssigneeIDs, r.roster.ShortName))
	}
	if n := j.OpenTasks(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d open tasks", n))
	}
	fmt.Fprintf(r.w, "%s%s\n", indent, strings.Join(parts, " · "))
}

func (r *Renderer) dueBadge(j *job.Job, text string) string {
	if job.Overdue(j, r.now) {
		return overdueStyle.Sprintf("%s (overdue)", text)
	}
	return text
}

func (r *Renderer) people(ids []string, name func(string) string) string {
	if len(ids) == 0 {
		return mutedStyle.Sprint(person.UnassignedName)
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = personStyle.Sprint(name(id))
	}
	return strings.Join(names, ", ")
}

func statusBadge(s job.Status) string {
	c, ok := statusColors[s]
	if !ok {
		c = fallback
	}
	return c.Sprintf("[%s]", s)
}

func priorityBadge(p job.Priority) string {
	p = p.OrDefault()
	c, ok := priorityColors[p]
	if !ok {
		c = fallback
	}
	return c.Sprintf("[%s]", p)
}
