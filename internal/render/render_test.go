package render

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/internal/person"
)

var now = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func at(t time.Time) *time.Time { return &t }

func sample() []*job.Job {
	return []*job.Job{
		{
			ID: "j1", Title: "Launch video", Client: "Globex", Status: job.StatusInProgress, Priority: job.PriorityUrgent,
			DueDate: at(now.Add(-24 * time.Hour)), OwnerID: "p1", AssigneeIDs: []string{"p1", "p2"},
			Tasks: []*job.Task{
				{ID: "t1", Title: "Storyboard", AssigneeID: "p2", DueDate: at(now)},
				{ID: "t2", Title: "Voice over", Done: true},
			},
		},
		{ID: "j2", Title: "Catalog", Client: "Hooli", Status: job.StatusDone, DueDate: at(now.Add(-48 * time.Hour))},
	}
}

func newRenderer(buf *bytes.Buffer) *Renderer {
	return New(buf, person.DemoRoster(), now)
}

func TestBoard(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).Board(job.Kanban(sample()))
	out := buf.String()

	assert.Contains(t, out, "[Backlog] (0)\n  empty\n")
	assert.Contains(t, out, "[In Progress] (1)")
	assert.Contains(t, out, "  [Urgent] Launch video j1\n")
	assert.Contains(t, out, "Globex · Mar 9 (overdue) · Feras, Aisha · 1 open tasks")
	// Done jobs are never overdue.
	assert.Contains(t, out, "Hooli · Mar 8\n")
	assert.Contains(t, out, "[Medium] Catalog")
}

func TestList_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).List(nil)
	assert.Equal(t, "No jobs match. Adjust filters or create a new job.\n", buf.String())
}

func TestList(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).List(job.Ordered(sample()))
	assert.Equal(t,
		"Launch video [In Progress] [Urgent] j1\n"+
			"  Globex · Mar 9 (overdue) · Feras, Aisha · 1 open tasks\n"+
			"Catalog [Done] [Medium] j2\n"+
			"  Hooli · Mar 8\n",
		buf.String())
}

func TestCalendar(t *testing.T) {
	buf := &bytes.Buffer{}
	target := job.MonthTarget(now, 0)
	newRenderer(buf).Calendar(target, job.Calendar(sample(), target))
	out := buf.String()
	assert.Contains(t, out, "March 2025\n")
	assert.Contains(t, out, "Sat Mar 8  Catalog (Hooli) 0 open tasks")
	assert.Contains(t, out, "Sun Mar 9 (overdue)  Launch video (Globex) 1 open tasks")

	buf.Reset()
	newRenderer(buf).Calendar(job.MonthTarget(now, 1), nil)
	assert.Equal(t, "April 2025\n  No jobs due this month.\n", buf.String())
}

func TestReminders(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).Reminders(job.DueToday(sample(), now))
	assert.Equal(t, "Due Today\n  Storyboard • Launch video  Aisha  Mar 10\n", buf.String())

	buf.Reset()
	newRenderer(buf).Reminders(nil)
	assert.Equal(t, "Due Today\n  Nothing due today.\n", buf.String())
}

func TestJob(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).Job(sample()[0])
	out := buf.String()
	assert.Contains(t, out, "Launch video [In Progress] [Urgent]\n")
	assert.Contains(t, out, "  owner:     Feras Shoujah\n")
	assert.Contains(t, out, "  assignees: Feras Shoujah, Aisha\n")
	assert.Contains(t, out, "  due:       2025-03-09 (overdue)\n")
	assert.Contains(t, out, "  tasks:     1 open / 2\n")
	assert.Contains(t, out, "    [ ] Storyboard t1 Aisha Mar 10\n")
	assert.Contains(t, out, "    [x] Voice over t2\n")
}

func TestJob_DanglingPeople(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).Job(&job.Job{ID: "x", Title: "T", Client: "C", Status: job.StatusBacklog, OwnerID: "gone"})
	out := buf.String()
	assert.Contains(t, out, "  owner:     Unassigned\n")
	assert.Contains(t, out, "  assignees: Unassigned\n")
}

func TestPeople(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).People(person.DemoRoster().People()[:2])
	assert.Equal(t, "p1  Feras Shoujah  Director\np2  Aisha  Designer\n", buf.String())
}
