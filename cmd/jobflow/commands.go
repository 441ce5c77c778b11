package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/internal/render"
)

type filterFlags struct {
	query    *string
	assignee *string
	today    *bool
}

func addFilterFlags(cmd *kingpin.CmdClause) filterFlags {
	return filterFlags{
		query:    cmd.Flag("query", "Match job title or client").Short('q').String(),
		assignee: cmd.Flag("assignee", "Only jobs assigned to this person id").Default(job.AllAssignees).String(),
		today:    cmd.Flag("today", "Only jobs due today").Bool(),
	}
}

func (f filterFlags) filter() job.Filter {
	return job.Filter{Query: *f.query, AssigneeID: *f.assignee, DueTodayOnly: *f.today}
}

var (
	app = kingpin.New("jobflow", "A lightweight pipeline, tasks & reminders board for small teams")

	serveCmd = app.Command("serve", "Start the HTTP API server")

	boardCmd    = app.Command("board", "Show the kanban board").Default()
	boardFilter = addFilterFlags(boardCmd)

	listCmd    = app.Command("list", "List jobs, highest priority first")
	listFilter = addFilterFlags(listCmd)

	calendarCmd    = app.Command("calendar", "Show jobs due in a month")
	calendarFilter = addFilterFlags(calendarCmd)
	calendarOffset = calendarCmd.Flag("offset", "Months relative to the current one").Default("0").Int()
	calendarMonth  = calendarCmd.Flag("month", "Month to show, as YYYY-MM").String()

	remindersCmd = app.Command("reminders", "Show open tasks due today")

	peopleCmd = app.Command("people", "List the team")

	activityCmd  = app.Command("activity", "Show the change log of one day")
	activityDate = activityCmd.Flag("date", "Day to show, as YYYY-MM-DD (default today)").String()
	activityDays = activityCmd.Flag("days", "List the days that have activity").Bool()

	showCmd = app.Command("show", "Show job details")
	showID  = showCmd.Arg("id", "Job ID").Required().String()

	createCmd         = app.Command("create", "Create a job in Backlog")
	createTitle       = createCmd.Arg("title", "Job title").Required().String()
	createClient      = createCmd.Arg("client", "Client name").Required().String()
	createDescription = createCmd.Flag("description", "Brief").Short('d').String()
	createPriority    = createCmd.Flag("priority", "Low, Medium, High or Urgent").Short('p').String()
	createDue         = createCmd.Flag("due", "Due date, as YYYY-MM-DD").String()
	createOwner       = createCmd.Flag("owner", "Owner person id").String()
	createAssignees   = createCmd.Flag("assignee", "Assignee person id (repeatable)").Short('a').Strings()

	updateCmd         = app.Command("update", "Edit a job")
	updateID          = updateCmd.Arg("id", "Job ID").Required().String()
	updateTitle       = optionalString(updateCmd.Flag("title", "New title"))
	updateClient      = optionalString(updateCmd.Flag("client", "New client"))
	updateDescription = optionalString(updateCmd.Flag("description", "New brief").Short('d'))
	updatePriority    = optionalString(updateCmd.Flag("priority", "Low, Medium, High or Urgent").Short('p'))
	updateStatus      = optionalString(updateCmd.Flag("status", "Backlog, In Progress, Review or Done"))
	updateDue         = optionalString(updateCmd.Flag("due", "Due date, as YYYY-MM-DD; empty clears it"))
	updateOwner       = optionalString(updateCmd.Flag("owner", "Owner person id; empty clears it"))
	updateAssignees   = updateCmd.Flag("assignee", "Replace assignees (repeatable)").Short('a').Strings()

	moveCmd    = app.Command("move", "Move a job to another column")
	moveID     = moveCmd.Arg("id", "Job ID").Required().String()
	moveStatus = moveCmd.Arg("status", "Backlog, In Progress, Review or Done").Required().String()

	deleteCmd = app.Command("delete", "Delete a job and its tasks")
	deleteID  = deleteCmd.Arg("id", "Job ID").Required().String()

	assignCmd    = app.Command("assign", "Add an assignee to a job")
	assignID     = assignCmd.Arg("id", "Job ID").Required().String()
	assignPerson = assignCmd.Arg("person", "Person ID").Required().String()

	unassignCmd    = app.Command("unassign", "Remove an assignee from a job")
	unassignID     = unassignCmd.Arg("id", "Job ID").Required().String()
	unassignPerson = unassignCmd.Arg("person", "Person ID").Required().String()

	taskCmd = app.Command("task", "Task commands")

	taskAddCmd   = taskCmd.Command("add", "Add a task to a job")
	taskAddJob   = taskAddCmd.Arg("job", "Job ID").Required().String()
	taskAddTitle = taskAddCmd.Arg("title", "Task title").String()

	taskUpdateCmd      = taskCmd.Command("update", "Edit a task")
	taskUpdateJob      = taskUpdateCmd.Arg("job", "Job ID").Required().String()
	taskUpdateID       = taskUpdateCmd.Arg("task", "Task ID").Required().String()
	taskUpdateTitle    = optionalString(taskUpdateCmd.Flag("title", "New title"))
	taskUpdateAssignee = optionalString(taskUpdateCmd.Flag("assignee", "Assignee person id; empty unassigns"))
	taskUpdateDue      = optionalString(taskUpdateCmd.Flag("due", "Due date, as YYYY-MM-DD; empty clears it"))
	taskUpdateDone     = optionalBool(taskUpdateCmd.Flag("done", "Mark done (--no-done to reopen)"))

	taskRemoveCmd = taskCmd.Command("remove", "Remove a task")
	taskRemoveJob = taskRemoveCmd.Arg("job", "Job ID").Required().String()
	taskRemoveID  = taskRemoveCmd.Arg("task", "Task ID").Required().String()

	resetCmd = app.Command("reset", "Discard saved jobs; the next run starts from the demo data")
)

// optional tracks whether a flag was given at all, so "--due=" can clear a
// field while leaving it out keeps the field unchanged.
type optional[T any] struct {
	value *T
	set   bool
}

func (o *optional[T]) ptr() *T {
	if !o.set {
		return nil
	}
	return o.value
}

func optionalString(f *kingpin.FlagClause) *optional[string] {
	o := &optional[string]{}
	o.value = f.IsSetByUser(&o.set).String()
	return o
}

func optionalBool(f *kingpin.FlagClause) *optional[bool] {
	o := &optional[bool]{}
	o.value = f.IsSetByUser(&o.set).Bool()
	return o
}

func dispatch(ctx context.Context, d *deps, command string) error {
	r := render.New(color.Output, d.store.Roster(), d.store.Now())

	switch command {
	case serveCmd.FullCommand():
		return serve(ctx, d)

	case boardCmd.FullCommand():
		r.Board(d.store.View(boardFilter.filter()).Board)
	case listCmd.FullCommand():
		r.List(d.store.View(listFilter.filter()).List)
	case calendarCmd.FullCommand():
		target := job.MonthTarget(d.store.Now(), *calendarOffset)
		if *calendarMonth != "" {
			t, err := time.ParseInLocation("2006-01", *calendarMonth, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --month %q: want YYYY-MM", *calendarMonth)
			}
			target = t
		}
		r.Calendar(target, d.store.Calendar(calendarFilter.filter(), target))
	case remindersCmd.FullCommand():
		r.Reminders(d.store.View(job.Filter{}).Reminders)
	case peopleCmd.FullCommand():
		r.People(d.store.Roster().People())
	case activityCmd.FullCommand():
		return showActivity(ctx, d)
	case showCmd.FullCommand():
		j, err := d.store.Get(ctx, *showID)
		if err != nil {
			return err
		}
		r.Job(j)

	case createCmd.FullCommand():
		in := job.CreateJobInput{
			Title:       *createTitle,
			Client:      *createClient,
			Description: *createDescription,
			OwnerID:     *createOwner,
			AssigneeIDs: *createAssignees,
		}
		var err error
		if in.Priority, err = parsePriority(*createPriority); err != nil {
			return err
		}
		if in.DueDate, err = parseDate(*createDue); err != nil {
			return err
		}
		j, err := d.store.CreateJob(ctx, in)
		if err != nil {
			return err
		}
		r.Job(j)
	case updateCmd.FullCommand():
		patch, err := updatePatch()
		if err != nil {
			return err
		}
		j, err := d.store.UpdateJob(ctx, *updateID, patch)
		if err != nil {
			return err
		}
		r.Job(j)
	case moveCmd.FullCommand():
		status, err := job.ParseStatus(*moveStatus)
		if err != nil {
			return err
		}
		j, err := d.store.MoveStatus(ctx, *moveID, status)
		if err != nil {
			return err
		}
		r.Job(j)
	case deleteCmd.FullCommand():
		if err := d.store.DeleteJob(ctx, *deleteID); err != nil {
			return err
		}
		fmt.Fprintf(color.Output, "deleted %s\n", *deleteID)
	case assignCmd.FullCommand():
		j, err := d.store.SetAssignee(ctx, *assignID, *assignPerson, true)
		if err != nil {
			return err
		}
		r.Job(j)
	case unassignCmd.FullCommand():
		j, err := d.store.SetAssignee(ctx, *unassignID, *unassignPerson, false)
		if err != nil {
			return err
		}
		r.Job(j)

	case taskAddCmd.FullCommand():
		t, err := d.store.AddTask(ctx, *taskAddJob)
		if err != nil {
			return err
		}
		if *taskAddTitle != "" {
			if _, err := d.store.UpdateTask(ctx, *taskAddJob, t.ID, job.TaskPatch{Title: taskAddTitle}); err != nil {
				return err
			}
		}
		return showJob(ctx, d, r, *taskAddJob)
	case taskUpdateCmd.FullCommand():
		patch := job.TaskPatch{
			Title:      taskUpdateTitle.ptr(),
			AssigneeID: taskUpdateAssignee.ptr(),
			Done:       taskUpdateDone.ptr(),
		}
		if due := taskUpdateDue.ptr(); due != nil {
			t, err := parseDate(*due)
			if err != nil {
				return err
			}
			patch.DueDate, patch.ClearDueDate = t, t == nil
		}
		if _, err := d.store.UpdateTask(ctx, *taskUpdateJob, *taskUpdateID, patch); err != nil {
			return err
		}
		return showJob(ctx, d, r, *taskUpdateJob)
	case taskRemoveCmd.FullCommand():
		if err := d.store.RemoveTask(ctx, *taskRemoveJob, *taskRemoveID); err != nil {
			return err
		}
		return showJob(ctx, d, r, *taskRemoveJob)

	case resetCmd.FullCommand():
		removed, err := d.repo.Reset(ctx)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintln(color.Output, "no saved jobs")
			return nil
		}
		fmt.Fprintln(color.Output, "saved jobs discarded")
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func updatePatch() (job.JobPatch, error) {
	patch := job.JobPatch{
		Title:       updateTitle.ptr(),
		Client:      updateClient.ptr(),
		Description: updateDescription.ptr(),
		OwnerID:     updateOwner.ptr(),
		AssigneeIDs: *updateAssignees,
	}
	if v := updatePriority.ptr(); v != nil {
		p, err := parsePriority(*v)
		if err != nil {
			return patch, err
		}
		patch.Priority = &p
	}
	if v := updateStatus.ptr(); v != nil {
		s, err := job.ParseStatus(*v)
		if err != nil {
			return patch, err
		}
		patch.Status = &s
	}
	if v := updateDue.ptr(); v != nil {
		t, err := parseDate(*v)
		if err != nil {
			return patch, err
		}
		patch.DueDate, patch.ClearDueDate = t, t == nil
	}
	return patch, nil
}

func showJob(ctx context.Context, d *deps, r *render.Renderer, id string) error {
	j, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	r.Job(j)
	return nil
}

func showActivity(ctx context.Context, d *deps) error {
	if *activityDays {
		days, err := d.journal.Days(ctx)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			fmt.Fprintln(color.Output, "no activity")
		}
		for _, day := range days {
			fmt.Fprintln(color.Output, day.Format(time.DateOnly))
		}
		return nil
	}
	day := d.store.Now()
	if *activityDate != "" {
		t, err := time.Parse(time.DateOnly, *activityDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", *activityDate)
		}
		day = t
	}
	events, err := d.journal.Day(ctx, day)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(color.Output, "no activity")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(color.Output, "%s  %-22s %s\n", ev.CreatedAt.Local().Format(time.TimeOnly), ev.Type, ev.ResourceID)
	}
	return nil
}

// parsePriority leaves an empty value unset, which stores as Medium.
func parsePriority(v string) (job.Priority, error) {
	if strings.TrimSpace(v) == "" {
		return 0, nil
	}
	return job.ParsePriority(v)
}

// parseDate reads a calendar day at local midnight. Empty means no date.
func parseDate(v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
	}
	return &t, nil
}
