package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/pkg/cerr"
)

type boardResponse struct {
	Filter  job.Filter   `json:"filter"`
	Columns []job.Column `json:"columns"`
}

type jobsResponse struct {
	Filter job.Filter `json:"filter"`
	Jobs   []*job.Job `json:"jobs"`
}

type calendarResponse struct {
	Year  int        `json:"year"`
	Month int        `json:"month"`
	Jobs  []*job.Job `json:"jobs"`
}

type remindersResponse struct {
	Reminders []job.Reminder `json:"reminders"`
}

type moveStatusRequest struct {
	Status job.Status `json:"status"`
}

func (s *Server) listPeople(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), s.store.Roster().People())
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), boardResponse{Filter: f, Columns: s.store.View(f).Board})
}

// listJobs serves the list view: filtered jobs, highest priority first.
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), jobsResponse{Filter: f, Jobs: s.store.View(f).List})
}

// getCalendar takes either year and month, or a month offset from now.
func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := parseFilter(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	target, err := parseMonth(r, s.store.Now())
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, calendarResponse{
		Year:  target.Year(),
		Month: int(target.Month()),
		Jobs:  s.store.Calendar(f, target),
	})
}

// listReminders ignores the filter bar, like the reminders panel.
func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), remindersResponse{Reminders: s.store.View(job.Filter{}).Reminders})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	j, err := s.store.Get(ctx, jobID(r))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, j)
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in job.CreateJobInput
	if err := decodeJSON(r, &in); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	j, err := s.store.CreateJob(ctx, in)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, j)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var patch job.JobPatch
	if err := decodeJSON(r, &patch); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	j, err := s.store.UpdateJob(ctx, jobID(r), patch)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, j)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.DeleteJob(ctx, jobID(r)); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) moveStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req moveStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	j, err := s.store.MoveStatus(ctx, jobID(r), req.Status)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, j)
}

func (s *Server) setAssignee(present bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		personID := chi.URLParam(r, "personID")
		j, err := s.store.SetAssignee(ctx, jobID(r), personID, present)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponse(ctx, j)
	}
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.store.AddTask(ctx, jobID(r))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var patch job.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.store.UpdateTask(ctx, jobID(r), taskID(r), patch)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) removeTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.RemoveTask(ctx, jobID(r), taskID(r)); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func jobID(r *http.Request) string {
	return chi.URLParam(r, "jobID")
}

func taskID(r *http.Request) string {
	return chi.URLParam(r, "taskID")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return cerr.NewError(cerr.InvalidArgument, "request body is required", err)
		}
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err).AddDetailMessage(err.Error())
	}
	return nil
}

func parseFilter(r *http.Request) (job.Filter, error) {
	q := r.URL.Query()
	f := job.Filter{
		Query:      q.Get("q"),
		AssigneeID: q.Get("assignee"),
	}
	if v := q.Get("today"); v != "" {
		today, err := strconv.ParseBool(v)
		if err != nil {
			return job.Filter{}, invalidParam("today", v)
		}
		f.DueTodayOnly = today
	}
	return f, nil
}

func parseMonth(r *http.Request, now time.Time) (time.Time, error) {
	q := r.URL.Query()
	if y, m := q.Get("year"), q.Get("month"); y != "" || m != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return time.Time{}, invalidParam("year", y)
		}
		month, err := strconv.Atoi(m)
		if err != nil || month < 1 || month > 12 {
			return time.Time{}, invalidParam("month", m)
		}
		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location()), nil
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return time.Time{}, invalidParam("offset", v)
		}
		offset = n
	}
	return job.MonthTarget(now, offset), nil
}

func invalidParam(name, value string) error {
	return cerr.NewErrorWithDetails(cerr.InvalidArgument, "invalid query parameter", nil, []cerr.Detail{
		{Field: name, Message: fmt.Sprintf("cannot parse %q", value)},
	})
}
