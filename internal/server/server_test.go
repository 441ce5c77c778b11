package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/jobflow/internal/config"
	"github.com/kazz187/jobflow/internal/eventbus"
	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/internal/job/repositoryimpl"
	"github.com/kazz187/jobflow/internal/person"
	"github.com/kazz187/jobflow/pkg/storage"
)

var now = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func seqIDs() job.IDFunc {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestServer serves the seed collection: id-1 (Indomie, tasks id-2..4)
// and id-5 (Fakieh, tasks id-6..7).
func newTestServer(t *testing.T, apiKey string) (*httptest.Server, *job.Store) {
	t.Helper()
	repo, err := repositoryimpl.NewSnapshotRepository(storage.NewMemoryStorage(), "jobflow-state", repositoryimpl.FormatJSON)
	require.NoError(t, err)
	bus := eventbus.New()
	mem := storage.NewMemoryStorage()
	journal := eventbus.NewJournal(mem, "activity")
	subID, events := bus.Subscribe(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		journal.Consume(context.Background(), events)
	}()
	t.Cleanup(func() {
		bus.Unsubscribe(subID)
		<-done
	})
	store := job.NewStore(context.Background(), repo, person.DemoRoster(),
		job.WithClock(func() time.Time { return now }),
		job.WithIDFunc(seqIDs()),
		job.WithPublisher(bus),
	)
	env := &config.Env{BaseEnv: config.BaseEnv{APIKey: apiKey}}
	ts := httptest.NewServer(NewServer(env, store, bus, journal).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, "secret")
	resp, _ := do(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIKey(t *testing.T) {
	ts, _ := newTestServer(t, "secret")

	resp, _ := do(t, ts, http.MethodGet, "/api/people", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for _, header := range [][2]string{{"X-API-Key", "secret"}, {"Authorization", "Bearer secret"}} {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/people", nil)
		require.NoError(t, err)
		req.Header.Set(header[0], header[1])
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, header[0])
	}
}

func TestListPeople(t *testing.T) {
	ts, _ := newTestServer(t, "")
	resp, data := do(t, ts, http.MethodGet, "/api/people", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	people := decode[[]person.Person](t, data)
	require.Len(t, people, 6)
	assert.Equal(t, "Feras Shoujah", people[0].Name)
}

func TestGetBoard(t *testing.T) {
	ts, _ := newTestServer(t, "")
	resp, data := do(t, ts, http.MethodGet, "/api/board", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	board := decode[boardResponse](t, data)
	require.Len(t, board.Columns, 4)
	assert.Equal(t, job.StatusBacklog, board.Columns[0].Status)
	require.Len(t, board.Columns[0].Jobs, 1)
	assert.Equal(t, "id-5", board.Columns[0].Jobs[0].ID)
	require.Len(t, board.Columns[1].Jobs, 1)
	assert.Equal(t, "id-1", board.Columns[1].Jobs[0].ID)
	assert.Empty(t, board.Columns[2].Jobs)
	assert.Empty(t, board.Columns[3].Jobs)

	resp, data = do(t, ts, http.MethodGet, "/api/board?q=fakieh&assignee=p6", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board = decode[boardResponse](t, data)
	assert.Equal(t, "fakieh", board.Filter.Query)
	assert.Empty(t, board.Columns[1].Jobs)
	assert.Len(t, board.Columns[0].Jobs, 1)

	resp, data = do(t, ts, http.MethodGet, "/api/board?today=maybe", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	eb := decode[errorBody](t, data)
	assert.Equal(t, "InvalidArgument", eb.Code)
	require.Len(t, eb.Details, 1)
	assert.Equal(t, "today", eb.Details[0].Field)
}

func TestJobLifecycle(t *testing.T) {
	ts, store := newTestServer(t, "")

	resp, data := do(t, ts, http.MethodPost, "/api/jobs", `{"title":"Ramadan campaign","client":"Almarai","assigneeIds":["p2"]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	created := decode[job.Job](t, data)
	assert.Equal(t, "id-8", created.ID)
	assert.Equal(t, job.StatusBacklog, created.Status)
	assert.Equal(t, job.PriorityMedium, created.Priority)
	assert.Equal(t, "id-8", store.Jobs()[0].ID)

	resp, data = do(t, ts, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[jobsResponse](t, data)
	assert.Equal(t, []string{"id-1", "id-5", "id-8"}, jobIDs(list.Jobs))

	resp, data = do(t, ts, http.MethodPatch, "/api/jobs/id-8", `{"priority":"Urgent","description":"Iftar spots"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	updated := decode[job.Job](t, data)
	assert.Equal(t, job.PriorityUrgent, updated.Priority)
	assert.Equal(t, "Iftar spots", updated.Description)

	resp, data = do(t, ts, http.MethodPut, "/api/jobs/id-8/status", `{"status":"Review"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, job.StatusReview, decode[job.Job](t, data).Status)

	resp, data = do(t, ts, http.MethodPut, "/api/jobs/id-8/assignees/p3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, []string{"p2", "p3"}, decode[job.Job](t, data).AssigneeIDs)

	resp, data = do(t, ts, http.MethodDelete, "/api/jobs/id-8/assignees/p2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, []string{"p3"}, decode[job.Job](t, data).AssigneeIDs)

	resp, data = do(t, ts, http.MethodGet, "/api/jobs/id-8", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[job.Job](t, data)
	assert.Equal(t, "Ramadan campaign", got.Title)
	assert.Equal(t, job.StatusReview, got.Status)

	resp, _ = do(t, ts, http.MethodDelete, "/api/jobs/id-8", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = do(t, ts, http.MethodGet, "/api/jobs/id-8", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", decode[errorBody](t, data).Code)
}

func TestCreateJob_Invalid(t *testing.T) {
	ts, store := newTestServer(t, "")

	resp, data := do(t, ts, http.MethodPost, "/api/jobs", `{"title":"","client":"Acme","ownerId":"p42"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	eb := decode[errorBody](t, data)
	assert.Equal(t, "InvalidArgument", eb.Code)
	var fields []string
	for _, d := range eb.Details {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"title", "ownerId"}, fields)

	resp, _ = do(t, ts, http.MethodPost, "/api/jobs", `{"title":"T","client":"C","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodPost, "/api/jobs", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodPut, "/api/jobs/id-1/status", `{"status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodPut, "/api/jobs/id-1/assignees/ghost", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Len(t, store.Jobs(), 2)
}

func TestTaskLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, data := do(t, ts, http.MethodPost, "/api/jobs/id-5/tasks", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	task := decode[job.Task](t, data)
	assert.Equal(t, "id-8", task.ID)
	assert.Equal(t, job.NewTaskTitle, task.Title)

	resp, data = do(t, ts, http.MethodPatch, "/api/jobs/id-5/tasks/id-8", `{"title":"Print proofs","done":true,"assigneeId":"p6"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	task = decode[job.Task](t, data)
	assert.Equal(t, "Print proofs", task.Title)
	assert.True(t, task.Done)

	resp, _ = do(t, ts, http.MethodPatch, "/api/jobs/id-5/tasks/id-8", `{"assigneeId":"ghost"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodDelete, "/api/jobs/id-5/tasks/id-8", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodDelete, "/api/jobs/id-5/tasks/id-8", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = do(t, ts, http.MethodGet, "/api/jobs/id-5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[job.Job](t, data).Tasks, 2)
}

func TestTaskLifecycle_SeedJob(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, data := do(t, ts, http.MethodPost, "/api/jobs/id-1/tasks", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	added := decode[job.Task](t, data)

	resp, data = do(t, ts, http.MethodPatch, "/api/jobs/id-1/tasks/"+added.ID, `{"title":"Review brief","assigneeId":"p2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, _ = do(t, ts, http.MethodDelete, "/api/jobs/id-1/tasks/id-3", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = do(t, ts, http.MethodGet, "/api/jobs/id-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[job.Job](t, data)
	require.Len(t, got.Tasks, 3)
	var ids []string
	for _, task := range got.Tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"id-2", "id-4", added.ID}, ids)
	assert.Equal(t, "Review brief", got.Tasks[2].Title)
	assert.Equal(t, "p2", got.Tasks[2].AssigneeID)
}

func TestGetCalendar(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, data := do(t, ts, http.MethodGet, "/api/calendar", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cal := decode[calendarResponse](t, data)
	assert.Equal(t, 2025, cal.Year)
	assert.Equal(t, 3, cal.Month)
	assert.Equal(t, []string{"id-1", "id-5"}, jobIDs(cal.Jobs))

	resp, data = do(t, ts, http.MethodGet, "/api/calendar?offset=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cal = decode[calendarResponse](t, data)
	assert.Equal(t, 4, cal.Month)
	assert.Empty(t, cal.Jobs)

	// Same month of another year shows nothing.
	resp, data = do(t, ts, http.MethodGet, "/api/calendar?year=2024&month=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[calendarResponse](t, data).Jobs)

	resp, _ = do(t, ts, http.MethodGet, "/api/calendar?year=2025&month=13", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListReminders(t *testing.T) {
	ts, store := newTestServer(t, "")
	ctx := context.Background()
	today := now.Add(2 * time.Hour)
	_, err := store.UpdateTask(ctx, "id-5", "id-6", job.TaskPatch{DueDate: &today})
	require.NoError(t, err)

	resp, data := do(t, ts, http.MethodGet, "/api/reminders?q=indomie", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rs := decode[remindersResponse](t, data)
	require.Len(t, rs.Reminders, 1)
	assert.Equal(t, "id-5", rs.Reminders[0].Job.ID)
	assert.Equal(t, "id-6", rs.Reminders[0].Task.ID)
}

func TestUnknownRoute(t *testing.T) {
	ts, _ := newTestServer(t, "")
	resp, data := do(t, ts, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", decode[errorBody](t, data).Code)
}

func TestStreamEvents(t *testing.T) {
	ts, store := newTestServer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events?type=job.status_changed", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	_, err = store.AddTask(ctx, "id-1")
	require.NoError(t, err)
	_, err = store.MoveStatus(ctx, "id-1", job.StatusDone)
	require.NoError(t, err)

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimSuffix(line, "\n"))
	}
	assert.True(t, strings.HasPrefix(lines[0], "id: "))
	assert.Equal(t, "event: job.status_changed", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "data: "))

	var ev eventbus.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &ev))
	assert.Equal(t, "id-1", ev.ResourceID)
	assert.Equal(t, "Done", ev.Metadata["to"])
}

func TestListActivity(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, data := do(t, ts, http.MethodGet, "/api/activity?date=2025-03-10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	act := decode[activityResponse](t, data)
	assert.Equal(t, "2025-03-10", act.Date)
	assert.Empty(t, act.Events)

	resp, _ = do(t, ts, http.MethodGet, "/api/activity?date=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListActivityDays(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, data := do(t, ts, http.MethodGet, "/api/activity/days", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[activityDaysResponse](t, data).Days)

	resp, _ = do(t, ts, http.MethodPut, "/api/jobs/id-1/status", `{"status":"Done"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The journal records asynchronously.
	assert.Eventually(t, func() bool {
		_, data := do(t, ts, http.MethodGet, "/api/activity/days", "")
		var body activityDaysResponse
		if err := json.Unmarshal(data, &body); err != nil {
			return false
		}
		return len(body.Days) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func jobIDs(jobs []*job.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}
