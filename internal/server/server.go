package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/jobflow/internal/config"
	"github.com/kazz187/jobflow/internal/eventbus"
	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/pkg/cerr"
	"github.com/kazz187/jobflow/pkg/clog"
)

type Server struct {
	mu      sync.Mutex
	server  *http.Server
	closed  bool
	env     *config.Env
	store   *job.Store
	bus     *eventbus.Bus
	journal *eventbus.Journal
}

func NewServer(env *config.Env, store *job.Store, bus *eventbus.Bus, journal *eventbus.Journal) *Server {
	return &Server{
		env:     env,
		store:   store,
		bus:     bus,
		journal: journal,
	}
}

// Handler builds the full HTTP handler chain: h2c, CORS, API key check and
// the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", healthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(
				clog.WithChiSkip(func(r *http.Request) bool {
					// Event streams stay open for the whole session.
					return r.URL.Path == "/api/events"
				}),
				clog.WithChiRouteParams(map[string]string{
					"jobID":    "job_id",
					"taskID":   "task_id",
					"personID": "person_id",
				}),
			),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.Unimplemented, "method not allowed", nil)
		})

		r.Get("/people", s.listPeople)
		r.Get("/board", s.getBoard)
		r.Get("/calendar", s.getCalendar)
		r.Get("/reminders", s.listReminders)
		r.Get("/events", s.streamEvents)
		r.Get("/activity", s.listActivity)
		r.Get("/activity/days", s.listActivityDays)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.listJobs)
			r.Post("/", s.createJob)
			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", s.getJob)
				r.Patch("/", s.updateJob)
				r.Delete("/", s.deleteJob)
				r.Put("/status", s.moveStatus)
				r.Put("/assignees/{personID}", s.setAssignee(true))
				r.Delete("/assignees/{personID}", s.setAssignee(false))
				r.Post("/tasks", s.addTask)
				r.Patch("/tasks/{taskID}", s.updateTask)
				r.Delete("/tasks/{taskID}", s.removeTask)
			})
		})
	})

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(r)), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it also ends open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	s.server = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

// Shutdown stops a running server; a server that has not started yet will
// refuse to start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.env.APIKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.env.APIKey)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
