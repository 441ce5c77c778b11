package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kazz187/jobflow/internal/eventbus"
	"github.com/kazz187/jobflow/pkg/cerr"
)

const eventBufferSize = 64

// streamEvents relays store changes as server-sent events. Repeated "type"
// query parameters restrict the stream to those event types.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unimplemented, "streaming unsupported", nil)
		return
	}

	typeFilter := make(map[eventbus.EventType]struct{})
	for _, t := range r.URL.Query()["type"] {
		typeFilter[eventbus.EventType(t)] = struct{}{}
	}

	subID, ch := s.bus.Subscribe(eventBufferSize)
	slog.DebugContext(ctx, "event stream opened", "subscription_id", subID, "subscribers", s.bus.SubscriberCount())
	defer func() {
		s.bus.Unsubscribe(subID)
		slog.DebugContext(ctx, "event stream closed", "subscription_id", subID, "subscribers", s.bus.SubscriberCount())
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if len(typeFilter) > 0 {
				if _, match := typeFilter[event.Type]; !match {
					continue
				}
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal event", "error", err, "event_id", event.ID)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

type activityResponse struct {
	Date   string            `json:"date"`
	Events []*eventbus.Event `json:"events"`
}

// listActivity returns the journal of one UTC day, today by default.
func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	day := s.store.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			cerr.SetJSONError(ctx, invalidParam("date", v))
			return
		}
		day = parsed
	}
	events, err := s.journal.Day(ctx, day)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Unavailable, "storage unavailable", err)
		return
	}
	cerr.SetJSONResponse(ctx, activityResponse{Date: day.UTC().Format(time.DateOnly), Events: events})
}

type activityDaysResponse struct {
	Days []string `json:"days"`
}

func (s *Server) listActivityDays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days, err := s.journal.Days(ctx)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Unavailable, "storage unavailable", err)
		return
	}
	resp := activityDaysResponse{Days: make([]string, len(days))}
	for i, day := range days {
		resp.Days[i] = day.Format(time.DateOnly)
	}
	cerr.SetJSONResponse(ctx, resp)
}
