package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/job-board-client/internal/broadcast"
	"github.com/jonathan/job-board-client/internal/session"
)

// keepAliveInterval spaces comment lines that keep idle streams open through proxies.
const keepAliveInterval = 25 * time.Second

// eventBuffer is how many undelivered session events a slow stream may hold.
const eventBuffer = 16

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteComment sends a comment line, ignored by EventSource clients.
func (s *SSEWriter) WriteComment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// handleEvents streams the session events of the caller's profile, so a
// browser tab learns about logins and logouts made in its other tabs.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.transport == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "session events unavailable")
		return
	}

	profile := ProfileFromContext(r.Context())
	logger := s.logger.WithField("profile", profile)

	port, err := s.transport.Open(r.Context(), session.ProfileChannel(s.channel, profile))
	if err != nil {
		logger.WithError(err).Warn("failed to open session event channel")
		s.errorResponse(w, http.StatusServiceUnavailable, "session events unavailable")
		return
	}
	defer port.Close()

	events := make(chan broadcast.Event, eventBuffer)
	cancel := port.Listen(func(ev broadcast.Event) {
		select {
		case events <- ev:
		default:
			logger.WithField("type", ev.Type).Warn("event stream lagging, dropping event")
		}
	})
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent("ready", map[string]string{"port": port.ID()}); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := sse.WriteEvent(string(ev.Type), ev); err != nil {
				logger.WithError(err).Debug("event stream closed")
				return
			}
		case <-ticker.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}
