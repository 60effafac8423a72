package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/docshelfhq/docshelf/internal/events"
)

const eventPingInterval = 30 * time.Second

// handleEvents upgrades the connection to WebSocket and streams the
// requesting tenant's events. The upgrade path bypasses the okapi middleware
// chain, so the key check and tenant resolution are repeated here; the
// subscription is keyed on the resolved tenant and never sees another
// tenant's events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "event stream not enabled", http.StatusNotFound)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if strings.HasPrefix(token, "Bearer ") {
			token = strings.TrimPrefix(token, "Bearer ")
		}
	}
	if s.config.APIKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.config.APIKey)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug := tenantSlug(r)
	if slug == "" {
		http.Error(w, "tenant not specified", http.StatusBadRequest)
		return
	}
	tn, err := s.store.Tenants().GetBySlug(r.Context(), slug)
	if err != nil {
		if isNotFound(err) {
			http.Error(w, "unknown tenant", http.StatusNotFound)
			return
		}
		s.logger.Error("tenant resolution failed", slog.String("slug", slug), slog.String("error", err.Error()))
		http.Error(w, "tenant resolution failed", http.StatusInternalServerError)
		return
	}
	if !tn.Active {
		http.Error(w, "tenant deactivated", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"docshelf-events-v1"},
	})
	if err != nil {
		s.logger.Error("websocket accept failed", slog.String("error", err.Error()))
		return
	}

	s.streamEvents(r.Context(), conn, tn.ID, tn.Slug)
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, tenantID uuid.UUID, slug string) {
	defer conn.Close(websocket.StatusNormalClosure, "connection closed")

	ch, cancel := s.hub.Subscribe(tenantID)
	defer cancel()

	s.logger.Info("event subscriber connected", slog.String("tenant", slug))

	// Drain client frames so pongs and close frames are processed. The
	// stream is server-to-client only.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			s.logger.Info("event subscriber disconnected", slog.String("tenant", slug))
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := s.writeEvent(ctx, conn, e); err != nil {
				s.logger.Debug("event write failed",
					slog.String("tenant", slug),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}
}

func (s *Server) writeEvent(ctx context.Context, conn *websocket.Conn, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
