package app

import (
	"encoding/json"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/maxaizer/medhire/internal/realtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultNotificationsLimit = 50
	maxNotificationsLimit     = 200
)

type notificationView struct {
	ID        int64             `json:"id"`
	Kind      string            `json:"kind"`
	Template  string            `json:"template"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Payload   map[string]string `json:"payload,omitempty"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Handler serves metrics, the realtime channel and the notification inbox.
// Callers are identified by the header set by the upstream auth proxy.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /notifications/ws", a.hub)
	mux.HandleFunc("GET /notifications", a.listNotifications)
	mux.HandleFunc("POST /notifications/{id}/read", a.markNotificationRead)
	return mux
}

func (a *App) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	limit := defaultNotificationsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxNotificationsLimit)
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := a.Notifications.ListForUser(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list notifications: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, toView(n))
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(views); err != nil {
		log.Debugf("failed to write notifications response: %v", err)
	}
}

func (a *App) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	marked, err := a.Notifications.MarkRead(r.Context(), userID, id)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to mark notification %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !marked {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func authenticatedUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.Header.Get(realtime.UserIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func toView(n models.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Template:  n.Template,
		Title:     n.Title,
		Body:      n.Body,
		Payload:   n.Payload,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
