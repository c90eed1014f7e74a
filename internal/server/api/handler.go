package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/samber/lo"

	"annboard/announcements/internal/feed"
	"annboard/announcements/internal/models"
)

// FeedController is the slice of the feed controller the API needs.
type FeedController interface {
	Snapshot() feed.State
	Fetch(ctx context.Context, isRefresh bool) error
	ToggleExpansion(index int)
}

// RenderedItem is one announcement with render-time defaults and style
// roles applied, ready for a thin client to display verbatim.
type RenderedItem struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Style       feed.Style `json:"style"`
	Expanded    bool       `json:"expanded"`
}

// Alert mirrors the blocking alert a failed initial load raises.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Response is the rendered feed state returned by the API.
type Response struct {
	Items        []RenderedItem `json:"items"`
	IsLoading    bool           `json:"is_loading"`
	IsRefreshing bool           `json:"is_refreshing"`
	LastError    string         `json:"last_error,omitempty"`
	Generation   uint64         `json:"generation"`
	// LastUpdated is the wall-clock time of rendering, not of the last
	// successful fetch.
	LastUpdated time.Time `json:"last_updated"`
	Alert       *Alert    `json:"alert,omitempty"`
}

// AlertRecorder retains the most recent blocking alert so the API can
// hand it to the next reload caller. Implements feed.Alerter.
type AlertRecorder struct {
	mu   sync.Mutex
	last *Alert
}

func (r *AlertRecorder) Alert(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &Alert{Title: title, Message: message}
}

// Take returns the pending alert, if any, and clears it.
func (r *AlertRecorder) Take() *Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert := r.last
	r.last = nil
	return alert
}

// AnnouncementsHandler holds dependencies for the API handlers.
type AnnouncementsHandler struct {
	ctrl   FeedController
	alerts *AlertRecorder
}

// NewAnnouncementsHandler creates a new handler instance. alerts may be
// nil when no alert passthrough is wanted.
func NewAnnouncementsHandler(ctrl FeedController, alerts *AlertRecorder) *AnnouncementsHandler {
	return &AnnouncementsHandler{ctrl: ctrl, alerts: alerts}
}

// GetAnnouncements returns the rendered feed state.
func (h *AnnouncementsHandler) GetAnnouncements(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Processing announcements request")

	writeState(w, r, h.ctrl.Snapshot(), nil)
}

// Refresh triggers a user-style refresh and returns the resulting
// state. A failed refresh is not an HTTP error: the previous items are
// retained and the failure shows up in last_error only.
func (h *AnnouncementsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Manual refresh requested")

	if err := h.ctrl.Fetch(r.Context(), true); err != nil {
		log.Warn().Err(err).Msg("Manual refresh failed")
	}
	writeState(w, r, h.ctrl.Snapshot(), nil)
}

// Reload triggers a non-refresh fetch, the "tap retry" path. A failure
// raises a blocking alert, which is included in the response for the
// client to present.
func (h *AnnouncementsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Reload requested")

	if err := h.ctrl.Fetch(r.Context(), false); err != nil {
		log.Warn().Err(err).Msg("Reload failed")
	}

	var alert *Alert
	if h.alerts != nil {
		alert = h.alerts.Take()
	}
	writeState(w, r, h.ctrl.Snapshot(), alert)
}

// Toggle flips the expansion of the row named in the path.
func (h *AnnouncementsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		log.Warn().Str("index", r.PathValue("index")).Msg("Invalid toggle index")
		http.Error(w, "Invalid 'index' path parameter", http.StatusBadRequest)
		return
	}

	h.ctrl.ToggleExpansion(index)
	log.Debug().Int("index", index).Msg("Toggled announcement expansion")

	writeState(w, r, h.ctrl.Snapshot(), nil)
}

// renderItems applies render-time defaults and styling to a snapshot.
func renderItems(state feed.State) []RenderedItem {
	return lo.Map(state.Items, func(item models.Announcement, i int) RenderedItem {
		// Styling keys off the raw priority: an absent priority renders
		// as "low" but styles with the neutral default bucket.
		return RenderedItem{
			Summary:     item.DisplaySummary(),
			Description: item.DisplayDescription(),
			Priority:    item.DisplayPriority(),
			Style:       feed.StyleFor(lo.FromPtr(item.Priority)),
			Expanded:    state.IsExpanded(i),
		}
	})
}

func writeState(w http.ResponseWriter, r *http.Request, state feed.State, alert *Alert) {
	log := hlog.FromRequest(r)

	response := Response{
		Items:        renderItems(state),
		IsLoading:    state.IsLoading,
		IsRefreshing: state.IsRefreshing,
		LastError:    state.LastError,
		Generation:   state.Generation,
		LastUpdated:  time.Now(),
		Alert:        alert,
	}

	jsonBytes, err := json.Marshal(response)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, writeErr := w.Write(jsonBytes); writeErr != nil {
		log.Error().Err(writeErr).Msg("Error writing JSON response body to client")
	}
}
