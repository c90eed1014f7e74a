package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annboard/announcements/internal/feed"
	"annboard/announcements/internal/models"
	"annboard/announcements/internal/server/api"
)

type fetcherFunc func(ctx context.Context) ([]models.Announcement, error)

func (f fetcherFunc) FetchAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	return f(ctx)
}

func newTestMux(h *api.AnnouncementsHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/announcements", h.GetAnnouncements)
	mux.HandleFunc("POST /v1/refresh", h.Refresh)
	mux.HandleFunc("POST /v1/reload", h.Reload)
	mux.HandleFunc("POST /v1/announcements/{index}/toggle", h.Toggle)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path string) (*httptest.ResponseRecorder, api.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var response api.Response
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	}
	return rec, response
}

func TestGetAnnouncementsRendersState(t *testing.T) {
	summary := "Maintenance window"
	priority := "HIGH"
	ctrl := feed.NewController(fetcherFunc(func(context.Context) ([]models.Announcement, error) {
		return []models.Announcement{
			{Summary: &summary, Priority: &priority},
			{Description: &summary},
		}, nil
	}), feed.ControllerConfig{})
	require.NoError(t, ctrl.Fetch(context.Background(), false))
	ctrl.ToggleExpansion(0)

	mux := newTestMux(api.NewAnnouncementsHandler(ctrl, nil))
	rec, response := doRequest(t, mux, http.MethodGet, "/v1/announcements")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, response.Items, 2)

	first := response.Items[0]
	assert.Equal(t, "Maintenance window", first.Summary)
	assert.Equal(t, "high", first.Priority)
	assert.Equal(t, feed.StyleFor("high"), first.Style)
	assert.True(t, first.Expanded)

	// Absent fields get their render-time defaults; absent priority
	// styles with the neutral bucket, not the explicit "low" one.
	second := response.Items[1]
	assert.Equal(t, models.PlaceholderSummary, second.Summary)
	assert.Equal(t, models.DefaultPriority, second.Priority)
	assert.Equal(t, feed.StyleFor(""), second.Style)
	assert.NotEqual(t, feed.StyleFor("low"), second.Style)
	assert.False(t, second.Expanded)

	assert.False(t, response.IsLoading)
	assert.False(t, response.IsRefreshing)
	assert.Empty(t, response.LastError)
	assert.Nil(t, response.Alert)
	assert.WithinDuration(t, time.Now(), response.LastUpdated, 5*time.Second)
}

func TestRefreshFailureKeepsItemsAndStaysSilent(t *testing.T) {
	var fail atomic.Bool
	alerts := &api.AlertRecorder{}
	ctrl := feed.NewController(fetcherFunc(func(context.Context) ([]models.Announcement, error) {
		if fail.Load() {
			return nil, &feed.HTTPStatusError{StatusCode: http.StatusBadGateway}
		}
		summary := "A"
		return []models.Announcement{{Summary: &summary}}, nil
	}), feed.ControllerConfig{Alerter: alerts})
	require.NoError(t, ctrl.Fetch(context.Background(), false))

	fail.Store(true)
	mux := newTestMux(api.NewAnnouncementsHandler(ctrl, alerts))
	rec, response := doRequest(t, mux, http.MethodPost, "/v1/refresh")

	// Not an HTTP error: stale-but-available data beats a blank screen.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, response.Items, 1)
	assert.Contains(t, response.LastError, "502")
	assert.Nil(t, response.Alert)
}

func TestReloadFailureCarriesAlert(t *testing.T) {
	alerts := &api.AlertRecorder{}
	ctrl := feed.NewController(fetcherFunc(func(context.Context) ([]models.Announcement, error) {
		return nil, &feed.HTTPStatusError{StatusCode: http.StatusInternalServerError}
	}), feed.ControllerConfig{Alerter: alerts})

	mux := newTestMux(api.NewAnnouncementsHandler(ctrl, alerts))
	rec, response := doRequest(t, mux, http.MethodPost, "/v1/reload")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, response.Alert)
	assert.Equal(t, "Error", response.Alert.Title)
	assert.Equal(t, "Failed to load announcements. Please try again.", response.Alert.Message)
	assert.Contains(t, response.LastError, "500")

	// The alert is handed over once, then cleared.
	_, response = doRequest(t, mux, http.MethodGet, "/v1/announcements")
	assert.Nil(t, response.Alert)
}

func TestToggleEndpoint(t *testing.T) {
	summary := "A"
	ctrl := feed.NewController(fetcherFunc(func(context.Context) ([]models.Announcement, error) {
		return []models.Announcement{{Summary: &summary}, {Summary: &summary}}, nil
	}), feed.ControllerConfig{})
	require.NoError(t, ctrl.Fetch(context.Background(), false))

	mux := newTestMux(api.NewAnnouncementsHandler(ctrl, nil))

	rec, response := doRequest(t, mux, http.MethodPost, "/v1/announcements/1/toggle")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, response.Items, 2)
	assert.False(t, response.Items[0].Expanded)
	assert.True(t, response.Items[1].Expanded)

	rec, response = doRequest(t, mux, http.MethodPost, "/v1/announcements/1/toggle")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, response.Items[1].Expanded)
}

func TestToggleRejectsNonNumericIndex(t *testing.T) {
	ctrl := feed.NewController(fetcherFunc(func(context.Context) ([]models.Announcement, error) {
		return nil, nil
	}), feed.ControllerConfig{})

	mux := newTestMux(api.NewAnnouncementsHandler(ctrl, nil))
	rec, _ := doRequest(t, mux, http.MethodPost, "/v1/announcements/abc/toggle")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
