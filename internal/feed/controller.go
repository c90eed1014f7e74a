package feed

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"annboard/announcements/internal/models"
)

const (
	alertTitle   = "Error"
	alertMessage = "Failed to load announcements. Please try again."

	// DefaultRefreshInterval between background refreshes.
	DefaultRefreshInterval = 60 * time.Second
)

// Fetcher retrieves the current set of announcements from the remote
// source. Client satisfies this; tests substitute their own.
type Fetcher interface {
	FetchAnnouncements(ctx context.Context) ([]models.Announcement, error)
}

// Alerter receives the blocking user-facing alert raised when a
// non-refresh fetch fails. The rendering collaborator decides how to
// present it.
type Alerter interface {
	Alert(title, message string)
}

// AlertFunc adapts a plain function to the Alerter interface.
type AlertFunc func(title, message string)

func (f AlertFunc) Alert(title, message string) {
	f(title, message)
}

type nopAlerter struct{}

func (nopAlerter) Alert(string, string) {}

// State is a point-in-time copy of the controller's feed state, safe
// for the caller to read and serialize without further locking.
type State struct {
	Items        []models.Announcement
	IsLoading    bool
	IsRefreshing bool
	LastError    string
	Expanded     map[int]bool
	Generation   uint64
}

// IsExpanded reports whether the row at index has its detail expanded.
func (s State) IsExpanded(index int) bool {
	return s.Expanded[index]
}

// ExpandedIndices returns the expanded row positions in ascending order.
func (s State) ExpandedIndices() []int {
	indices := lo.Keys(s.Expanded)
	sort.Ints(indices)
	return indices
}

// ControllerConfig holds the knobs for the feed controller.
type ControllerConfig struct {
	// RefreshInterval between background refreshes. Defaults to
	// DefaultRefreshInterval when zero.
	RefreshInterval time.Duration

	// Alerter receives blocking alerts from failed non-refresh fetches.
	// Optional; nil means alerts are dropped.
	Alerter Alerter
}

// Controller owns all mutable feed state and is the single entry point
// for every operation that touches it: initial load, background and
// manual refreshes, and expansion toggling. Overlapping fetches are
// allowed; whichever completes last wins the items/lastError write.
type Controller struct {
	fetcher  Fetcher
	alerter  Alerter
	interval time.Duration

	mu           sync.Mutex
	items        []models.Announcement
	isLoading    bool
	isRefreshing bool
	lastError    string
	expanded     map[int]bool
	generation   uint64
	closed       bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewController creates a feed controller around the given fetcher.
func NewController(fetcher Fetcher, cfg ControllerConfig) *Controller {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	alerter := cfg.Alerter
	if alerter == nil {
		alerter = nopAlerter{}
	}

	return &Controller{
		fetcher:  fetcher,
		alerter:  alerter,
		interval: interval,
		expanded: make(map[int]bool),
		done:     make(chan struct{}),
	}
}

// Start performs the initial load and arms the background refresh loop.
// The loop runs until Stop is called or ctx is cancelled.
func (c *Controller) Start(ctx context.Context) {
	if err := c.Fetch(ctx, false); err != nil {
		log.Warn().Err(err).Msg("Initial announcements load failed")
	}

	c.wg.Add(1)
	go c.refreshLoop(ctx)
}

// Stop tears the controller down: the refresh loop exits and any fetch
// still in flight has its result discarded when it lands.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
	c.wg.Wait()
}

// Refresh performs a user-triggered refresh, as from a pull-to-refresh
// gesture.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.Fetch(ctx, true)
}

// Fetch retrieves the announcements document and reconciles the result
// into the feed state. isRefresh selects which in-flight flag the
// attempt raises and whether a failure surfaces a blocking alert
// (non-refresh) or only the persistent error banner (refresh). On
// failure the previously loaded items are preserved. Both flags are
// cleared when the attempt settles, whichever exit path it took.
func (c *Controller) Fetch(ctx context.Context, isRefresh bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if isRefresh {
		c.isRefreshing = true
	} else {
		c.isLoading = true
	}
	c.lastError = ""
	c.mu.Unlock()

	items, err := c.fetcher.FetchAnnouncements(ctx)

	c.mu.Lock()
	c.isLoading = false
	c.isRefreshing = false
	if c.closed {
		// Torn down while the request was in flight; drop the result.
		c.mu.Unlock()
		return err
	}
	c.generation++

	var raiseAlert bool
	if err != nil {
		c.lastError = err.Error()
		raiseAlert = !isRefresh
		log.Warn().
			Err(err).
			Bool("is_refresh", isRefresh).
			Int("retained_items", len(c.items)).
			Msg("Announcements fetch failed, keeping previous items")
	} else {
		c.items = items
		log.Info().
			Int("items", len(items)).
			Bool("is_refresh", isRefresh).
			Uint64("generation", c.generation).
			Msg("Announcements updated")
	}
	c.mu.Unlock()

	// Alert outside the lock; the collaborator may block on the user.
	if raiseAlert {
		c.alerter.Alert(alertTitle, alertMessage)
	}
	return err
}

// ToggleExpansion flips whether the row at index shows its detail.
// Indices are positional; no bounds check is performed, a stale index
// simply never matches a rendered row.
func (c *Controller) ToggleExpansion(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expanded[index] {
		delete(c.expanded, index)
	} else {
		c.expanded[index] = true
	}
}

// Snapshot returns a copy of the current feed state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Items:        append([]models.Announcement(nil), c.items...),
		IsLoading:    c.isLoading,
		IsRefreshing: c.isRefreshing,
		LastError:    c.lastError,
		Expanded:     maps.Clone(c.expanded),
		Generation:   c.generation,
	}
}

// refreshLoop fires a background refresh every interval until teardown.
func (c *Controller) refreshLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Fetch(ctx, true); err != nil {
				log.Debug().Err(err).Msg("Background refresh failed")
			}
		case <-c.done:
			log.Debug().Msg("Refresh loop exiting")
			return
		case <-ctx.Done():
			log.Debug().Err(ctx.Err()).Msg("Refresh loop cancelled")
			return
		}
	}
}
