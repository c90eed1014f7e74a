package models

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Placeholder text substituted at render time for absent fields.
// Stored announcements keep their original optional fields untouched.
const (
	PlaceholderSummary     = "No summary"
	PlaceholderDescription = "No description"
	DefaultPriority        = "low"
)

// Announcement represents one remote-sourced notice. All fields are
// optional on the wire; nil means the field was absent or not a string.
type Announcement struct {
	Summary     *string `json:"summary,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// rawAnnouncement defers field decoding so that one mistyped field
// (e.g. a numeric summary) does not discard the sibling fields.
type rawAnnouncement struct {
	Summary     json.RawMessage `json:"summary"`
	Description json.RawMessage `json:"description"`
	Priority    json.RawMessage `json:"priority"`
}

// DisplaySummary returns the summary or its render-time placeholder.
func (a Announcement) DisplaySummary() string {
	if a.Summary != nil {
		return *a.Summary
	}
	return PlaceholderSummary
}

// DisplayDescription returns the description or its render-time placeholder.
func (a Announcement) DisplayDescription() string {
	if a.Description != nil {
		return *a.Description
	}
	return PlaceholderDescription
}

// DisplayPriority returns the lower-cased priority, defaulting to "low"
// when the field is absent.
func (a Announcement) DisplayPriority() string {
	if a.Priority != nil {
		return strings.ToLower(*a.Priority)
	}
	return DefaultPriority
}

// FilterValid decodes the raw array elements and keeps only the ones
// carrying a string summary or a string description, preserving order.
// Everything else (nulls, scalars, objects without either field) is
// dropped silently.
func FilterValid(elems []json.RawMessage) []Announcement {
	items := lo.FilterMap(elems, func(elem json.RawMessage, _ int) (Announcement, bool) {
		return decodeElement(elem)
	})

	if dropped := len(elems) - len(items); dropped > 0 {
		log.Debug().
			Int("dropped", dropped).
			Int("kept", len(items)).
			Msg("Discarded malformed announcement elements")
	}
	return items
}

// decodeElement converts one raw array element into an Announcement.
// The second return value reports whether the element qualifies.
func decodeElement(elem json.RawMessage) (Announcement, bool) {
	var raw rawAnnouncement
	if err := json.Unmarshal(elem, &raw); err != nil {
		return Announcement{}, false
	}

	ann := Announcement{
		Summary:     decodeString(raw.Summary),
		Description: decodeString(raw.Description),
		Priority:    decodeString(raw.Priority),
	}

	if ann.Summary == nil && ann.Description == nil {
		return Announcement{}, false
	}
	return ann, true
}

// decodeString returns the value if raw holds a JSON string, nil otherwise.
func decodeString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}
