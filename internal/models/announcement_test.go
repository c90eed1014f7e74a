package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annboard/announcements/internal/models"
)

func rawArray(t *testing.T, doc string) []json.RawMessage {
	t.Helper()
	var elems []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(doc), &elems))
	return elems
}

func TestFilterValid(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantCount int
	}{
		{
			name:      "empty array",
			doc:       `[]`,
			wantCount: 0,
		},
		{
			name:      "summary only",
			doc:       `[{"summary":"A"}]`,
			wantCount: 1,
		},
		{
			name:      "description only",
			doc:       `[{"description":"B"}]`,
			wantCount: 1,
		},
		{
			name:      "both fields",
			doc:       `[{"summary":"A","description":"B"}]`,
			wantCount: 1,
		},
		{
			name:      "neither field",
			doc:       `[{"bogus":1}]`,
			wantCount: 0,
		},
		{
			name:      "null element",
			doc:       `[null]`,
			wantCount: 0,
		},
		{
			name:      "scalar elements",
			doc:       `[1,"text",true]`,
			wantCount: 0,
		},
		{
			name:      "non-string summary",
			doc:       `[{"summary":42}]`,
			wantCount: 0,
		},
		{
			name:      "non-string summary with string description",
			doc:       `[{"summary":42,"description":"still fine"}]`,
			wantCount: 1,
		},
		{
			name:      "mixed keeps valid in order",
			doc:       `[{"summary":"first"},{"bogus":1},{"description":"second"},null]`,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := models.FilterValid(rawArray(t, tt.doc))
			assert.Len(t, items, tt.wantCount)
		})
	}
}

func TestFilterValidPreservesOrderAndFields(t *testing.T) {
	doc := `[{"summary":"A","priority":"high"},{"bogus":1},{"description":"B"}]`

	items := models.FilterValid(rawArray(t, doc))
	require.Len(t, items, 2)

	require.NotNil(t, items[0].Summary)
	assert.Equal(t, "A", *items[0].Summary)
	require.NotNil(t, items[0].Priority)
	assert.Equal(t, "high", *items[0].Priority)
	assert.Nil(t, items[0].Description)

	assert.Nil(t, items[1].Summary)
	require.NotNil(t, items[1].Description)
	assert.Equal(t, "B", *items[1].Description)
	assert.Nil(t, items[1].Priority)
}

func TestFilterValidIgnoresExtraFields(t *testing.T) {
	doc := `[{"summary":"A","author":"ops","pinned":true}]`

	items := models.FilterValid(rawArray(t, doc))
	require.Len(t, items, 1)
	assert.Equal(t, "A", *items[0].Summary)
}

func TestFilterValidDropsNonStringPriority(t *testing.T) {
	doc := `[{"summary":"A","priority":7}]`

	items := models.FilterValid(rawArray(t, doc))
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Priority)
	assert.Equal(t, models.DefaultPriority, items[0].DisplayPriority())
}

func TestDisplayDefaults(t *testing.T) {
	summary := "Scheduled maintenance"
	description := "Expect downtime on Saturday"
	priority := "HIGH"

	tests := []struct {
		name            string
		item            models.Announcement
		wantSummary     string
		wantDescription string
		wantPriority    string
	}{
		{
			name:            "all fields absent",
			item:            models.Announcement{},
			wantSummary:     models.PlaceholderSummary,
			wantDescription: models.PlaceholderDescription,
			wantPriority:    models.DefaultPriority,
		},
		{
			name: "all fields present",
			item: models.Announcement{
				Summary:     &summary,
				Description: &description,
				Priority:    &priority,
			},
			wantSummary:     summary,
			wantDescription: description,
			wantPriority:    "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSummary, tt.item.DisplaySummary())
			assert.Equal(t, tt.wantDescription, tt.item.DisplayDescription())
			assert.Equal(t, tt.wantPriority, tt.item.DisplayPriority())
		})
	}
}
