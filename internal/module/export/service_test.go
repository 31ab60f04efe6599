package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/server/internal/module/task"
)

func sampleTasks() []*task.Task {
	hours := 4.5
	assignee := int64(7)
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	return []*task.Task{
		{
			ID:              1,
			Title:           "Fix login flow",
			Description:     "Session expires early",
			Priority:        task.PriorityHigh,
			Status:          task.StatusInProgress,
			Category:        task.CategoryBug,
			EstimatedHours:  &hours,
			ProgressPercent: 40,
			DueDate:         &due,
			OwnerID:         3,
			AssigneeID:      &assignee,
			CreatedAt:       time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:        2,
			Title:     "Write onboarding docs, \"quick start\"",
			Priority:  task.PriorityLow,
			Status:    task.StatusTodo,
			Category:  task.CategoryDocumentation,
			OwnerID:   3,
			CreatedAt: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestRenderCSV(t *testing.T) {
	data, err := renderCSV(sampleTasks())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "Fix login flow", records[1][1])
	assert.Equal(t, "high", records[1][3])
	assert.Equal(t, "4.5", records[1][6])
	assert.Equal(t, "7", records[1][13])

	// Quotes in titles must survive the round trip.
	assert.Equal(t, `Write onboarding docs, "quick start"`, records[2][1])
	// Empty optional fields render as empty strings, not zeros.
	assert.Equal(t, "", records[2][6])
	assert.Equal(t, "", records[2][13])
}

func TestRenderJSON(t *testing.T) {
	data, err := renderJSON(sampleTasks())
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "Fix login flow", decoded[0]["title"])
	assert.Equal(t, "in_progress", decoded[0]["status"])
	assert.NotContains(t, decoded[1], "assignee_id")
}

func TestFormat_Valid(t *testing.T) {
	assert.True(t, FormatCSV.Valid())
	assert.True(t, FormatJSON.Valid())
	assert.False(t, Format("xlsx").Valid())
	assert.False(t, Format("").Valid())
}
