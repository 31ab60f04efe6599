package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/taskhive/server/internal/module/task"
)

// Format is an export output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Valid returns true if the format is supported.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatJSON
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Result is a rendered export.
type Result struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service renders task exports.
type Service struct {
	tasks  *task.Service
	logger *zap.Logger
}

// NewService creates a new export service.
func NewService(tasks *task.Service, logger *zap.Logger) *Service {
	return &Service{tasks: tasks, logger: logger}
}

// Tasks exports the tasks visible to the actor in the given format.
// The file name carries a timestamp so repeated exports do not collide.
func (s *Service) Tasks(ctx context.Context, actor task.Actor, filter *task.Filter, format Format) (*Result, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	// Exports are unpaginated; fetch everything the filter matches.
	tasks, _, err := s.tasks.List(ctx, actor, filter, nil)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case FormatCSV:
		data, err = renderCSV(tasks)
	case FormatJSON:
		data, err = renderJSON(tasks)
	}
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("tasks_%s.%s", time.Now().Format("20060102_150405"), format)

	s.logger.Info("tasks exported",
		zap.Int64("user_id", actor.ID),
		zap.String("format", string(format)),
		zap.Int("count", len(tasks)),
	)

	return &Result{
		FileName:    fileName,
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

var csvHeader = []string{
	"id", "title", "description", "priority", "status", "category",
	"estimated_hours", "actual_hours", "progress_percent",
	"due_date", "started_at", "completed_at",
	"owner_id", "assignee_id", "team_id", "is_overdue", "created_at",
}

func renderCSV(tasks []*task.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, t := range tasks {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Description,
			string(t.Priority),
			string(t.Status),
			string(t.Category),
			formatFloat(t.EstimatedHours),
			formatFloat(t.ActualHours),
			strconv.Itoa(t.ProgressPercent),
			formatTime(t.DueDate),
			formatTime(t.StartedAt),
			formatTime(t.CompletedAt),
			strconv.FormatInt(t.OwnerID, 10),
			formatInt(t.AssigneeID),
			formatInt(t.TeamID),
			strconv.FormatBool(t.IsOverdue()),
			t.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderJSON(tasks []*task.Task) ([]byte, error) {
	responses := make([]*task.Response, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, t.ToResponse())
	}
	return json.MarshalIndent(responses, "", "  ")
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
