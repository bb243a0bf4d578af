package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"taskxp/internal/models"
)

var csvHeader = []string{
	"ID", "Title", "Status", "Priority", "Category", "Due", "Completed",
	"Estimated (min)", "Actual (min)", "XP", "Tags", "Created",
}

// TasksCSV writes one row per task. Times are RFC 3339 in loc.
func TasksCSV(w io.Writer, tasks []models.Task, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		category := ""
		if t.Category != nil {
			category = t.Category.Name
		}
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			string(t.Status),
			string(t.Priority),
			category,
			formatTime(t.DueDate, loc),
			formatTime(t.CompletedAt, loc),
			formatInt(t.EstimatedDuration),
			formatInt(t.ActualDuration),
			strconv.Itoa(t.XPReward),
			strings.Join(t.Tags, ";"),
			t.CreatedAt.In(loc).Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write task %d: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
