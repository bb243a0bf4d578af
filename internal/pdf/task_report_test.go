package pdf

import (
	"bytes"
	"testing"
	"time"

	"taskxp/internal/models"
)

func TestTaskReport_RendersPDF(t *testing.T) {
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	data := ReportData{
		Owner:       "Zoë Example",
		GeneratedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		Overview:    models.StatusOverview{Total: 2, Pending: 1, Completed: 1},
		Progress:    models.Progress{TotalXP: 1200, Level: 2, StreakDays: 3, XPForNextLevel: 2000},
		Tasks: []models.Task{
			{Title: "Quarterly report with a title long enough to need truncating in the table", Priority: models.PriorityHigh, Status: models.StatusInProgress, DueDate: &due, XPReward: 20},
			{Title: "Café run", Priority: models.PriorityLow, Status: models.StatusCompleted, XPReward: 10},
		},
	}

	var buf bytes.Buffer
	if err := NewReportGenerator("").TaskReport(&buf, data); err != nil {
		t.Fatalf("TaskReport: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestTaskReport_EmptyTaskList(t *testing.T) {
	var buf bytes.Buffer
	err := NewReportGenerator("").TaskReport(&buf, ReportData{Owner: "nobody", GeneratedAt: time.Now()})
	if err != nil {
		t.Fatalf("TaskReport: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected PDF bytes")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected unchanged, got %q", got)
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Fatalf("expected abcde..., got %q", got)
	}
}
