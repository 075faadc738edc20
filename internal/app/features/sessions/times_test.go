package sessions

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fellowhub/internal/domain/models"
)

func TestCheckTimes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"valid future window", now.Add(time.Hour), now.Add(2 * time.Hour), false},
		{"zero start", time.Time{}, now.Add(time.Hour), true},
		{"zero end", now.Add(time.Hour), time.Time{}, true},
		{"end equals start", now.Add(time.Hour), now.Add(time.Hour), true},
		{"end before start", now.Add(2 * time.Hour), now.Add(time.Hour), true},
		{"start in the past", now.Add(-time.Minute), now.Add(time.Hour), true},
		{"start exactly now", now, now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTimes(now, tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkTimes(%v, %v): err=%v, wantErr=%v", tt.start, tt.end, err, tt.wantErr)
			}
		})
	}
}

func TestHasStarted(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", start.Add(-time.Minute), false},
		{"exactly at start", start, false},
		{"just after start", start.Add(time.Nanosecond), true},
		{"well past start", start.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasStarted(tt.now, start); got != tt.want {
				t.Errorf("hasStarted(%v, %v) = %v, want %v", tt.now, start, got, tt.want)
			}
		})
	}
}

func TestApplyEdits(t *testing.T) {
	start := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)
	current := models.Session{
		Title:       "Kickoff",
		Description: "<p>Agenda</p>",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
	}

	t.Run("no fields set is a no-op", func(t *testing.T) {
		target, changes := applyEdits(current, updateRequest{})
		if len(changes) != 0 {
			t.Errorf("expected no changes, got %v", changes)
		}
		if target.Title != current.Title || !target.StartTime.Equal(current.StartTime) {
			t.Error("expected session unchanged")
		}
	})

	t.Run("same values produce no change entries", func(t *testing.T) {
		title := "Kickoff"
		_, changes := applyEdits(current, updateRequest{Title: &title, StartTime: &start})
		if len(changes) != 0 {
			t.Errorf("expected no changes, got %v", changes)
		}
	})

	t.Run("title is sanitized before comparison", func(t *testing.T) {
		title := "<b>Kickoff</b>"
		_, changes := applyEdits(current, updateRequest{Title: &title})
		if len(changes) != 0 {
			t.Errorf("markup-only change should be a no-op, got %v", changes)
		}
	})

	t.Run("moved times are listed in changes", func(t *testing.T) {
		newStart := start.Add(24 * time.Hour)
		newEnd := newStart.Add(time.Hour)
		target, changes := applyEdits(current, updateRequest{StartTime: &newStart, EndTime: &newEnd})
		if len(changes) != 2 {
			t.Fatalf("expected 2 change entries, got %v", changes)
		}
		if !strings.HasPrefix(changes[0], "Start moved to ") {
			t.Errorf("unexpected change text %q", changes[0])
		}
		if !target.StartTime.Equal(newStart) || !target.EndTime.Equal(newEnd) {
			t.Error("expected times applied to target")
		}
	})

	t.Run("empty title is ignored", func(t *testing.T) {
		title := "   "
		target, changes := applyEdits(current, updateRequest{Title: &title})
		if len(changes) != 0 || target.Title != "Kickoff" {
			t.Errorf("blank title should be ignored, got title=%q changes=%v", target.Title, changes)
		}
	})
}
