package util

import (
	"testing"
	"time"
)

func TestCalculateSyncPercentage(t *testing.T) {
	tests := []struct {
		name  string
		done  int64
		total int64
		want  int32
	}{
		{name: "unknown total", done: 5, total: 0, want: 0},
		{name: "nothing done", done: 0, total: 10, want: 0},
		{name: "half", done: 50, total: 100, want: 50},
		{name: "rounds down", done: 1, total: 3, want: 33},
		{name: "clamped", done: 12, total: 10, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateSyncPercentage(tt.done, tt.total); got != tt.want {
				t.Fatalf("unexpected percentage: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildSyncProgressWithTotal(t *testing.T) {
	p := BuildSyncProgress(100, 2, 400, 10*time.Second)

	if p.Done != "100/400" {
		t.Fatalf("unexpected done: %q", p.Done)
	}
	if p.Percentage == nil || *p.Percentage != 25 {
		t.Fatalf("unexpected percentage: %v", p.Percentage)
	}
	if p.Rate != 10 {
		t.Fatalf("unexpected rate: %v", p.Rate)
	}
	if p.TimeRemaining == nil || *p.TimeRemaining != 30*time.Second {
		t.Fatalf("unexpected time remaining: %v", p.TimeRemaining)
	}
	if p.Failed != 2 {
		t.Fatalf("unexpected failed count: %d", p.Failed)
	}
}

func TestBuildSyncProgressWithoutTotal(t *testing.T) {
	p := BuildSyncProgress(7, 0, 0, time.Second)

	if p.Done != "7" {
		t.Fatalf("unexpected done: %q", p.Done)
	}
	if p.Percentage != nil || p.TimeRemaining != nil {
		t.Fatalf("expected no percentage or eta without total, got %+v", p)
	}
}

func TestBuildSyncProgressFinished(t *testing.T) {
	p := BuildSyncProgress(10, 0, 10, time.Second)
	if p.TimeRemaining != nil {
		t.Fatalf("expected no eta once finished, got %v", *p.TimeRemaining)
	}
}
