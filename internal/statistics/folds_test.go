package statistics

import (
	"testing"

	"github.com/julianstephens/habitual/internal/models"
)

func seq(statuses ...models.InstanceStatus) []models.HabitInstance {
	out := make([]models.HabitInstance, len(statuses))
	for i, s := range statuses {
		out[i] = models.HabitInstance{Status: s}
	}
	return out
}

const (
	done   = models.StatusDone
	missed = models.StatusMissed
	open   = models.StatusInProgress
)

func TestStreaks(t *testing.T) {
	tests := []struct {
		name        string
		history     []models.HabitInstance
		wantStreak  int
		wantLongest int
		wantDone    int
	}{
		{"empty", nil, 0, 0, 0},
		{"broken then resumed", seq(done, done, missed, done), 1, 2, 3},
		{"in progress does not break", seq(done, open, done), 2, 2, 2},
		{"ends with missed", seq(done, done, done, missed), 0, 3, 3},
		{"only missed", seq(missed, missed), 0, 0, 0},
		{"longest later", seq(done, missed, done, done, done, open), 3, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.history); got != tt.wantStreak {
				t.Errorf("Streak() = %d, want %d", got, tt.wantStreak)
			}
			if got := LongestStreak(tt.history); got != tt.wantLongest {
				t.Errorf("LongestStreak() = %d, want %d", got, tt.wantLongest)
			}
			if got := CompletedCount(tt.history); got != tt.wantDone {
				t.Errorf("CompletedCount() = %d, want %d", got, tt.wantDone)
			}
		})
	}
}

func TestPercentDone(t *testing.T) {
	if got := PercentDone(nil, 3); got != nil {
		t.Errorf("expected nil for a day without instances, got %v", *got)
	}

	tests := []struct {
		name    string
		repeats []int
		goal    int
		want    float64
	}{
		{"single complete", []int{2}, 2, 100},
		{"partial", []int{1}, 4, 25},
		{"two instances", []int{3, 0}, 3, 50},
		{"none done", []int{0}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instances := make([]models.HabitInstance, len(tt.repeats))
			for i, r := range tt.repeats {
				instances[i].Repeats = r
			}
			got := PercentDone(instances, tt.goal)
			if got == nil {
				t.Fatal("expected a value")
			}
			if *got != tt.want {
				t.Errorf("PercentDone() = %v, want %v", *got, tt.want)
			}
		})
	}
}
