package stats

import (
	"strconv"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/storagetest"
	"github.com/julianstephens/habitual/internal/utils"
)

var now = time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC)

func TestRangeBounds(t *testing.T) {
	day := func(s string) time.Time {
		d, err := utils.ParseDay(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	ms := func(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) }

	tests := []struct {
		name     string
		r        Range
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{"default week", Range{Days: 7}, day("2024-05-09"), utils.EndOfUTCDay(day("2024-05-15")), false},
		{"today only", Range{Days: 1}, day("2024-05-15"), utils.EndOfUTCDay(day("2024-05-15")), false},
		{"explicit", Range{From: "2024-05-01", To: "2024-05-03"}, day("2024-05-01"), utils.EndOfUTCDay(day("2024-05-03")), false},
		{"days before to", Range{To: "2024-05-10", Days: 3}, day("2024-05-08"), utils.EndOfUTCDay(day("2024-05-10")), false},
		{"bad from", Range{From: "05/01/2024"}, time.Time{}, time.Time{}, true},
		{"zero days", Range{Days: 0}, time.Time{}, time.Time{}, true},
		{"epoch bounds", Range{From: ms(day("2024-05-01").Add(9 * time.Hour)), To: ms(day("2024-05-03").Add(18 * time.Hour))},
			day("2024-05-01").Add(9 * time.Hour), day("2024-05-03").Add(18 * time.Hour), false},
		{"epoch from, day to", Range{From: ms(day("2024-05-01").Add(time.Minute)), To: "2024-05-02"},
			day("2024-05-01").Add(time.Minute), utils.EndOfUTCDay(day("2024-05-02")), false},
		{"days before epoch to", Range{To: ms(day("2024-05-10").Add(6 * time.Hour)), Days: 2},
			day("2024-05-09"), day("2024-05-10").Add(6 * time.Hour), false},
		{"bad to", Range{To: "soon"}, time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := tt.r.Bounds(now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Bounds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !from.Equal(tt.wantFrom) || !to.Equal(tt.wantTo) {
				t.Errorf("Bounds() = %s..%s, want %s..%s", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestProgressCell(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		pct  *float64
		want string
	}{
		{nil, "·"},
		{f(0), "░"},
		{f(50), "▒"},
		{f(100), "█"},
	}
	for _, tt := range tests {
		if got := progressCell(tt.pct); got != tt.want {
			t.Errorf("progressCell(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestCommands(t *testing.T) {
	store := memory.New()
	user := storagetest.NewUser("ada")
	habit := storagetest.NewHabit(user.ID, "Read", now.AddDate(0, 0, -3), 1, 2, 3, 4, 5, 6, 7)
	done := storagetest.NewInstance(habit.ID, now.AddDate(0, 0, -1))
	done.Repeats, done.Status = 1, models.StatusDone
	storagetest.Seed(t, store, []models.User{user}, []models.Habit{habit}, []models.HabitInstance{done})

	ctx := &cli.Context{Store: store, Clock: utils.FixedClock{T: now}, UserID: user.ID}

	cmds := []struct {
		name string
		cmd  interface{ Run(*cli.Context) error }
	}{
		{"stats", &StatsCmd{Range: Range{Days: 7}}},
		{"stats json", &StatsCmd{Range: Range{Days: 7}, JSON: true}},
		{"week", &WeekCmd{Range: Range{Days: 7}}},
		{"week json", &WeekCmd{Range: Range{Days: 7}, JSON: true}},
		{"leaderboard", &LeaderboardCmd{}},
		{"leaderboard json", &LeaderboardCmd{JSON: true}},
	}
	for _, c := range cmds {
		if err := c.cmd.Run(ctx); err != nil {
			t.Errorf("%s failed: %v", c.name, err)
		}
	}

	tooLong := &StatsCmd{Range: Range{Days: 400}}
	if err := tooLong.Run(ctx); err == nil {
		t.Error("expected an over-long range to be rejected")
	}
}
