package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRecordRollover(t *testing.T) {
	RecordRollover(10*time.Millisecond, 3, 2, nil)
	RecordRollover(time.Millisecond, 5, 5, errors.New("boom"))

	body := scrape(t)
	for _, line := range []string{
		"habitual_rollover_instances_created_total 3",
		"habitual_rollover_instances_missed_total 2",
		`habitual_rollover_runs_total{result="failure"} 1`,
		`habitual_rollover_runs_total{result="success"} 1`,
		"habitual_rollover_run_duration_seconds_count 2",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("expected exposition to contain %q", line)
		}
	}
}

func TestRecordXP(t *testing.T) {
	RecordXP(10)
	RecordXP(-10)
	RecordXP(0)

	body := scrape(t)
	for _, line := range []string{
		`habitual_leveling_xp_total{direction="awarded"} 10`,
		`habitual_leveling_xp_total{direction="revoked"} 10`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("expected exposition to contain %q", line)
		}
	}
}

func TestRecordTransition(t *testing.T) {
	RecordTransition("mark_done", "ok")
	RecordTransition("mark_done", "invalid_transition")

	body := scrape(t)
	if !strings.Contains(body, `habitual_completion_transitions_total{operation="mark_done",outcome="ok"} 1`) {
		t.Error("expected successful transition in exposition")
	}
	if !strings.Contains(body, `habitual_completion_transitions_total{operation="mark_done",outcome="invalid_transition"} 1`) {
		t.Error("expected rejected transition in exposition")
	}
}
