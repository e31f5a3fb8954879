package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New("devel")
	day := time.Date(2015, time.March, 1, 0, 0, 0, 0, time.UTC)

	r.DayMissing(day.AddDate(0, 0, 1), 1)
	r.DayFetched(day, 3, 2, 1)
	r.Flushed(10*time.Millisecond, nil)
	r.Flushed(time.Millisecond, errors.New("disk full"))
	r.DayMissing(day.AddDate(0, 0, -1), 1)

	path := filepath.Join(t.TempDir(), "chatlogs.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	want := []string{
		`chatlogs_archive_days_total{channel="devel",result="found"} 1`,
		`chatlogs_archive_days_total{channel="devel",result="missing"} 2`,
		`chatlogs_archive_messages_total{channel="devel",outcome="added"} 1`,
		`chatlogs_archive_messages_total{channel="devel",outcome="duplicate"} 2`,
		`chatlogs_archive_messages_total{channel="devel",outcome="filtered"} 2`,
		`chatlogs_archive_consecutive_misses{channel="devel"} 1`,
		`chatlogs_archive_flush_errors_total{channel="devel"} 1`,
		`chatlogs_archive_flush_duration_seconds_count{channel="devel"} 2`,
	}
	for _, line := range want {
		if !strings.Contains(out, line) {
			t.Errorf("missing %q in output:\n%s", line, out)
		}
	}
}
