package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimingMetric_Record(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("count = %d, want 2", s.Count)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 {
		t.Fatalf("stats = %+v", s)
	}

	m.Reset()
	if m.Count() != 0 {
		t.Fatalf("count after reset = %d", m.Count())
	}
}

func TestTimingMetric_Disabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	m.Record(time.Millisecond)
	Timer(m)()
	if m.Count() != 0 {
		t.Fatalf("recorded while disabled")
	}
}

func TestTimingMetric_Concurrent(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Record(time.Duration(n) * time.Microsecond)
		}(i)
	}
	wg.Wait()
	s := m.Stats()
	if s.Count != 50 {
		t.Fatalf("count = %d", s.Count)
	}
	if s.MinMs != 0.001 || s.MaxMs != 0.05 {
		t.Fatalf("min/max = %v/%v", s.MinMs, s.MaxMs)
	}
}

func TestSummary_OnlyRecorded(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	CSVExport.Record(time.Millisecond)
	out := Summary()
	if !strings.Contains(out, "csv_export") {
		t.Fatalf("summary missing csv_export: %q", out)
	}
	if strings.Contains(out, "chart_render") {
		t.Fatalf("summary lists unrecorded metric: %q", out)
	}
}
