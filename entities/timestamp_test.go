package entities

import (
	"sort"
	"testing"
	"time"
)

func TestTimestampSortsAsText(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 5, 0, time.FixedZone("IST", 19800))
	times := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(120 * time.Millisecond),
		base.Add(time.Second),
	}

	stamps := make([]string, len(times))
	for i, tm := range times {
		stamps[i] = Timestamp(tm)
	}
	if !sort.StringsAreSorted(stamps) {
		t.Errorf("expected chronological text order, got %v", stamps)
	}
	if stamps[0] != "2025-03-01T04:30:05.000000000Z" {
		t.Errorf("expected UTC with a fixed fraction, got %s", stamps[0])
	}
	for _, s := range stamps {
		if len(s) != len(stamps[0]) {
			t.Errorf("expected fixed width, got %s", s)
		}
	}
}
