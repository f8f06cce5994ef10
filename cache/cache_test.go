package cache

import (
	"testing"

	"sprinklex-server/entities"
)

func reading(url, d1, valve string) entities.SensorReading {
	return entities.SensorReading{DeviceURL: url, Deep1: d1, Deep2: "WET", Deep3: "WET", Valve: valve}
}

func TestSignificantChanges(t *testing.T) {
	rc := NewReadingCache()
	seq := []entities.SensorReading{
		reading("http://a", "WET", "CLOSED"),
		reading("http://a", "WET", "CLOSED"),
		reading("http://a", "DRY", "CLOSED"),
		reading("http://a", "DRY", "OPEN"),
		reading("http://a", "DRY", "OPEN"),
		reading("http://a", "DRY", "OPEN"),
	}
	for _, r := range seq {
		rc.Add(r)
	}
	rc.Add(reading("http://b", "WET", "OPEN"))

	got := rc.SignificantChanges()
	a := got["http://a"]
	if len(a) != 4 {
		t.Fatalf("expected first, two changes and last, got %d: %+v", len(a), a)
	}
	if a[1].Deep1 != "DRY" || a[2].Valve != "OPEN" {
		t.Errorf("unexpected kept readings %+v", a)
	}
	if len(got["http://b"]) != 1 {
		t.Errorf("expected a single reading for b, got %+v", got["http://b"])
	}
}

func TestSignificantChangesLastIsChange(t *testing.T) {
	rc := NewReadingCache()
	rc.Add(reading("http://a", "WET", "CLOSED"))
	rc.Add(reading("http://a", "DRY", "CLOSED"))
	if got := rc.SignificantChanges()["http://a"]; len(got) != 2 {
		t.Errorf("expected last reading not to be duplicated, got %+v", got)
	}
}

func TestDrainKeepsLatest(t *testing.T) {
	rc := NewReadingCache()
	rc.Add(reading("http://a", "WET", "CLOSED"))
	rc.Add(reading("http://a", "DRY", "OPEN"))

	stats := rc.Stats()
	if stats["total_data_points"] != 2 || stats["total_devices"] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
	drained := rc.Drain()
	if len(drained["http://a"]) != 2 {
		t.Errorf("expected both points drained, got %+v", drained)
	}
	if len(rc.All()) != 0 {
		t.Errorf("expected empty cache after drain")
	}
	rc.MarkFlushed(2)
	latest, ok := rc.Latest("http://a")
	if !ok || latest.Deep1 != "DRY" {
		t.Errorf("expected latest reading to survive drain, got %+v", latest)
	}
	if rc.Stats()["flushed_points"] != 2 {
		t.Errorf("expected flushed count 2, got %v", rc.Stats()["flushed_points"])
	}
	if _, ok := rc.Latest("http://none"); ok {
		t.Errorf("expected no reading for unknown device")
	}
}

func TestRestoreKeepsOrder(t *testing.T) {
	rc := NewReadingCache()
	rc.Add(reading("http://a", "WET", "CLOSED"))
	drained := rc.Drain()
	rc.Add(reading("http://a", "DRY", "OPEN"))

	rc.Restore(drained)
	pts := rc.All()["http://a"]
	if len(pts) != 2 || pts[0].Reading.Deep1 != "WET" || pts[1].Reading.Deep1 != "DRY" {
		t.Errorf("expected drained point ahead of the newer one, got %+v", pts)
	}
	if rc.Stats()["flushed_points"] != 0 {
		t.Errorf("expected nothing counted as flushed")
	}
}
