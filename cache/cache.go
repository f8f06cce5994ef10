package cache

import (
	"sync"
	"time"

	"sprinklex-server/entities"
)

type ReadingPoint struct {
	Reading  entities.SensorReading
	CachedAt time.Time
}

// ReadingCache buffers sensor readings per controller URL until the data
// processor flushes them to storage.
type ReadingCache struct {
	mu       sync.RWMutex
	readings map[string][]ReadingPoint // map[deviceURL][]points
	latest   map[string]entities.SensorReading
	flushed  int
}

func NewReadingCache() *ReadingCache {
	return &ReadingCache{
		readings: make(map[string][]ReadingPoint),
		latest:   make(map[string]entities.SensorReading),
	}
}

// Add appends a reading for its controller.
func (rc *ReadingCache) Add(r entities.SensorReading) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.readings[r.DeviceURL] = append(rc.readings[r.DeviceURL], ReadingPoint{Reading: r, CachedAt: time.Now()})
	rc.latest[r.DeviceURL] = r
}

// Latest returns the newest reading seen for deviceURL, even after a flush.
func (rc *ReadingCache) Latest(deviceURL string) (entities.SensorReading, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	r, ok := rc.latest[deviceURL]
	return r, ok
}

// SignificantChanges applies the flush filter to the points currently
// buffered without removing them.
func (rc *ReadingCache) SignificantChanges() map[string][]entities.SensorReading {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return SignificantChanges(rc.readings)
}

// SignificantChanges keeps, per controller, the first reading, every reading
// whose pins or valve differ from the last kept one, and the last reading.
func SignificantChanges(points map[string][]ReadingPoint) map[string][]entities.SensorReading {
	out := make(map[string][]entities.SensorReading)
	for deviceURL, pts := range points {
		if len(pts) == 0 {
			continue
		}

		kept := []entities.SensorReading{pts[0].Reading}
		lastKept := 0
		for i := 1; i < len(pts); i++ {
			if !pts[i].Reading.SameLevels(kept[len(kept)-1]) {
				kept = append(kept, pts[i].Reading)
				lastKept = i
			}
		}
		if last := len(pts) - 1; lastKept != last {
			kept = append(kept, pts[last].Reading)
		}
		out[deviceURL] = kept
	}
	return out
}

// All returns a copy of every buffered point.
func (rc *ReadingCache) All() map[string][]ReadingPoint {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	all := make(map[string][]ReadingPoint, len(rc.readings))
	for deviceURL, points := range rc.readings {
		all[deviceURL] = make([]ReadingPoint, len(points))
		copy(all[deviceURL], points)
	}
	return all
}

func (rc *ReadingCache) Stats() map[string]interface{} {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	total := 0
	for _, points := range rc.readings {
		total += len(points)
	}
	return map[string]interface{}{
		"total_devices":     len(rc.readings),
		"total_data_points": total,
		"flushed_points":    rc.flushed,
	}
}

// Drain removes and returns every buffered point in one step, so readings
// added afterwards wait for the next flush. Latest keeps answering.
func (rc *ReadingCache) Drain() map[string][]ReadingPoint {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	drained := rc.readings
	rc.readings = make(map[string][]ReadingPoint)
	return drained
}

// Restore puts drained points back ahead of anything added since the drain.
func (rc *ReadingCache) Restore(points map[string][]ReadingPoint) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for deviceURL, pts := range points {
		rc.readings[deviceURL] = append(append([]ReadingPoint{}, pts...), rc.readings[deviceURL]...)
	}
}

// MarkFlushed records n points as written to storage.
func (rc *ReadingCache) MarkFlushed(n int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.flushed += n
}
