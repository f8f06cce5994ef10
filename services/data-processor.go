package services

import (
	"context"
	"log"
	"sort"
	"time"

	"sprinklex-server/cache"
	"sprinklex-server/entities"
	"sprinklex-server/repositories"
)

// DataProcessor buffers sensor readings in memory and periodically writes
// the significant ones to storage.
type DataProcessor struct {
	cache    *cache.ReadingCache
	readings repositories.SensorReadingRepository
	interval time.Duration
}

func NewDataProcessor(readings repositories.SensorReadingRepository, interval time.Duration) *DataProcessor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &DataProcessor{
		cache:    cache.NewReadingCache(),
		readings: readings,
		interval: interval,
	}
}

// Start flushes on every interval until ctx is done, then flushes once more.
func (dp *DataProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(dp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_, _ = dp.ProcessCachedData()
				return
			case <-ticker.C:
				_, _ = dp.ProcessCachedData()
			}
		}
	}()
}

// ProcessCachedData drains the cache and stores the significant readings.
// On a storage error the drained points go back for the next attempt.
func (dp *DataProcessor) ProcessCachedData() (int, error) {
	drained := dp.cache.Drain()
	changes := cache.SignificantChanges(drained)

	urls := make([]string, 0, len(changes))
	for u := range changes {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	var batch []entities.SensorReading
	for _, u := range urls {
		batch = append(batch, changes[u]...)
	}
	if len(batch) == 0 {
		log.Printf("No cached readings to process")
		return 0, nil
	}

	if err := dp.readings.CreateBatch(batch); err != nil {
		log.Printf("Error storing %d readings: %v", len(batch), err)
		dp.cache.Restore(drained)
		return 0, err
	}

	points := 0
	for _, pts := range drained {
		points += len(pts)
	}
	dp.cache.MarkFlushed(points)
	log.Printf("Stored %d significant readings", len(batch))
	return len(batch), nil
}

func (dp *DataProcessor) AddReading(r entities.SensorReading) {
	dp.cache.Add(r)
}

func (dp *DataProcessor) Latest(deviceURL string) (entities.SensorReading, bool) {
	return dp.cache.Latest(deviceURL)
}

func (dp *DataProcessor) GetAllCachedData() map[string][]cache.ReadingPoint {
	return dp.cache.All()
}

func (dp *DataProcessor) GetCacheStats() map[string]interface{} {
	stats := dp.cache.Stats()
	stats["flush_interval"] = dp.interval.String()
	return stats
}
