package scheduler

import (
	"fmt"
	"time"

	"github.com/aristath/tradejournal/internal/querycache"
	"github.com/rs/zerolog"
)

// CacheGCJob drops query cache entries nobody has read for gcTime
type CacheGCJob struct {
	cache  *querycache.Cache
	gcTime time.Duration
	log    zerolog.Logger
}

// NewCacheGCJob creates a new cache garbage collection job
func NewCacheGCJob(cache *querycache.Cache, gcTime time.Duration, log zerolog.Logger) *CacheGCJob {
	return &CacheGCJob{
		cache:  cache,
		gcTime: gcTime,
		log:    log.With().Str("job", "query_cache_gc").Logger(),
	}
}

// Run removes idle entries
func (j *CacheGCJob) Run() error {
	if j.gcTime <= 0 {
		return fmt.Errorf("invalid cache gc time %s", j.gcTime)
	}

	j.cache.Collect(j.gcTime)
	return nil
}

// Name returns the job name for scheduling and logging
func (j *CacheGCJob) Name() string {
	return "query_cache_gc"
}
