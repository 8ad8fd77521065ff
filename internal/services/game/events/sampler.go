package events

import (
	"context"
	"log"
	"time"
)

// DefaultSampleInterval is how often the failure-rate gauge is refreshed.
const DefaultSampleInterval = 5 * time.Second

// FailureRateSampler periodically recomputes the transaction failure
// rate from the transaction counter and publishes it as a gauge. The
// gauge trails the counters by up to one interval.
type FailureRateSampler struct {
	rec      *Recorder
	interval time.Duration
	logger   *log.Logger
}

// NewFailureRateSampler creates a sampler over rec. A non-positive
// interval falls back to DefaultSampleInterval.
func NewFailureRateSampler(rec *Recorder, interval time.Duration, logger *log.Logger) *FailureRateSampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FailureRateSampler{rec: rec, interval: interval, logger: logger}
}

// Run refreshes the gauge until ctx is cancelled.
func (s *FailureRateSampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sample()
		}
	}
}

// Sample recomputes and publishes the failure rate once.
func (s *FailureRateSampler) Sample() {
	ratio := s.rec.failureRatio()
	if err := s.rec.failureRate.Set(nil, ratio); err != nil {
		s.logger.Printf("failure rate sample: %v", err)
	}
}
