package host

import (
	"context"
	"sync"
	"time"
)

// StatusReporter periodically logs the health of the registry hosts
type StatusReporter struct {
	registry *Registry
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusReporter creates a StatusReporter. A non-positive interval
// makes Start a no-op.
func NewStatusReporter(registry *Registry, interval time.Duration) *StatusReporter {
	ctx, cancel := context.WithCancel(context.Background())
	return &StatusReporter{
		registry: registry,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins status logging
func (s *StatusReporter) Start() {
	if s.interval <= 0 {
		return
	}

	s.wg.Add(1)
	go s.run()
}

// Stop stops status logging and waits for the goroutine to exit
func (s *StatusReporter) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *StatusReporter) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.registry.LogStatus()
		}
	}
}
