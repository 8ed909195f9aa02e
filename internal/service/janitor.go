package service

import (
	"context"
	"sync"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// Janitor prunes ledger rows older than the retention window
type Janitor struct {
	ledgerRepo repo.LedgerRepo
	retention  time.Duration
	interval   time.Duration
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJanitor creates a new janitor
func NewJanitor(ledgerRepo repo.LedgerRepo, retention, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Janitor{
		ledgerRepo: ledgerRepo,
		retention:  retention,
		interval:   interval,
		now:        time.Now,
	}
}

// Start starts the cleanup loop
func (j *Janitor) Start(ctx context.Context) {
	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go j.cleanupLoop()

	log.Named("janitor").Infow("started", "retention", j.retention, "interval", j.interval)
}

// Stop stops the cleanup loop
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
	log.Named("janitor").Infow("stopped")
}

func (j *Janitor) cleanupLoop() {
	defer j.wg.Done()

	j.Cleanup(j.ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.Cleanup(j.ctx)
		}
	}
}

// Cleanup runs one pruning pass and returns the number of rows removed
func (j *Janitor) Cleanup(ctx context.Context) int64 {
	if j.ledgerRepo == nil || j.retention <= 0 {
		return 0
	}

	n, err := j.ledgerRepo.CleanupOld(ctx, j.now().Add(-j.retention))
	if err != nil {
		log.Named("janitor").Warnw("failed to cleanup ledger", "error", err)
		return 0
	}
	if n > 0 {
		ledgerCleanupCount.Add(float64(n))
		log.Named("janitor").Infow("pruned ledger", "rows", n)
	}
	return n
}
