package data

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
)

// memoryHistoryRepo keeps per-user buffers in an expiring LRU.
// Users idle for longer than the TTL are dropped.
type memoryHistoryRepo struct {
	mu      sync.Mutex
	buffers *expirable.LRU[int64, []domain.MessageRecord]
}

// NewMemoryHistoryRepo creates an in-process history store
func NewMemoryHistoryRepo(maxUsers int, idleTTL time.Duration) repo.HistoryRepo {
	if maxUsers <= 0 {
		maxUsers = 100000
	}
	return &memoryHistoryRepo{
		buffers: expirable.NewLRU[int64, []domain.MessageRecord](maxUsers, nil, idleTTL),
	}
}

// Record appends a message, keeping at most HistoryCapacity entries
func (r *memoryHistoryRepo) Record(ctx context.Context, userID int64, rec domain.MessageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, _ := r.buffers.Get(userID)

	start := 0
	if len(prev)+1 > repo.HistoryCapacity {
		start = len(prev) + 1 - repo.HistoryCapacity
	}
	next := make([]domain.MessageRecord, 0, len(prev)-start+1)
	next = append(next, prev[start:]...)
	next = append(next, rec)

	// Add resets the idle TTL
	r.buffers.Add(userID, next)
	return nil
}

// Recent returns the last limit contents, oldest first
func (r *memoryHistoryRepo) Recent(ctx context.Context, userID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = repo.DefaultRecentLimit
	}

	r.mu.Lock()
	buf, _ := r.buffers.Get(userID)
	r.mu.Unlock()

	if len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	out := make([]string, 0, len(buf))
	for _, rec := range buf {
		out = append(out, rec.Content)
	}
	return out, nil
}

// Users returns the number of tracked users
func (r *memoryHistoryRepo) Users() int {
	return r.buffers.Len()
}

func (r *memoryHistoryRepo) Close() error {
	r.buffers.Purge()
	return nil
}
