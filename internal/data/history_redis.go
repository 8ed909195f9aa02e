package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
)

var redisHistoryPrefix = "scamguard/history/"

// redisHistoryRepo stores each user's buffer as a capped redis list
type redisHistoryRepo struct {
	client  *redis.Client
	idleTTL time.Duration
}

type redisHistoryEntry struct {
	Content string `json:"c"`
	TS      int64  `json:"ts"`
}

// NewRedisHistoryRepo connects to redis and checks the connection
func NewRedisHistoryRepo(ctx context.Context, redisURL string, idleTTL time.Duration) (repo.HistoryRepo, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &redisHistoryRepo{client: rdb, idleTTL: idleTTL}, nil
}

func redisHistoryKey(userID int64) string {
	return redisHistoryPrefix + strconv.FormatInt(userID, 10)
}

// Record appends and trims in one transaction
func (r *redisHistoryRepo) Record(ctx context.Context, userID int64, rec domain.MessageRecord) error {
	val, err := json.Marshal(redisHistoryEntry{Content: rec.Content, TS: rec.Timestamp.UnixMilli()})
	if err != nil {
		return err
	}

	key := redisHistoryKey(userID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, val)
		pipe.LTrim(ctx, key, -repo.HistoryCapacity, -1)
		if r.idleTTL > 0 {
			pipe.Expire(ctx, key, r.idleTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Recent returns the last limit contents, oldest first
func (r *redisHistoryRepo) Recent(ctx context.Context, userID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = repo.DefaultRecentLimit
	}

	vals, err := r.client.LRange(ctx, redisHistoryKey(userID), int64(-limit), -1).Result()
	if err == redis.Nil {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	out := make([]string, 0, len(vals))
	for _, v := range vals {
		var entry redisHistoryEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			// tolerate entries written as plain text
			out = append(out, v)
			continue
		}
		out = append(out, entry.Content)
	}
	return out, nil
}

func (r *redisHistoryRepo) Close() error {
	return r.client.Close()
}
