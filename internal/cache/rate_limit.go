package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// SendLimiter ограничивает количество сообщений в чат от одного пользователя
// за фиксированное окно
type SendLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
	log    logger.Logger
}

func NewSendLimiter(client *redis.Client, limit int, window time.Duration, log logger.Logger) *SendLimiter {
	return &SendLimiter{redis: client, limit: int64(limit), window: window, log: log}
}

func limitKey(userID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:chat:%s", userID)
}

// Allow учитывает попытку отправки и сообщает, укладывается ли она в лимит.
// Нулевой или отрицательный лимит отключает проверку.
func (l *SendLimiter) Allow(ctx context.Context, userID uuid.UUID) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	key := limitKey(userID)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		l.log.Error("Failed to increment rate limit", "error", err)
		return false, err
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.Warn("Failed to set rate limit window", "error", err)
		}
	}

	return count <= l.limit, nil
}
