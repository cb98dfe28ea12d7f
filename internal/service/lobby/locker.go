package lobby

import (
	"context"
	"fmt"
	"time"

	"cardroom-service/internal/service/game"
	appErr "cardroom-service/pkg/errors"

	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker keeps each player in at most one live session across processes.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ game.SessionLocker = (*RedisLocker)(nil)

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, playerID, sessionID string) error {
	key := buildActiveGameKey(playerID)
	ok, err := l.rdb.SetNX(ctx, key, sessionID, l.ttl).Result()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	held, err := l.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		// expired between SETNX and GET
		return l.Acquire(ctx, playerID, sessionID)
	}
	if err != nil {
		return err
	}
	if held == sessionID {
		return nil
	}
	return appErr.ErrAlreadyInGame
}

// Release only deletes the lock when it still belongs to sessionID.
func (l *RedisLocker) Release(ctx context.Context, playerID, sessionID string) error {
	return releaseScript.Run(ctx, l.rdb, []string{buildActiveGameKey(playerID)}, sessionID).Err()
}

// Active returns the session the player is seated in, or "".
func (l *RedisLocker) Active(ctx context.Context, playerID string) (string, error) {
	sessionID, err := l.rdb.Get(ctx, buildActiveGameKey(playerID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return sessionID, err
}

func buildActiveGameKey(userID string) string {
	return fmt.Sprintf("game:active:%s", userID)
}
