package repo

import (
	"context"
	"time"

	"cardroom-service/internal/config"
	"cardroom-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var RDB *redis.Client

const redisPingTimeout = 5 * time.Second

// OpenRedis connects and pings; the lobby queue and session locks cannot run without it.
func OpenRedis(conf config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func InitRedis() {
	conf := config.GlobalConfig.Redis
	var err error
	RDB, err = OpenRedis(conf)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.String("addr", conf.Addr), zap.Error(err))
	}
}
