package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pigpay/backend/internal/logging"
	"github.com/spf13/viper"
)

// InitRedis initializes Redis client with config. It returns nil when Redis
// is unreachable; callers treat a nil client as "feature disabled".
func InitRedis() *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	addr := viper.GetString("redis.host") + ":" + viper.GetString("redis.port")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	log := logging.For("redis").WithField("addr", addr)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis connection failed, continuing without Redis")
		rdb.Close()
		return nil
	}

	log.Info("Redis connection established")
	return rdb
}
