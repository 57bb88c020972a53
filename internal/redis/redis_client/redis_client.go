package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	poolSizeCap = 512
	pingTimeout = 5 * time.Second
)

// NewRedisClient connects the shared client used for carts and the auction
// event fan-out. Connection problems surface here rather than on first use.
func NewRedisClient(host string, port int) (*redis.Client, error) {
	poolSize := runtime.NumCPU() * 8
	if poolSize > poolSizeCap {
		poolSize = poolSizeCap
	}

	rdc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdc.Ping(ctx).Err(); err != nil {
		err = fmt.Errorf("redis connect %s:%d: %w", host, port, err)
		zap.L().Error("redis_connect", zap.Error(err))
		return nil, err
	}
	return rdc, nil
}
