package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// exportKeyPrefix namespaces export artifacts in a shared Valkey instance.
const exportKeyPrefix = "export:"

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	logrus.WithField("addr", addr).Info("valkey connected")
	return client, nil
}

// ValkeyCache stores artifacts in Valkey. Errors are logged and treated as
// misses so a cache outage never fails an export.
type ValkeyCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewValkeyCache(client redis.UniversalClient, ttl time.Duration) *ValkeyCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ValkeyCache{client: client, ttl: ttl}
}

func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, exportKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("export cache get failed")
		return nil, false
	}
	logrus.WithField("key", key).Debug("export cache hit")
	return val, true
}

func (c *ValkeyCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, exportKeyPrefix+key, value, c.ttl).Err(); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("export cache set failed")
	}
}
