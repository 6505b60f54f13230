package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens the Redis client shared by the schedule cache, the semester lease and the
// event relay. Scripts are loaded up front so a server without Lua support fails at startup
// rather than on the first schedule write.
func ConnectRedis(ctx context.Context, url, clientName string, scripts ...*redis.Script) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if options.ClientName == "" {
		options.ClientName = clientName
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	for _, script := range scripts {
		if err := script.Load(pingCtx, client).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("unable to load redis script: %w", err)
		}
	}

	return client, nil
}
