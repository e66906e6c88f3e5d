// Package cache provides the Valkey (Redis-compatible) client and the
// short-lived dashboard statistics cache.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the startup reachability check.
const pingTimeout = 5 * time.Second

// ValkeyOptions locates a Valkey server. DB selects the logical database;
// view counters and the stats cache share it.
type ValkeyOptions struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (o ValkeyOptions) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// ConnectValkey creates a client and pings it. The client is closed and an
// error returned when the server does not answer within pingTimeout, so
// callers can fall back to in-process counters.
func ConnectValkey(ctx context.Context, opts ValkeyOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr(),
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", opts.Addr(), err)
	}

	slog.Info("valkey connected", "addr", opts.Addr(), "db", opts.DB)
	return client, nil
}
