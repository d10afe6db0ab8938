// Package chatguard rate-limits paid turns per payer address. It is an
// operational guard, not game logic: without redis configured, or on any
// redis failure, it fails open so an outage can never block paid turns.
package chatguard

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type Guard struct {
	rdb      *redis.Client
	cooldown time.Duration
}

// New connects to redis and verifies the connection. A nil *Guard is a
// valid no-op guard.
func New(addr, password string, db int, cooldown time.Duration) (*Guard, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Guard{rdb: rdb, cooldown: cooldown}, nil
}

// Allow reports whether the address may submit a turn now. The first call
// inside a cooldown window wins; later calls are rejected until it expires.
func (g *Guard) Allow(ctx context.Context, address string) bool {
	if g == nil || g.rdb == nil || address == "" {
		return true
	}

	key := fmt.Sprintf("cooldown:chat:%s", address)
	ok, err := g.rdb.SetNX(ctx, key, 1, g.cooldown).Result()
	if err != nil {
		log.Printf("Cooldown check failed for %s, allowing turn: %v", address, err)
		return true
	}
	return ok
}
