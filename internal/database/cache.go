package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yassinebk/TaleForge/internal/data"
)

const leaderboardTTL = 60 * time.Second

// leaderboardCache is a cache-aside layer over redis for the leaderboard
// query. It is disabled entirely when REDIS_ADDR is unset, and a failing
// redis only costs cache misses.
type leaderboardCache struct {
	client *redis.Client
}

func newLeaderboardCache() *leaderboardCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return &leaderboardCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return &leaderboardCache{client: client}
}

func (c *leaderboardCache) enabled() bool {
	return c.client != nil
}

func (c *leaderboardCache) ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func leaderboardKey(limit int) string {
	return fmt.Sprintf("leaderboard:%d", limit)
}

func (c *leaderboardCache) getLeaderboard(ctx context.Context, limit int) ([]data.LeaderboardEntry, bool) {
	if !c.enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, leaderboardKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Error reading leaderboard cache: %v", err)
		}
		return nil, false
	}
	var entries []data.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("Error decoding cached leaderboard: %v", err)
		return nil, false
	}
	return entries, true
}

func (c *leaderboardCache) setLeaderboard(ctx context.Context, limit int, entries []data.LeaderboardEntry) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		log.Printf("Error encoding leaderboard for cache: %v", err)
		return
	}
	if err := c.client.Set(ctx, leaderboardKey(limit), raw, leaderboardTTL).Err(); err != nil {
		log.Printf("Error writing leaderboard cache: %v", err)
	}
}

// invalidate drops every cached leaderboard page. Called after point awards
// so a freshly completed battle shows up without waiting out the TTL.
func (c *leaderboardCache) invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "leaderboard:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
