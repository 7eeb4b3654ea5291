package realtime

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates the client used for cross-instance message notifications
// (publishes on notifications:<user_id>).
func NewRedis(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	log.Printf("redis client created (addr: %s)", addr)
	return rdb
}
