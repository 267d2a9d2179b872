package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Config for the optional redis presence mirror.
type Config struct {
	Addr     string
	Password string
	DB       int

	GatewayID string
	TTL       time.Duration // key lifetime; refreshed while the user stays online
}

// RedisPresence mirrors presence transitions into redis so HTTP-side code
// (e.g. the "online operators" indicator) can poll without reaching into the
// gateway process. Keys expire on their own if the gateway dies, which is why
// entries carry a TTL that the broadcaster refreshes.
//
// presence key: im:presence:<user>, value: gateway id.
type RedisPresence struct {
	rdb *redis.Client
	cfg Config
	ctx context.Context
}

func NewRedisPresence(cfg Config) (*RedisPresence, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	return &RedisPresence{rdb: rdb, cfg: cfg, ctx: ctx}, nil
}

func presenceKey(user string) string { return "im:presence:" + user }

// Online marks the user online and starts the TTL window.
func (p *RedisPresence) Online(user string) error {
	return p.rdb.Set(p.ctx, presenceKey(user), p.cfg.GatewayID, p.cfg.TTL).Err()
}

// Offline deletes the key immediately instead of waiting for expiry.
func (p *RedisPresence) Offline(user string) error {
	return p.rdb.Del(p.ctx, presenceKey(user)).Err()
}

// Refresh re-asserts every currently online user in one pipeline so their
// keys outlive the TTL as long as the connection does.
func (p *RedisPresence) Refresh(users []string) error {
	if len(users) == 0 {
		return nil
	}
	pipe := p.rdb.Pipeline()
	for _, u := range users {
		pipe.Set(p.ctx, presenceKey(u), p.cfg.GatewayID, p.cfg.TTL)
	}
	_, err := pipe.Exec(p.ctx)
	return err
}

// Lookup reports whether the user is online anywhere and on which gateway.
func (p *RedisPresence) Lookup(user string) (gatewayID string, online bool, err error) {
	val, err := p.rdb.Get(p.ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (p *RedisPresence) Close() error { return p.rdb.Close() }
