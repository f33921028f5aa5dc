package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dashlite/go-admin-client/session"
)

// Persisted key names, shared with other clients of the same API.
const (
	accessTokenKey  = "auth_access_token"
	refreshTokenKey = "auth_refresh_token"
	loggedUserKey   = "logged_user"
)

const (
	defaultRedisPrefix = "admin_client"
	redisOpTimeout     = 5 * time.Second
)

var _ session.TokenStore = (*RedisStore)(nil)

// RedisStore keeps the session record in redis, for gateway deployments
// where more than one process shares the same session. Reads fail soft like
// every TokenStore: a redis error degrades to an absent value and is logged.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisStoreOption defines a function type to modify the RedisStore.
type RedisStoreOption func(*RedisStore)

// WithTTL expires the persisted keys after the given duration. Zero keeps
// them until Clear.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.ttl = ttl
	}
}

// NewRedisStore creates a RedisStore with the given key prefix.
func NewRedisStore(client *redis.Client, prefix string, options ...RedisStoreOption) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	rs := &RedisStore{client: client, prefix: prefix}
	for _, opt := range options {
		opt(rs)
	}
	return rs
}

func (rs *RedisStore) SaveTokens(accessToken, refreshToken string) error {
	ctx, cancel := rs.opContext()
	defer cancel()

	// Both tokens land in one transaction so the store never holds an access
	// token without its refresh token.
	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.key(accessTokenKey), accessToken, rs.ttl)
	pipe.Set(ctx, rs.key(refreshTokenKey), refreshToken, rs.ttl)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "[RedisStore.SaveTokens] pipeline exec")
}

func (rs *RedisStore) AccessToken() string {
	return rs.get(accessTokenKey)
}

func (rs *RedisStore) RefreshToken() string {
	return rs.get(refreshTokenKey)
}

func (rs *RedisStore) SaveUser(user *session.User) error {
	ctx, cancel := rs.opContext()
	defer cancel()

	data, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[RedisStore.SaveUser] marshal user")
	}
	if err := rs.client.Set(ctx, rs.key(loggedUserKey), data, rs.ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.SaveUser] set")
	}
	return nil
}

func (rs *RedisStore) User() *session.User {
	raw := rs.get(loggedUserKey)
	if raw == "" {
		return nil
	}
	var user session.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Err(err).Msg("Token store: malformed user record, treating as absent")
		return nil
	}
	return &user
}

func (rs *RedisStore) Clear() error {
	ctx, cancel := rs.opContext()
	defer cancel()

	err := rs.client.Del(ctx, rs.key(accessTokenKey), rs.key(refreshTokenKey), rs.key(loggedUserKey)).Err()
	return errors.Wrap(err, "[RedisStore.Clear] del")
}

func (rs *RedisStore) get(name string) string {
	ctx, cancel := rs.opContext()
	defer cancel()

	value, err := rs.client.Get(ctx, rs.key(name)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Err(err).Str("key", rs.key(name)).Msg("Token store: redis read failed, treating as absent")
		}
		return ""
	}
	return value
}

func (rs *RedisStore) key(name string) string {
	return rs.prefix + ":" + name
}

func (rs *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}
