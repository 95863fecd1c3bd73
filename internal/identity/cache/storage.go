package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/tenantgate/tenantgate/internal/config"
)

const (
	// DriverRedis stores identities in redis.
	DriverRedis = "redis"
	// DriverMySQL stores identities in a mysql table.
	DriverMySQL = "mysql"
	// DriverPostgres stores identities in a postgres table.
	DriverPostgres = "postgres"

	storageTimeout = 2 * time.Second
)

var (
	// ErrUnknownDriver is returned for an unsupported cache driver.
	ErrUnknownDriver = errors.New("unknown identity cache driver")
	// ErrStorageUnavailable is returned when a table backed storage can't be opened.
	ErrStorageUnavailable = errors.New("identity cache storage unavailable")
)

// NewStorage opens the storage backend selected by cfg.Driver.
func NewStorage(cfg config.IdentityCache) (fiber.Storage, error) {
	switch cfg.Driver {
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, errors.Wrap(err, "failed to ping redis")
		}

		return NewRedisStorage(client), nil
	case DriverMySQL:
		return openTable(cfg.Driver, func() fiber.Storage {
			return mysql.New(mysql.Config{
				ConnectionURI: cfg.ConnectionURI,
				Table:         cfg.Table,
			})
		})
	case DriverPostgres:
		return openTable(cfg.Driver, func() fiber.Storage {
			return postgres.New(postgres.Config{
				ConnectionURI: cfg.ConnectionURI,
				Table:         cfg.Table,
			})
		})
	default:
		return nil, errors.Wrap(ErrUnknownDriver, cfg.Driver)
	}
}

// openTable runs a table backed storage constructor. Those panic when the
// database is unreachable, the panic is returned as an error instead.
func openTable(driver string, open func() fiber.Storage) (storage fiber.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			storage = nil
			err = errors.Wrapf(ErrStorageUnavailable, "%s: %v", driver, r)
		}
	}()

	return open(), nil
}

// RedisStorage adapts a go-redis client to fiber.Storage.
type RedisStorage struct {
	client redis.UniversalClient
}

var _ fiber.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a storage on top of client.
func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	return &RedisStorage{client: client}
}

// Get returns nil without error for a missing key.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	return val, err //nolint:wrapcheck
}

// Set stores val, exp of 0 keeps it forever.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	return s.client.Set(ctx, key, val, exp).Err() //nolint:wrapcheck
}

// Delete removes key.
func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	return s.client.Del(ctx, key).Err() //nolint:wrapcheck
}

// Reset removes all cached identities, other keys in the database are kept.
func (s *RedisStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return iter.Err() //nolint:wrapcheck
}

// Close closes the client.
func (s *RedisStorage) Close() error {
	return s.client.Close() //nolint:wrapcheck
}
