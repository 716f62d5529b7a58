// Initialization of Redis client to be used internally in Codepad.

package db

import (
	"Codepad/pkg/log"
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// RedisDB represents a redis client connection to be used internally in Codepad.
type RedisDB struct {
	client       *redis.Client
	txMaxRetries int
}

// Options needed to reach the redis-server.
type Options struct {
	Addr         string
	Port         string
	Password     string
	DBNumber     int
	TxMaxRetries int
}

// Client returns the redis client wrapped by RedisDB.
func (db *RedisDB) Client() *redis.Client {
	return db.client
}

// GetMaxRetries returns the number of allowed retries in a watched redis transaction
func (db *RedisDB) GetMaxRetries() int {
	return db.txMaxRetries
}

// Returns a new Redis DB connection wrapped up by RedisDB struct.
func NewDbConnection(ctx context.Context, logger log.Logger, opts Options) (*RedisDB, error) {
	if opts.Addr == "" || opts.Port == "" {
		logger.WithCtx(ctx).Error().Msg("Redis address or port is missing")
		return nil, errors.New("improper redis options")
	}
	if opts.TxMaxRetries <= 0 {
		opts.TxMaxRetries = 1
	}

	// Initializing a connection to Redis-server
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr + ":" + opts.Port,
		Password: opts.Password,
		DB:       opts.DBNumber,
	})
	return &RedisDB{client: client, txMaxRetries: opts.TxMaxRetries}, nil
}

// Helper to check connection status of redis client to redis-server.
// Equivalent to a PING request on redis-server, returns PONG on success.
func (db *RedisDB) CheckDbConnection(ctx context.Context, logger log.Logger) error {
	logger.WithCtx(ctx).Info().Msg("Checking DB Connection . . .")
	// Pinging the Redis-server to check connection status
	cnterr := db.Client().Ping(ctx).Err()
	if cnterr != nil {
		// Most likely, DB connection failure
		logger.WithCtx(ctx).Error().Err(cnterr).Msg("Redis client couldn't PING the redis-server.")
		return cnterr
	}
	// Connection successful
	logger.WithCtx(ctx).Info().Msg("Connection to DB Successful")
	return nil
}

// Helper to close the RedisDB client, should be called before closing the server.
func (db *RedisDB) CloseDbConnection(ctx context.Context) error {
	return db.Client().Close()
}
