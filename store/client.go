// Package store wraps the shared key-value "blackboard" that
// coordinates master and executors: command/data flag slots, Φ/N row
// storage, and per-class normalizer hashmaps. It mirrors
// original_source/include/redis_client.h and src/redis_client.cc, but
// talks to Redis through github.com/gomodule/redigo/redis instead of
// raw hiredis calls.
package store

import (
	"fmt"

	"github.com/gomodule/redigo/redis"

	"github.com/bobonovski/clusterlda/wire"
)

// Client is the KV-store handle owned by one executor or master
// process. It is safe for concurrent use by multiple worker threads
// within the same process, since redis.Pool hands out its own
// connection per call.
type Client struct {
	pool *redis.Pool
}

// Dial opens a connection pool to a Redis instance at addr
// ("host:port"). One Client should be created per process and closed
// on exit, matching the "KV connections are opened once per thread;
// closed on thread exit" resource-lifecycle note (threads here share
// one pool instead of one connection each, since redigo's pool already
// gives each goroutine its own connection on demand).
func Dial(addr string) (*Client, error) {
	pool := &redis.Pool{
		MaxIdle:   16,
		MaxActive: 64,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
	}
	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: connect to %s: %w", addr, err)
	}
	return &Client{pool: pool}, nil
}

// Close releases all pooled connections.
func (c *Client) Close() error {
	return c.pool.Close()
}

// GetFlag reads a command/data slot's string value.
func (c *Client) GetFlag(key string) (string, error) {
	conn := c.pool.Get()
	defer conn.Close()
	return redis.String(conn.Do("GET", key))
}

// SetFlag writes a command/data slot's string value.
func (c *Client) SetFlag(key, value string) error {
	conn := c.pool.Get()
	defer conn.Close()
	_, err := conn.Do("SET", key, value)
	return err
}

// GetRow reads a Φ/N row of size floats.
func (c *Client) GetRow(key string, size int) ([]float32, error) {
	conn := c.pool.Get()
	defer conn.Close()
	buf, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		return nil, fmt.Errorf("store: get row %s: %w", key, err)
	}
	return wire.DecodeFloat32s(buf, size)
}

// SetRow unconditionally writes a Φ/N row.
func (c *Client) SetRow(key string, values []float32) error {
	conn := c.pool.Get()
	defer conn.Close()
	_, err := conn.Do("SET", key, wire.EncodeFloat32s(values))
	return err
}

// GetSetRow atomically installs newValues and returns the row's prior
// content, decoded at size. Used by normalization phase B to zero N
// while capturing its pre-reset content in one round trip.
func (c *Client) GetSetRow(key string, newValues []float32, size int) ([]float32, error) {
	conn := c.pool.Get()
	defer conn.Close()
	buf, err := redis.Bytes(conn.Do("GETSET", key, wire.EncodeFloat32s(newValues)))
	if err != nil {
		return nil, fmt.Errorf("store: getset row %s: %w", key, err)
	}
	return wire.DecodeFloat32s(buf, size)
}

// IncreaseRow adds increment elementwise into the stored row using
// optimistic watch/read/modify/commit, retrying up to maxRetries
// times on concurrent-write conflicts. Returns false (no error) if all
// retries are exhausted — a logged warning at the caller, not a fatal
// condition.
func (c *Client) IncreaseRow(key string, increment []float32, maxRetries int) (bool, error) {
	conn := c.pool.Get()
	defer conn.Close()

	size := len(increment)
	for attempt := 0; attempt < maxRetries; attempt++ {
		if _, err := conn.Do("WATCH", key); err != nil {
			return false, fmt.Errorf("store: watch %s: %w", key, err)
		}

		buf, err := redis.Bytes(conn.Do("GET", key))
		if err != nil {
			conn.Do("UNWATCH")
			return false, fmt.Errorf("store: get %s for increase: %w", key, err)
		}
		current, err := wire.DecodeFloat32s(buf, size)
		if err != nil {
			conn.Do("UNWATCH")
			return false, err
		}

		updated := make([]float32, size)
		for i := range updated {
			updated[i] = current[i] + increment[i]
		}

		if err := conn.Send("MULTI"); err != nil {
			return false, err
		}
		if err := conn.Send("SET", key, wire.EncodeFloat32s(updated)); err != nil {
			return false, err
		}
		reply, err := conn.Do("EXEC")
		if err != nil {
			return false, fmt.Errorf("store: exec increase %s: %w", key, err)
		}
		if reply != nil {
			return true, nil
		}
		// reply == nil means the watched key changed concurrently; retry.
	}
	return false, nil
}

// GetHash reads a normalizer hashmap (class id → T float64s).
func (c *Client) GetHash(key string, size int) (map[string][]float64, error) {
	conn := c.pool.Get()
	defer conn.Close()
	raw, err := redis.StringMap(conn.Do("HGETALL", key))
	if err != nil {
		if err == redis.ErrNil {
			return map[string][]float64{}, nil
		}
		return nil, fmt.Errorf("store: hgetall %s: %w", key, err)
	}
	out := make(map[string][]float64, len(raw))
	for field, val := range raw {
		vec, err := wire.DecodeFloat64s([]byte(val), size)
		if err != nil {
			return nil, err
		}
		out[field] = vec
	}
	return out, nil
}

// SetHash overwrites a normalizer hashmap's fields wholesale.
func (c *Client) SetHash(key string, data map[string][]float64) error {
	conn := c.pool.Get()
	defer conn.Close()
	if _, err := conn.Do("DEL", key); err != nil {
		return fmt.Errorf("store: del %s before hash write: %w", key, err)
	}
	if len(data) == 0 {
		return nil
	}
	args := redis.Args{}.Add(key)
	for field, vec := range data {
		args = args.Add(field, string(wire.EncodeFloat64s(vec)))
	}
	_, err := conn.Do("HSET", args...)
	return err
}
