// Package store reads device states from the ioBroker states database kept in Redis.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/kostiamol/offsetms/calib"
	"github.com/kostiamol/offsetms/cfg"
	"github.com/kostiamol/offsetms/log"
	"github.com/pkg/errors"
)

const (
	maxIdleConns = 3
	idleTimeout  = 4 * time.Minute
)

// ErrMissingValue is returned when a state does not exist or holds null.
var ErrMissingValue = calib.ErrMissingValue

type (
	// Cfg is used to initialize an instance of Redis.
	Cfg struct {
		Addr          cfg.Addr
		Password      string
		KeyPrefix     string
		Log           log.Logger
		RetryTimeout  time.Duration
		RetryAttempts uint32
	}

	// Redis is a state reader backed by a Redis connection pool.
	Redis struct {
		pool   *redis.Pool
		prefix string
		log    log.Logger
	}

	// state is the JSON document ioBroker stores for every state id.
	state struct {
		Val interface{} `json:"val"`
		Ack bool        `json:"ack"`
		TS  int64       `json:"ts"`
	}
)

// NewRedis creates a new instance of Redis. Connections are dialed lazily by the pool.
func NewRedis(c *Cfg) *Redis {
	r := &Redis{
		prefix: c.KeyPrefix,
		log:    c.Log.With("component", "store", "type", "redis"),
	}
	addr := fmt.Sprintf("%s:%d", c.Addr.Host, c.Addr.Port)

	r.pool = &redis.Pool{
		MaxIdle:     maxIdleConns,
		IdleTimeout: idleTimeout,
		Dial: func() (redis.Conn, error) {
			return r.dial(addr, c.Password, c.RetryTimeout, c.RetryAttempts)
		},
		TestOnBorrow: func(conn redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := conn.Do("PING")
			return err
		},
	}
	return r
}

func (r *Redis) dial(addr, password string, retry time.Duration, attempts uint32) (redis.Conn, error) {
	var opts []redis.DialOption
	if password != "" {
		opts = append(opts, redis.DialPassword(password))
	}

	var attempt uint32
	for {
		conn, err := redis.Dial("tcp", addr, opts...)
		if err == nil {
			return conn, nil
		}
		attempt++
		if attempt >= attempts {
			return nil, errors.Wrapf(err, "dial %s after %d attempts", addr, attempt)
		}
		r.log.With("event", log.EventStoreInit).Errorf("func Dial: %s", err)
		d := time.Duration(rand.Int63n(int64(retry) + 1))
		time.Sleep(d + time.Second)
	}
}

// Check issues PING Redis command to check if Redis is ok.
func (r *Redis) Check() (bool, error) {
	conn := r.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return false, err
	}
	return true, nil
}

// State returns the numeric value of the state with the given id.
func (r *Redis) State(ctx context.Context, ref string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	conn := r.pool.Get()
	defer conn.Close()

	b, err := redis.Bytes(conn.Do("GET", r.prefix+ref))
	if err == redis.ErrNil {
		return 0, errors.Wrapf(ErrMissingValue, "state %s does not exist", ref)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "GET %s", r.prefix+ref)
	}

	var s state
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, errors.Wrapf(err, "decode state %s", ref)
	}
	return toNumber(ref, s.Val)
}

// Close releases the pool's connections.
func (r *Redis) Close() error {
	return r.pool.Close()
}

func toNumber(ref string, v interface{}) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errors.Wrapf(ErrMissingValue, "state %s is null", ref)
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errors.Errorf("state %s: %q is not a number", ref, t)
		}
		return f, nil
	}
	return 0, errors.Errorf("state %s: unexpected value type %T", ref, v)
}
