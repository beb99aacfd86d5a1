// Package cfg loads the service configuration from the environment and the rooms from a YAML file.
package cfg

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Defaults.
const (
	DefaultSchedule           = "0 */3 * * *"
	DefaultStoreKeyPrefix     = "io."
	DefaultNATSSubjectPrefix  = "iobroker.sendto"
	DefaultNATSRequestTimeout = 5 * time.Second
)

type (
	// Config holds the whole service configuration.
	Config struct {
		Service Service
		Store   Store
		NATS    NATS
		Token   Token
	}

	// Addr is used to store IP address and an open port of the remote server.
	Addr struct {
		Host string
		Port uint64
	}
)

// NewConfig reads the configuration from the environment and validates it.
func NewConfig() (*Config, error) {
	c := &Config{
		Service: Service{
			AppID:              os.Getenv("APP_ID"),
			LogLevel:           os.Getenv("LOG_LEVEL"),
			RoomsFile:          os.Getenv("ROOMS_FILE"),
			Schedule:           strEnv("SCHEDULE", DefaultSchedule),
			RetryTimeout:       durationEnv("RETRY_TIMEOUT"),
			RetryAttempts:      uint32(uintEnv("RETRY_ATTEMPTS")),
			PortREST:           uint32(uintEnv("PORT_REST")),
			TerminationTimeout: durationEnv("TERMINATION_TIMEOUT"),
		},
		Store: Store{
			Addr: Addr{
				Host: os.Getenv("STORE_HOST"),
				Port: uintEnv("STORE_PORT"),
			},
			Password:  os.Getenv("STORE_PASSWORD"),
			KeyPrefix: strEnv("STORE_KEY_PREFIX", DefaultStoreKeyPrefix),
		},
		NATS: NATS{
			Addr: Addr{
				Host: os.Getenv("NATS_HOST"),
				Port: uintEnv("NATS_PORT"),
			},
			SubjectPrefix:  strEnv("NATS_SUBJECT_PREFIX", DefaultNATSSubjectPrefix),
			RequestTimeout: durationEnvDefault("NATS_REQUEST_TIMEOUT", DefaultNATSRequestTimeout),
		},
		Token: Token{
			PublicKey: os.Getenv("TOKEN_PUBLIC_KEY"),
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if err := c.Service.validate(); err != nil {
		return errors.Wrap(err, "service")
	}
	if err := c.Store.validate(); err != nil {
		return errors.Wrap(err, "store")
	}
	if err := c.NATS.validate(); err != nil {
		return errors.Wrap(err, "nats")
	}
	return nil
}

func strEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func uintEnv(key string) uint64 {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// durationEnv accepts either a Go duration ("10s") or a number of seconds.
func durationEnv(key string) time.Duration {
	return durationEnvDefault(key, 0)
}

func durationEnvDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if s, err := strconv.ParseUint(v, 10, 64); err == nil {
		return time.Duration(s) * time.Second
	}
	return def
}
