package cfg

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validService() Service {
	return Service{
		AppID:              "offsetms",
		LogLevel:           "debug",
		RoomsFile:          "rooms.yaml",
		Schedule:           DefaultSchedule,
		RetryTimeout:       time.Second,
		RetryAttempts:      5,
		PortREST:           2222,
		TerminationTimeout: time.Second,
	}
}

func setEnv(t *testing.T, env map[string]string) {
	for k, v := range env {
		old, had := os.LookupEnv(k)
		require.NoError(t, os.Setenv(k, v))
		k := k
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, old)
				return
			}
			_ = os.Unsetenv(k)
		})
	}
}

func TestNewConfigMissingEnv(t *testing.T) {
	setEnv(t, map[string]string{"APP_ID": ""})
	_, err := NewConfig()
	assert.NotNil(t, err)
}

func TestNewConfig(t *testing.T) {
	setEnv(t, map[string]string{
		"APP_ID":              "offsetms",
		"LOG_LEVEL":           "info",
		"ROOMS_FILE":          "rooms.yaml",
		"SCHEDULE":            "@every 3h",
		"RETRY_TIMEOUT":       "10",
		"RETRY_ATTEMPTS":      "3",
		"PORT_REST":           "8080",
		"TERMINATION_TIMEOUT": "5s",
		"STORE_HOST":          "localhost",
		"STORE_PORT":          "6379",
		"NATS_HOST":           "localhost",
		"NATS_PORT":           "4222",
	})

	c, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "@every 3h", c.Service.Schedule)
	assert.Equal(t, 10*time.Second, c.Service.RetryTimeout)
	assert.Equal(t, 5*time.Second, c.Service.TerminationTimeout)
	assert.Equal(t, DefaultStoreKeyPrefix, c.Store.KeyPrefix)
	assert.Equal(t, DefaultNATSSubjectPrefix, c.NATS.SubjectPrefix)
	assert.Equal(t, DefaultNATSRequestTimeout, c.NATS.RequestTimeout)
	assert.Equal(t, "nats://localhost:4222", c.NATS.URL())
	assert.False(t, c.Token.Enabled())
}

func TestConfig(t *testing.T) {
	c := &Config{
		Service: validService(),
		Store: Store{
			Addr: Addr{Host: "localhost", Port: 6379},
		},
		NATS: NATS{
			Addr:           Addr{Host: "localhost", Port: 4222},
			SubjectPrefix:  DefaultNATSSubjectPrefix,
			RequestTimeout: time.Second,
		},
	}
	err := c.validate()
	assert.Nil(t, err)

	c = &Config{}
	err = c.validate()
	assert.NotNil(t, err)
}

func TestServiceConfig(t *testing.T) {
	svc := validService()
	assert.Nil(t, svc.validate())

	broken := []func(*Service){
		func(s *Service) { s.AppID = "" },
		func(s *Service) { s.LogLevel = "" },
		func(s *Service) { s.RoomsFile = "" },
		func(s *Service) { s.Schedule = "every now and then" },
		func(s *Service) { s.RetryAttempts = 0 },
		func(s *Service) { s.RetryTimeout = 0 },
		func(s *Service) { s.PortREST = 0 },
		func(s *Service) { s.TerminationTimeout = 0 },
	}
	for i, b := range broken {
		s := validService()
		b(&s)
		assert.NotNil(t, s.validate(), "case %d", i)
	}
}

func TestStoreConfig(t *testing.T) {
	s := Store{Addr: Addr{Host: "localhost", Port: 1111}}
	assert.Nil(t, s.validate())

	s = Store{}
	assert.NotNil(t, s.validate())

	s = Store{Addr: Addr{Host: "localhost"}}
	assert.NotNil(t, s.validate())
}

func TestNATSConfig(t *testing.T) {
	n := NATS{Addr: Addr{Host: "localhost", Port: 4222}, SubjectPrefix: "iobroker.sendto", RequestTimeout: time.Second}
	assert.Nil(t, n.validate())

	n.RequestTimeout = 0
	assert.NotNil(t, n.validate())

	n = NATS{Addr: Addr{Host: "localhost"}}
	assert.NotNil(t, n.validate())
}

func TestDurationEnv(t *testing.T) {
	setEnv(t, map[string]string{"D_SECONDS": "7", "D_GO": "1m", "D_BAD": "soon"})
	assert.Equal(t, 7*time.Second, durationEnv("D_SECONDS"))
	assert.Equal(t, time.Minute, durationEnv("D_GO"))
	assert.Equal(t, time.Duration(0), durationEnv("D_BAD"))
	assert.Equal(t, time.Hour, durationEnvDefault("D_UNSET_FOR_TEST", time.Hour))
}
