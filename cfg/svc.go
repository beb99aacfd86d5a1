package cfg

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Service holds basic service configuration.
type Service struct {
	AppID              string
	LogLevel           string
	RoomsFile          string
	Schedule           string
	RetryTimeout       time.Duration
	RetryAttempts      uint32
	PortREST           uint32
	TerminationTimeout time.Duration
}

func (s Service) validate() error {
	if s.AppID == "" {
		return fmt.Errorf("app id env var is missing")
	}
	if s.LogLevel == "" {
		return fmt.Errorf("log level env var is missing")
	}
	if s.RoomsFile == "" {
		return fmt.Errorf("rooms file env var is missing")
	}
	if _, err := cron.ParseStandard(s.Schedule); err != nil {
		return fmt.Errorf("schedule env var is invalid: %s", err)
	}
	if s.RetryAttempts == 0 {
		return fmt.Errorf("retry attempts env var is missing")
	}
	if s.RetryTimeout == 0 {
		return fmt.Errorf("retry timeout env var is missing")
	}
	if s.PortREST == 0 {
		return fmt.Errorf("rest port env var is missing")
	}
	if s.TerminationTimeout == 0 {
		return fmt.Errorf("termination timeout env var is missing")
	}
	return nil
}
