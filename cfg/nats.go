package cfg

import (
	"fmt"
	"time"
)

// NATS holds nats configuration.
type NATS struct {
	Addr           Addr
	SubjectPrefix  string
	RequestTimeout time.Duration
}

// URL returns the nats server url.
func (n NATS) URL() string {
	return fmt.Sprintf("nats://%s:%d", n.Addr.Host, n.Addr.Port)
}

func (n NATS) validate() error {
	if n.Addr.Host == "" {
		return fmt.Errorf("nats host env var is missing")
	}
	if n.Addr.Port == 0 {
		return fmt.Errorf("nats port env var is missing")
	}
	if n.SubjectPrefix == "" {
		return fmt.Errorf("nats subject prefix env var is missing")
	}
	if n.RequestTimeout <= 0 {
		return fmt.Errorf("nats request timeout env var is invalid")
	}
	return nil
}
