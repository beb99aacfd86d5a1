package cfg

import (
	"fmt"
)

// Store holds configuration of the Redis states database.
type Store struct {
	Addr      Addr
	Password  string
	KeyPrefix string
}

func (s Store) validate() error {
	if s.Addr.Host == "" {
		return fmt.Errorf("store host env var is missing")
	}
	if s.Addr.Port == 0 {
		return fmt.Errorf("store port env var is missing")
	}
	return nil
}
