package svc

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Ctrl contains StopChan that allows to terminate all the services that listen the channel.
type Ctrl struct {
	StopChan chan struct{}
}

// NewCtrl returns a Ctrl with an open StopChan.
func NewCtrl() Ctrl {
	return Ctrl{StopChan: make(chan struct{})}
}

// Wait blocks until an interrupt or termination signal arrives or StopChan is closed by one of the
// services. Then it gives the services t to shut down.
func (c *Ctrl) Wait(t time.Duration) {
	inter := make(chan os.Signal, 1)
	signal.Notify(inter, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(inter)

	select {
	case <-inter:
		c.Terminate()
	case <-c.StopChan:
	}

	<-time.NewTimer(t).C
}

// Terminate closes StopChan to signal all the services to shutdown.
func (c *Ctrl) Terminate() {
	select {
	case <-c.StopChan:
	default:
		close(c.StopChan)
	}
}

// Stopped reports whether StopChan is closed.
func (c *Ctrl) Stopped() bool {
	select {
	case <-c.StopChan:
		return true
	default:
		return false
	}
}
