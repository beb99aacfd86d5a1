// Package device talks to the device layer (ioBroker sendTo) over NATS request/reply.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/kostiamol/offsetms/calib"
	"github.com/kostiamol/offsetms/log"
	"github.com/nats-io/go-nats"
	"github.com/pkg/errors"
)

// Commands understood by the device layer.
const (
	CmdPutParamset = "putParamset"
	CmdGetParamset = "getParamset"
)

type (
	requester interface {
		RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
		Close()
	}

	// Cfg is used to initialize an instance of Client.
	Cfg struct {
		URL            string
		Name           string
		SubjectPrefix  string
		RequestTimeout time.Duration
		Log            log.Logger
		RetryTimeout   time.Duration
		RetryAttempts  uint32
	}

	// Client sends paramset requests to the device layer and waits for the answer.
	Client struct {
		conn    requester
		prefix  string
		timeout time.Duration
		log     log.Logger
	}
)

// Connect dials the nats server, retrying with a randomized pause, and returns a ready Client.
func Connect(c *Cfg) (*Client, error) {
	l := c.Log.With("component", "device")

	var (
		conn         *nats.Conn
		err          error
		retryAttempt uint32
	)
	for {
		conn, err = nats.Connect(c.URL, nats.Name(c.Name))
		if err != nil && retryAttempt+1 < c.RetryAttempts {
			l.Errorf("func Connect: nats connectivity status is DISCONNECTED: %s", err)
			retryAttempt++
			d := time.Duration(rand.Int63n(int64(c.RetryTimeout) + 1))
			time.Sleep(d + time.Second)
			continue
		}
		break
	}
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", c.URL)
	}

	return newClient(conn, c.SubjectPrefix, c.RequestTimeout, l), nil
}

func newClient(r requester, prefix string, timeout time.Duration, l log.Logger) *Client {
	return &Client{
		conn:    r,
		prefix:  prefix,
		timeout: timeout,
		log:     l,
	}
}

// PutParamset writes a parameter set of a device channel.
func (c *Client) PutParamset(ctx context.Context, group string, r *calib.ParamsetRequest) (*calib.ParamsetResponse, error) {
	return c.send(ctx, group, CmdPutParamset, r)
}

// GetParamset reads a parameter set of a device channel.
func (c *Client) GetParamset(ctx context.Context, group string, r *calib.ParamsetRequest) (*calib.ParamsetResponse, error) {
	return c.send(ctx, group, CmdGetParamset, r)
}

// Close closes the nats connection.
func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) subject(group, cmd string) string {
	return fmt.Sprintf("%s.%s.%s", c.prefix, group, cmd)
}

func (c *Client) send(ctx context.Context, group, cmd string, r *calib.ParamsetRequest) (*calib.ParamsetResponse, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "func Marshal")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	subj := c.subject(group, cmd)
	msg, err := c.conn.RequestWithContext(ctx, subj, b)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", subj)
	}

	var resp calib.ParamsetResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, errors.Wrapf(err, "decode reply of %s", subj)
	}

	c.log.Debugf("%s %s: %s -> %s", cmd, group, b, msg.Data)
	return &resp, nil
}
