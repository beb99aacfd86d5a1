package calib

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Paramset names understood by the device layer.
const (
	ParamsetMaster   = "MASTER"
	ParamTempOffset  = "TEMPERATURE_OFFSET"
	offsetChannelSfx = ":1"
)

type (
	// ParamsetRequest targets a parameter set of one device channel.
	ParamsetRequest struct {
		ID        string                 `json:"ID"`
		ParamType string                 `json:"paramType"`
		Params    map[string]interface{} `json:"params,omitempty"`
	}

	// ParamsetResponse is the device layer's answer. A non-empty Error means the request failed.
	ParamsetResponse struct {
		Error  interface{} `json:"error,omitempty"`
		Result interface{} `json:"result,omitempty"`
	}

	// ParamsetWriter is a contract for the device-write capability.
	ParamsetWriter interface {
		PutParamset(ctx context.Context, group string, r *ParamsetRequest) (*ParamsetResponse, error)
	}

	// DeviceError carries the error payload the device layer returned.
	DeviceError struct {
		Payload interface{}
	}

	// Updater writes offsets to thermostats.
	Updater struct {
		writer ParamsetWriter
	}
)

func (e *DeviceError) Error() string {
	if s, ok := e.Payload.(string); ok {
		return "device: " + s
	}
	b, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Sprintf("device: %v", e.Payload)
	}
	return "device: " + string(b)
}

// NewUpdater creates an Updater that writes through w.
func NewUpdater(w ParamsetWriter) *Updater {
	return &Updater{writer: w}
}

// Failed reports whether the device layer answered with a non-empty error.
func (r *ParamsetResponse) Failed() bool {
	return r != nil && !isEmpty(r.Error)
}

// OffsetChannel returns the address of the device channel that holds the offset.
func OffsetChannel(id string) string {
	return id + offsetChannelSfx
}

// Apply writes offset to channel 1 of the device and waits for the device layer to answer.
func (u *Updater) Apply(ctx context.Context, group, id string, offset float64) error {
	req := &ParamsetRequest{
		ID:        OffsetChannel(id),
		ParamType: ParamsetMaster,
		Params:    map[string]interface{}{ParamTempOffset: offset},
	}

	resp, err := u.writer.PutParamset(ctx, group, req)
	if err != nil {
		return errors.Wrapf(err, "putParamset %s %s", group, req.ID)
	}
	if resp.Failed() {
		return &DeviceError{Payload: resp.Error}
	}
	return nil
}

// isEmpty reports whether v carries no information: nil, or a value whose JSON form is nothing but
// whitespace and quotes.
func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '"', '\'':
			return -1
		}
		return r
	}, string(b))
	return s == "" || s == "null"
}
