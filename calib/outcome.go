package calib

import "encoding/json"

// Status is the result class of one thermostat in a cycle.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ReasonBelowMinSetTemp is reported when a thermostat's set temperature is below the room's minimum.
const ReasonBelowMinSetTemp = "below minimum set temperature"

// Outcome reports what happened to one thermostat in a cycle. It is not retained between cycles.
type Outcome struct {
	Room       string  `json:"room"`
	Thermostat string  `json:"thermostat"`
	Status     Status  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	Err        error   `json:"-"`
	Offset     *Offset `json:"offset,omitempty"`
}

// MarshalJSON renders Err as a string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type outcome Outcome
	v := struct {
		outcome
		Error string `json:"error,omitempty"`
	}{outcome: outcome(o)}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	return json.Marshal(v)
}
