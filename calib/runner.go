package calib

import (
	"context"
	"math"
	"time"

	"github.com/kostiamol/offsetms/log"
	"github.com/kostiamol/offsetms/metric"
	"github.com/pkg/errors"
	"github.com/satori/go.uuid"
)

// State suffixes of a thermostat's data points.
const (
	StateActualTemp = ".ACTUAL_TEMPERATURE"
	StateSetTemp    = ".SET_POINT_TEMPERATURE"
)

// ErrMissingValue is returned when a data point holds no usable number.
var ErrMissingValue = errors.New("missing value")

type (
	// StateReader is a contract for the state-read capability.
	StateReader interface {
		State(ctx context.Context, ref string) (float64, error)
	}

	// RunnerCfg is used to initialize an instance of Runner.
	RunnerCfg struct {
		Log    log.Logger
		Metric *metric.Metric
		Reader StateReader
		Writer ParamsetWriter
	}

	// Runner performs update cycles over the configured rooms.
	Runner struct {
		log     log.Logger
		metric  *metric.Metric
		reader  StateReader
		updater *Updater
	}
)

// NewRunner creates and initializes a new instance of Runner.
func NewRunner(c *RunnerCfg) *Runner {
	return &Runner{
		log:     c.Log.With("component", "calib"),
		metric:  c.Metric,
		reader:  c.Reader,
		updater: NewUpdater(c.Writer),
	}
}

// RunCycle processes every room and thermostat sequentially and returns one outcome per thermostat.
// Errors are contained per thermostat and never abort the cycle.
func (r *Runner) RunCycle(ctx context.Context, rooms []Room) []Outcome {
	start := time.Now()
	l := r.log.With("cycle", uuid.NewV4().String())
	l.With("event", log.EventCycleStarted).Infof("rooms: %d", len(rooms))

	var outcomes []Outcome
	for _, room := range rooms {
		l.Infof("=== processing room %s", room.Name)
		for _, ref := range ResolveRefs(room.Thermostats) {
			o := r.processThermostat(ctx, l, room, ref)
			r.metric.Outcome(string(o.Status))
			outcomes = append(outcomes, o)
		}
	}

	r.metric.Timing(start, "cycle")
	l.With("event", log.EventCycleFinished).Infof("outcomes: %d, took %s", len(outcomes), time.Since(start))
	return outcomes
}

func (r *Runner) processThermostat(ctx context.Context, l log.Logger, room Room, ref string) Outcome {
	o := Outcome{Room: room.Name, Thermostat: ref}

	setTemp, err := r.read(ctx, ref+StateSetTemp)
	if err != nil {
		return r.fail(l, o, "state_read", err)
	}

	if setTemp < room.MinSetTemp {
		l.With("event", log.EventThermostatSkipped).
			Debugf("%s: skip - thermostat's set temperature (%v) is below defined min temp (%v)",
				room.Name, setTemp, room.MinSetTemp)
		o.Status = StatusSkipped
		o.Reason = ReasonBelowMinSetTemp
		return o
	}

	actual, err := r.read(ctx, ref+StateActualTemp)
	if err != nil {
		return r.fail(l, o, "state_read", err)
	}
	external, err := r.read(ctx, room.Sensor)
	if err != nil {
		return r.fail(l, o, "state_read", err)
	}

	off := NewOffset(external, actual)
	o.Offset = &off
	l.Debugf("%s: temp thermostat: %v, temp external sensor: %v", room.Name, actual, external)
	l.Debugf("%s: offset: %v°C, rounded for the thermostat: %v°C", room.Name, off.Rounded, off.Device)

	t, err := ParseThermostatRef(ref)
	if err != nil {
		return r.fail(l, o, "config", err)
	}

	if err := r.updater.Apply(ctx, t.Group, t.ID, off.Device); err != nil {
		return r.fail(l, o, "device_write", err)
	}

	r.metric.Offset(room.Name, ref, off.Device)
	l.With("event", log.EventOffsetSet).Infof("%s: new offset of %v°C set on %s", room.Name, off.Device, ref)
	o.Status = StatusSuccess
	return o
}

func (r *Runner) read(ctx context.Context, ref string) (float64, error) {
	v, err := r.reader.State(ctx, ref)
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", ref)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrMissingValue, "read %s", ref)
	}
	return v, nil
}

func (r *Runner) fail(l log.Logger, o Outcome, cause string, err error) Outcome {
	r.metric.ErrorCounter(cause)
	l.With("event", log.EventOffsetFailed).Warnf("%s: error while setting offset on %s: %s", o.Room, o.Thermostat, err)
	o.Status = StatusFailed
	o.Err = err
	return o
}
