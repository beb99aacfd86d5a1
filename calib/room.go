package calib

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Room is one external sensor and the thermostats located in the same space.
type Room struct {
	Name        string   `json:"name"`
	Sensor      string   `json:"sensor"`
	MinSetTemp  float64  `json:"min_set_temperature"`
	Thermostats []string `json:"thermostats"`
}

// Target addresses a thermostat on the device layer.
type Target struct {
	Group string
	ID    string
}

// ResolveThermostats returns the truthy thermostat slots of a room in their original order. Unused slots
// (nil, empty or blank strings, zero numbers, false and NaN) are dropped.
func ResolveThermostats(slots []interface{}) []string {
	refs := make([]string, 0, len(slots))
	for _, s := range slots {
		if !truthy(s) {
			continue
		}
		if str, ok := s.(string); ok {
			refs = append(refs, strings.TrimSpace(str))
			continue
		}
		refs = append(refs, fmt.Sprint(s))
	}
	return refs
}

// ResolveRefs is ResolveThermostats for a room whose slots are already strings.
func ResolveRefs(refs []string) []string {
	slots := make([]interface{}, len(refs))
	for i, r := range refs {
		slots[i] = r
	}
	return ResolveThermostats(slots)
}

func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// ParseThermostatRef splits a state reference like "hm-rpc.0.ABCDEFGHJ.4" into the device group
// ("hm-rpc.0") and the device id ("ABCDEFGHJ"). The channel is not part of the target.
func ParseThermostatRef(ref string) (Target, error) {
	parts := strings.Split(ref, ".")
	if len(parts) < 3 {
		return Target{}, errors.Errorf("thermostat ref %q: want at least 3 dot-separated segments", ref)
	}
	for _, p := range parts[:3] {
		if p == "" {
			return Target{}, errors.Errorf("thermostat ref %q: empty segment", ref)
		}
	}
	return Target{
		Group: parts[0] + "." + parts[1],
		ID:    parts[2],
	}, nil
}
