package cfg

import (
	"fmt"
	"io/ioutil"
	"math"
	"strconv"
	"strings"

	"github.com/kostiamol/offsetms/calib"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	roomsFile struct {
		Rooms []room `yaml:"rooms"`
	}

	// room accepts either a positional row
	//   [name, sensor, minSetTemp, thermostat1, thermostat2, ...]
	// or a mapping with the same fields.
	room struct {
		calib.Room
	}

	roomMapping struct {
		Name        string        `yaml:"name"`
		Sensor      string        `yaml:"sensor"`
		MinSetTemp  interface{}   `yaml:"min_set_temperature"`
		Thermostats []interface{} `yaml:"thermostats"`
	}
)

// LoadRooms reads and validates the rooms file at path.
func LoadRooms(path string) ([]calib.Room, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read rooms file")
	}
	return ParseRooms(b)
}

// ParseRooms decodes and validates a rooms document.
func ParseRooms(b []byte) ([]calib.Room, error) {
	var f roomsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrap(err, "decode rooms")
	}

	rooms := make([]calib.Room, 0, len(f.Rooms))
	seen := make(map[string]bool, len(f.Rooms))
	for i, r := range f.Rooms {
		if err := validateRoom(r.Room); err != nil {
			return nil, errors.Wrapf(err, "room #%d", i)
		}
		if seen[r.Name] {
			return nil, errors.Errorf("room #%d: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true
		rooms = append(rooms, r.Room)
	}
	return rooms, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *room) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var row []interface{}
		if err := n.Decode(&row); err != nil {
			return err
		}
		if len(row) < 3 {
			return errors.Errorf("line %d: row needs name, sensor and min set temperature", n.Line)
		}
		min, err := toFloat(row[2])
		if err != nil {
			return errors.Wrapf(err, "line %d: min set temperature", n.Line)
		}
		r.Room = calib.Room{
			Name:        toString(row[0]),
			Sensor:      toString(row[1]),
			MinSetTemp:  min,
			Thermostats: calib.ResolveThermostats(row[3:]),
		}
		return nil

	case yaml.MappingNode:
		var m roomMapping
		if err := n.Decode(&m); err != nil {
			return err
		}
		min, err := toFloat(m.MinSetTemp)
		if err != nil {
			return errors.Wrapf(err, "line %d: min set temperature", n.Line)
		}
		r.Room = calib.Room{
			Name:        strings.TrimSpace(m.Name),
			Sensor:      strings.TrimSpace(m.Sensor),
			MinSetTemp:  min,
			Thermostats: calib.ResolveThermostats(m.Thermostats),
		}
		return nil
	}
	return errors.Errorf("line %d: room must be a sequence or a mapping", n.Line)
}

func validateRoom(r calib.Room) error {
	if r.Name == "" {
		return errors.New("name is missing")
	}
	if r.Sensor == "" {
		return errors.Errorf("%s: sensor is missing", r.Name)
	}
	for _, t := range r.Thermostats {
		if _, err := calib.ParseThermostatRef(t); err != nil {
			return errors.Wrap(err, r.Name)
		}
	}
	return nil
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func toFloat(v interface{}) (float64, error) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case float64:
		f = t
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errors.Errorf("%q is not a number", t)
		}
		f = p
	case nil:
		return 0, errors.New("value is missing")
	default:
		return 0, errors.Errorf("unexpected type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("%v is not a finite number", f)
	}
	return f, nil
}
