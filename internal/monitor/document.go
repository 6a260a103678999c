package monitor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"gopkg.in/yaml.v3"
)

// Document is the monitor configuration. JSON documents parse as well.
type Document struct {
	Fans []FanDefinition `yaml:"fans"`
}

// FanDefinition declares one monitored fan. Times are in seconds.
type FanDefinition struct {
	Inventory                      string             `yaml:"inventory"`
	Method                         string             `yaml:"method"`
	Threshold                      int                `yaml:"threshold"`
	AllowedOutOfRangeTime          uint               `yaml:"allowed_out_of_range_time"`
	FunctionalDelay                uint               `yaml:"functional_delay"`
	Deviation                      *float64           `yaml:"deviation"`
	NumSensorsNonfuncForFanNonfunc int                `yaml:"num_sensors_nonfunc_for_fan_nonfunc"`
	MonitorStartDelay              uint               `yaml:"monitor_start_delay"`
	NonfuncRotorErrorDelay         *uint              `yaml:"nonfunc_rotor_error_delay"`
	Boundary                       string             `yaml:"boundary"`
	Sensors                        []SensorDefinition `yaml:"sensors"`
}

// SensorDefinition declares one tach point of a fan.
type SensorDefinition struct {
	Name            string   `yaml:"name"`
	HasTarget       bool     `yaml:"has_target"`
	TargetInterface string   `yaml:"target_interface"`
	Factor          *float64 `yaml:"factor"`
	Offset          float64  `yaml:"offset"`
}

// LoadDocument reads and validates a monitor document.
func LoadDocument(path string) ([]FanParams, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errFactory.Wrap(ErrReadDocument, err)
	}

	return ParseDocument(data)
}

// ParseDocument parses a monitor document into fan parameters. Any invalid
// entry fails the whole document.
func ParseDocument(data []byte) ([]FanParams, error) {
	errFactory := errors.New()

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errFactory.Wrap(ErrParseDocument, err)
	}

	if len(doc.Fans) == 0 {
		return nil, errFactory.New(ErrNoFans)
	}

	seen := make(map[string]struct{}, len(doc.Fans))
	fans := make([]FanParams, 0, len(doc.Fans))
	for i, def := range doc.Fans {
		p, err := def.params(i)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p.Path]; dup {
			return nil, errFactory.WithData(ErrDuplicateInventory, p.Path)
		}
		seen[p.Path] = struct{}{}
		fans = append(fans, p)
	}

	return fans, nil
}

func (def FanDefinition) params(index int) (FanParams, error) {
	errFactory := errors.New()

	if def.Inventory == "" {
		return FanParams{}, errFactory.WithData(ErrMissingInventory, fmt.Sprintf("fan %d", index))
	}
	if len(def.Sensors) == 0 {
		return FanParams{}, errFactory.WithData(ErrMissingSensors, def.Inventory)
	}

	method, err := parseMethod(def.Method)
	if err != nil {
		return FanParams{}, err
	}

	p := FanParams{
		Path:                           def.Inventory,
		NumSensorsNonfuncForFanNonfunc: def.NumSensorsNonfuncForFanNonfunc,
		MonitorStartDelay:              seconds(def.MonitorStartDelay),
	}

	switch method {
	case MethodTimeBased:
		if def.Deviation == nil {
			return FanParams{}, errFactory.WithData(ErrMissingDeviation, def.Inventory)
		}
	case MethodCount:
		if def.Threshold <= 0 {
			return FanParams{}, errFactory.WithData(ErrInvalidThreshold, def.Inventory)
		}
	}
	if def.Deviation != nil {
		p.Deviation = *def.Deviation
	}

	switch strings.ToLower(def.Boundary) {
	case "", "inclusive":
		p.Boundary = BoundaryInclusive
	case "exclusive":
		p.Boundary = BoundaryExclusive
	default:
		return FanParams{}, errFactory.WithData(ErrInvalidBoundary, def.Boundary)
	}

	var errorDelay *time.Duration
	if def.NonfuncRotorErrorDelay != nil {
		d := seconds(*def.NonfuncRotorErrorDelay)
		errorDelay = &d
	}

	p.Sensors = make([]SensorParams, 0, len(def.Sensors))
	for _, sd := range def.Sensors {
		if sd.Name == "" {
			return FanParams{}, errFactory.WithData(ErrMissingSensorName, def.Inventory)
		}

		factor := 1.0
		if sd.Factor != nil {
			factor = *sd.Factor
		}
		if factor <= 0 {
			return FanParams{}, errFactory.WithData(ErrInvalidFactor, sd.Name)
		}

		p.Sensors = append(p.Sensors, SensorParams{
			Name:            sd.Name,
			HasTarget:       sd.HasTarget,
			TargetInterface: sd.TargetInterface,
			Factor:          factor,
			Offset:          sd.Offset,
			Method:          method,
			Threshold:       def.Threshold,
			Timeout:         seconds(def.AllowedOutOfRangeTime),
			FuncDelay:       seconds(def.FunctionalDelay),
			ErrorDelay:      errorDelay,
		})
	}

	return p, nil
}

func parseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "timebased":
		return MethodTimeBased, nil
	case "count":
		return MethodCount, nil
	default:
		return 0, errors.New().WithData(ErrInvalidMethod, s)
	}
}

func seconds(n uint) time.Duration {
	return time.Duration(n) * time.Second
}
