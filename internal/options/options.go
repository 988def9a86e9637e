// Package options maps the human-readable labels of the three canvas
// settings axes to the device-native numeric values and back.
//
// Each axis is a small closed enumeration held in a fixed ordered table.
// Encode is strict: a label outside the set is a caller bug and fails with
// UnknownLabelError. Decode is total: firmware may report values outside
// the enumerated set, so an unmatched value degrades to the axis default
// label instead of erroring.
package options

import "fmt"

// Axis identifies one of the three independent settings dimensions.
type Axis string

const (
	AxisSleepDuration   Axis = "sleep_duration"
	AxisMaxIdle         Axis = "max_idle"
	AxisWakeSensitivity Axis = "wake_sensitivity"
)

// UnknownLabelError reports an Encode call with a label outside the axis's
// closed set. It is distinct from any device/connectivity condition.
type UnknownLabelError struct {
	Axis  Axis
	Label string
}

func (e *UnknownLabelError) Error() string {
	if e == nil {
		return "unknown option label"
	}
	return fmt.Sprintf("unknown %s label %q", e.Axis, e.Label)
}

type entry struct {
	label string
	value int
}

// Codec is one axis's bidirectional label/value table.
type Codec struct {
	axis         Axis
	entries      []entry
	defaultLabel string
	defaultValue int
}

var sleepDuration = &Codec{
	axis: AxisSleepDuration,
	entries: []entry{
		{"12 hours", 43200},
		{"1 day", 86400},
		{"2 days", 172800},
		{"3 days", 259200},
		{"5 days", 432000},
		{"7 days", 604800},
	},
	defaultLabel: "1 day",
	defaultValue: 86400,
}

// The -1 sentinel disables idle sleep entirely.
var maxIdle = &Codec{
	axis: AxisMaxIdle,
	entries: []entry{
		{"10 seconds", 10},
		{"30 seconds", 30},
		{"1 minute", 60},
		{"2 minutes", 120},
		{"3 minutes", 180},
		{"5 minutes", 300},
		{"10 minutes", 600},
		{"never sleep", -1},
	},
	defaultLabel: "5 minutes",
	defaultValue: 300,
}

var wakeSensitivity = &Codec{
	axis: AxisWakeSensitivity,
	entries: []entry{
		{"very low", 1},
		{"low", 2},
		{"medium", 3},
		{"high", 4},
		{"very high", 5},
	},
	defaultLabel: "medium",
	defaultValue: 3,
}

// SleepDuration returns the sleep-duration axis codec.
func SleepDuration() *Codec { return sleepDuration }

// MaxIdle returns the max-idle axis codec.
func MaxIdle() *Codec { return maxIdle }

// WakeSensitivity returns the wake-sensitivity axis codec.
func WakeSensitivity() *Codec { return wakeSensitivity }

// ByAxis resolves a codec from its axis identifier.
func ByAxis(axis Axis) (*Codec, bool) {
	switch axis {
	case AxisSleepDuration:
		return sleepDuration, true
	case AxisMaxIdle:
		return maxIdle, true
	case AxisWakeSensitivity:
		return wakeSensitivity, true
	default:
		return nil, false
	}
}

func (c *Codec) Axis() Axis { return c.axis }

// Labels returns the axis labels in table order.
func (c *Codec) Labels() []string {
	labels := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		labels = append(labels, e.label)
	}
	return labels
}

// Encode maps a label to its device value; exact match only.
func (c *Codec) Encode(label string) (int, error) {
	for _, e := range c.entries {
		if e.label == label {
			return e.value, nil
		}
	}
	return 0, &UnknownLabelError{Axis: c.axis, Label: label}
}

// Decode maps a device value to its label, falling back to the axis
// default for values outside the enumerated set.
func (c *Codec) Decode(value int) string {
	for _, e := range c.entries {
		if e.value == value {
			return e.label
		}
	}
	return c.defaultLabel
}

// DefaultLabel returns the label Decode degrades to.
func (c *Codec) DefaultLabel() string { return c.defaultLabel }

// DefaultValue returns the device value behind the default label.
func (c *Codec) DefaultValue() int { return c.defaultValue }
