package canvas

import "fmt"

// UnknownCommandError means a caller asked for a command the device does
// not implement. This is a caller bug, not a device condition.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	if e == nil {
		return "unknown command"
	}
	return fmt.Sprintf("unknown device command %q", e.Name)
}
