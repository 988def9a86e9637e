// Package settings builds the full settings payload required by the
// device's overwrite-only update endpoint.
package settings

import (
	"errors"
	"fmt"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

// ErrDeviceInfoUnavailable means a settings write was attempted without a
// cached snapshot to copy the unchanged fields from. The caller must abort
// the user action instead of sending a partial payload.
var ErrDeviceInfoUnavailable = errors.New("device info not available")

// Field selects which of the four settings a BuildUpdate call changes.
type Field string

const (
	FieldName            Field = "name"
	FieldSleepDuration   Field = "sleep_duration"
	FieldMaxIdle         Field = "max_idle"
	FieldWakeSensitivity Field = "idx_wake_sens"
)

// BuildUpdate merges one changed field with the cached snapshot into a
// complete payload. All four fields are always populated: the device
// endpoint overwrites the whole settings struct, and an omitted field
// would silently reset to a firmware default.
func BuildUpdate(current model.DeviceState, field Field, value any) (model.SettingsPayload, error) {
	payload := model.SettingsPayload{
		Name:          current.Name,
		SleepDuration: current.SleepDuration,
		MaxIdle:       current.MaxIdle,
		IdxWakeSens:   current.IdxWakeSens,
	}

	switch field {
	case FieldName:
		name, ok := value.(string)
		if !ok {
			return model.SettingsPayload{}, fmt.Errorf("settings field %s requires a string, got %T", field, value)
		}
		payload.Name = name
	case FieldSleepDuration:
		seconds, ok := value.(int)
		if !ok {
			return model.SettingsPayload{}, fmt.Errorf("settings field %s requires an int, got %T", field, value)
		}
		payload.SleepDuration = seconds
	case FieldMaxIdle:
		seconds, ok := value.(int)
		if !ok {
			return model.SettingsPayload{}, fmt.Errorf("settings field %s requires an int, got %T", field, value)
		}
		payload.MaxIdle = seconds
	case FieldWakeSensitivity:
		idx, ok := value.(int)
		if !ok {
			return model.SettingsPayload{}, fmt.Errorf("settings field %s requires an int, got %T", field, value)
		}
		payload.IdxWakeSens = idx
	default:
		return model.SettingsPayload{}, fmt.Errorf("unknown settings field %q", field)
	}

	return payload, nil
}
