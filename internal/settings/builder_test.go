package settings

import (
	"testing"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

func snapshot() model.DeviceState {
	return model.DeviceState{
		Name:          "Hallway Canvas",
		SleepDuration: 86400,
		MaxIdle:       300,
		IdxWakeSens:   3,
	}
}

func TestBuildUpdateChangesExactlyOneField(t *testing.T) {
	cases := []struct {
		name  string
		field Field
		value any
		want  model.SettingsPayload
	}{
		{
			name:  "name",
			field: FieldName,
			value: "Kitchen Canvas",
			want:  model.SettingsPayload{Name: "Kitchen Canvas", SleepDuration: 86400, MaxIdle: 300, IdxWakeSens: 3},
		},
		{
			name:  "sleep duration",
			field: FieldSleepDuration,
			value: 43200,
			want:  model.SettingsPayload{Name: "Hallway Canvas", SleepDuration: 43200, MaxIdle: 300, IdxWakeSens: 3},
		},
		{
			name:  "max idle sentinel",
			field: FieldMaxIdle,
			value: -1,
			want:  model.SettingsPayload{Name: "Hallway Canvas", SleepDuration: 86400, MaxIdle: -1, IdxWakeSens: 3},
		},
		{
			name:  "wake sensitivity",
			field: FieldWakeSensitivity,
			value: 5,
			want:  model.SettingsPayload{Name: "Hallway Canvas", SleepDuration: 86400, MaxIdle: 300, IdxWakeSens: 5},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BuildUpdate(snapshot(), tc.field, tc.value)
			if err != nil {
				t.Fatalf("BuildUpdate() error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("BuildUpdate() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBuildUpdateRejectsWrongValueType(t *testing.T) {
	if _, err := BuildUpdate(snapshot(), FieldSleepDuration, "1 day"); err == nil {
		t.Fatal("BuildUpdate() error = nil for string sleep duration, want non-nil")
	}
	if _, err := BuildUpdate(snapshot(), FieldName, 42); err == nil {
		t.Fatal("BuildUpdate() error = nil for int name, want non-nil")
	}
}

func TestBuildUpdateRejectsUnknownField(t *testing.T) {
	if _, err := BuildUpdate(snapshot(), Field("brightness"), 1); err == nil {
		t.Fatal("BuildUpdate() error = nil for unknown field, want non-nil")
	}
}
