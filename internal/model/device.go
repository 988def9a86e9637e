package model

import "time"

// DeviceState is one full snapshot of the fields reported by the canvas
// device's /deviceInfo endpoint. A snapshot is immutable once fetched and is
// only ever replaced whole; fields from two different fetches are never
// merged.
type DeviceState struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	BoardModel  string `json:"board_model"`
	ScreenModel string `json:"screen_model"`
	NetworkType string `json:"network_type"`

	StaSSID string `json:"sta_ssid"`
	StaIP   string `json:"sta_ip"`

	Width  int `json:"width"`
	Height int `json:"height"`

	Battery   int   `json:"battery"`
	TotalSize int64 `json:"total_size"`
	FreeSize  int64 `json:"free_size"`

	SleepDuration int `json:"sleep_duration"`
	MaxIdle       int `json:"max_idle"`
	IdxWakeSens   int `json:"idx_wake_sens"`

	Image    string `json:"image"`
	NextTime string `json:"next_time"`
	Gallery  string `json:"gallery"`
	Playlist string `json:"playlist"`
	PlayType int    `json:"play_type"`

	FSReady bool `json:"fs_ready"`
}

// SettingsPayload is the full settings object the device expects on every
// settings write. The device endpoint is a whole-struct overwrite, not a
// partial patch, so all four fields are mandatory on every call.
type SettingsPayload struct {
	Name          string `json:"name"`
	SleepDuration int    `json:"sleep_duration"`
	MaxIdle       int    `json:"max_idle"`
	IdxWakeSens   int    `json:"idx_wake_sens"`
}

// Command names accepted by the device's command endpoint.
const (
	CommandShowNext          = "show_next"
	CommandReboot            = "reboot"
	CommandClearScreen       = "clear_screen"
	CommandWhistle           = "whistle"
	CommandRefreshDeviceInfo = "refresh_device_info"
)

// Commands lists every command the device accepts, in the order the
// original buttons were registered.
func Commands() []string {
	return []string{
		CommandShowNext,
		CommandReboot,
		CommandClearScreen,
		CommandWhistle,
		CommandRefreshDeviceInfo,
	}
}

// IsCommand reports whether name is one of the device's known commands.
func IsCommand(name string) bool {
	for _, c := range Commands() {
		if c == name {
			return true
		}
	}
	return false
}

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// LogEntry is one internal integration event. Entries are created once,
// never mutated, and only ever aged out by ring eviction.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}
