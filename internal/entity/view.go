package entity

import (
	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

// Network describes the wifi diagnostic sensor.
type Network struct {
	Value       string `json:"value"`
	IPAddress   string `json:"ip_address,omitempty"`
	NetworkType string `json:"network_type,omitempty"`
}

// Settings holds the decoded current position of each settings control.
type Settings struct {
	DeviceName      string `json:"device_name"`
	SleepDuration   string `json:"sleep_duration"`
	MaxIdle         string `json:"max_idle"`
	WakeSensitivity string `json:"wake_sensitivity"`
}

// View is the full rendered entity set for one device, computed from a
// single cache read. It is what the REST API, the websocket push and the
// MQTT state publisher all serialize.
type View struct {
	Online     bool       `json:"online"`
	DeviceInfo DeviceInfo `json:"device_info"`
	Battery    *int       `json:"battery"`
	Storage    Storage    `json:"storage"`
	Image      Image      `json:"current_image"`
	Firmware   string     `json:"firmware_version"`
	Network    Network    `json:"wifi"`
	Resolution Resolution `json:"resolution"`
	Settings   Settings   `json:"settings"`
	Logs       Logs       `json:"logs"`
}

// Decoder is the label side of one option axis (see the options package).
type Decoder interface {
	Decode(value int) string
	DefaultLabel() string
}

// RenderView assembles every entity value from one snapshot read. When ok
// is false the device is offline and each entity renders its explicit
// offline/unknown value.
func RenderView(
	state model.DeviceState,
	ok bool,
	host string,
	recentLogs []model.LogEntry,
	totalLogs int,
	sleep, idle, sens Decoder,
) View {
	view := View{
		Online:     ok,
		DeviceInfo: RenderDeviceInfo(state, ok),
		Logs:       RenderLogs(recentLogs, totalLogs),
	}
	if !ok {
		view.Storage = Storage{Value: StateOffline}
		view.Image = Image{Value: StateNoImage}
		view.Firmware = StateOffline
		view.Network = Network{Value: StateOffline}
		view.Resolution = Resolution{Value: StateUnknown, CanvasModel: StateUnknown, ScreenModel: StateUnknown}
		view.Settings = Settings{
			DeviceName:      model.DefaultDeviceName,
			SleepDuration:   sleep.DefaultLabel(),
			MaxIdle:         idle.DefaultLabel(),
			WakeSensitivity: sens.DefaultLabel(),
		}
		return view
	}

	battery := state.Battery
	view.Battery = &battery
	view.Storage = RenderStorage(state)
	view.Image = RenderImage(state, host)
	view.Firmware = state.Version
	if view.Firmware == "" {
		view.Firmware = StateUnknown
	}
	view.Network = Network{Value: state.StaSSID, IPAddress: state.StaIP, NetworkType: state.NetworkType}
	if view.Network.Value == "" {
		view.Network.Value = StateUnknown
	}
	view.Resolution = RenderResolution(state)
	view.Settings = Settings{
		DeviceName:      state.Name,
		SleepDuration:   sleep.Decode(state.SleepDuration),
		MaxIdle:         idle.Decode(state.MaxIdle),
		WakeSensitivity: sens.Decode(state.IdxWakeSens),
	}
	if view.Settings.DeviceName == "" {
		view.Settings.DeviceName = model.DefaultDeviceName
	}
	return view
}
