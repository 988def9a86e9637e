package mqtt

import (
	"fmt"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
	"github.com/micro-ha/eink-canvas/addon/internal/options"
)

// DeviceInfo is the Home Assistant discovery device block shared by every
// entity of one canvas.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// EntityConfig is one MQTT discovery payload. Only the fields relevant to
// the entity's component are populated.
type EntityConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	StateTopic        string     `json:"state_topic,omitempty"`
	CommandTopic      string     `json:"command_topic,omitempty"`
	AvailabilityTopic string     `json:"availability_topic,omitempty"`
	ValueTemplate     string     `json:"value_template,omitempty"`
	JSONAttrTopic     string     `json:"json_attributes_topic,omitempty"`
	JSONAttrTemplate  string     `json:"json_attributes_template,omitempty"`
	Icon              string     `json:"icon,omitempty"`
	EntityCategory    string     `json:"entity_category,omitempty"`
	DeviceClass       string     `json:"device_class,omitempty"`
	StateClass        string     `json:"state_class,omitempty"`
	Unit              string     `json:"unit_of_measurement,omitempty"`
	Options           []string   `json:"options,omitempty"`
	PayloadPress      string     `json:"payload_press,omitempty"`
	Min               int        `json:"min,omitempty"`
	Max               int        `json:"max,omitempty"`
	Device            DeviceInfo `json:"device"`
}

// discoveryEntity pairs a component type and object id with its payload.
type discoveryEntity struct {
	component string
	objectID  string
	config    EntityConfig
}

// ConfigTopic returns the retained discovery topic for one entity.
func configTopic(prefix, component, id, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, component, id, objectID)
}

// buildEntities declares every entity of one device: the eight sensors,
// three selects, five buttons and the name text control.
func buildEntities(cfg model.CanvasConfig) []discoveryEntity {
	id := deviceID(cfg.Host)
	t := topicsFor(cfg.Host)
	device := DeviceInfo{
		Identifiers:  []string{"eink_canvas_" + id},
		Name:         cfg.DeviceName,
		Manufacturer: "BLOOMIN8",
		Model:        "E-Ink Canvas",
	}

	uid := func(suffix string) string { return "eink_display_" + id + "_" + suffix }
	base := func(name, suffix string) EntityConfig {
		return EntityConfig{
			Name:              name,
			UniqueID:          uid(suffix),
			StateTopic:        t.state,
			AvailabilityTopic: t.availability,
			Device:            device,
		}
	}

	sensor := func(name, suffix, template, icon, category string) discoveryEntity {
		entityCfg := base(name, suffix)
		entityCfg.ValueTemplate = template
		entityCfg.Icon = icon
		entityCfg.EntityCategory = category
		return discoveryEntity{component: "sensor", objectID: suffix, config: entityCfg}
	}

	sel := func(name, suffix string, axis options.Axis, codec *options.Codec, icon, template string) discoveryEntity {
		entityCfg := base(name, suffix)
		entityCfg.CommandTopic = t.setPrefix + string(axis)
		entityCfg.ValueTemplate = template
		entityCfg.Options = codec.Labels()
		entityCfg.Icon = icon
		entityCfg.EntityCategory = "config"
		return discoveryEntity{component: "select", objectID: suffix, config: entityCfg}
	}

	button := func(name, suffix, command, icon, category string) discoveryEntity {
		entityCfg := EntityConfig{
			Name:              name,
			UniqueID:          uid(suffix),
			CommandTopic:      t.press,
			AvailabilityTopic: t.availability,
			PayloadPress:      command,
			Icon:              icon,
			EntityCategory:    category,
			Device:            device,
		}
		return discoveryEntity{component: "button", objectID: suffix, config: entityCfg}
	}

	entities := []discoveryEntity{
		sensor("Device Info", "device_info", "{{ value_json.device_info.value }}", "mdi:information", "diagnostic"),
		sensor("Battery", "battery", "{{ value_json.battery }}", "mdi:battery", ""),
		sensor("Storage", "storage", "{{ value_json.storage.value }}", "mdi:harddisk", ""),
		sensor("Current Image", "current_image", "{{ value_json.current_image.value }}", "mdi:image", ""),
		sensor("Logs", "logs", "{{ value_json.logs.value }}", "mdi:text-box", "diagnostic"),
		sensor("Firmware Version", "firmware_version", "{{ value_json.firmware_version }}", "mdi:chip", "diagnostic"),
		sensor("WiFi SSID", "wifi_ssid", "{{ value_json.wifi.value }}", "mdi:wifi", "diagnostic"),
		sensor("Screen Resolution", "screen_resolution", "{{ value_json.resolution.value }}", "mdi:monitor-screenshot", "diagnostic"),

		sel("Sleep Duration", "sleep_duration", options.AxisSleepDuration, options.SleepDuration(),
			"mdi:sleep", "{{ value_json.settings.sleep_duration }}"),
		sel("Max Idle Time", "max_idle", options.AxisMaxIdle, options.MaxIdle(),
			"mdi:timer", "{{ value_json.settings.max_idle }}"),
		sel("Wake Sensitivity", "wake_sensitivity", options.AxisWakeSensitivity, options.WakeSensitivity(),
			"mdi:gesture-tap", "{{ value_json.settings.wake_sensitivity }}"),

		button("Next Image", "next_image", model.CommandShowNext, "mdi:skip-next", ""),
		button("Reboot", "reboot", model.CommandReboot, "mdi:restart", "config"),
		button("Clear Screen", "clear_screen", model.CommandClearScreen, "mdi:monitor-clean", ""),
		button("Whistle", "whistle", model.CommandWhistle, "mdi:whistle", ""),
		button("Refresh Info", "refresh", model.CommandRefreshDeviceInfo, "mdi:refresh", "diagnostic"),
	}

	battery := &entities[1].config
	battery.DeviceClass = "battery"
	battery.StateClass = "measurement"
	battery.Unit = "%"

	nameText := base("Device Name", "device_name")
	nameText.CommandTopic = t.setPrefix + "name"
	nameText.ValueTemplate = "{{ value_json.settings.device_name }}"
	nameText.Icon = "mdi:rename-box"
	nameText.EntityCategory = "config"
	nameText.Min = 1
	nameText.Max = 50
	entities = append(entities, discoveryEntity{component: "text", objectID: "device_name", config: nameText})

	return entities
}
