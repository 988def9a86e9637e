// Package entity renders a cached DeviceState into the typed, human
// readable values the platform entities expose. Everything here is pure
// computation over one snapshot; absence renders as explicit offline or
// unknown values, never as silently reused data.
package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

const (
	StateOnline  = "Online"
	StateOffline = "Offline"
	StateUnknown = "Unknown"
	StateNoImage = "None"
	StateNoLogs  = "No logs"
)

// Storage health thresholds in percent used.
const (
	storageWarningPct  = 90
	storageCriticalPct = 95
)

const (
	StorageHealthy  = "healthy"
	StorageWarning  = "warning"
	StorageCritical = "critical"
)

// Storage describes the storage sensor value and its attributes.
type Storage struct {
	Value          string  `json:"value"`
	UsagePercent   float64 `json:"usage_percentage"`
	UsedBytes      int64   `json:"used_size_bytes"`
	TotalBytes     int64   `json:"total_size_bytes"`
	FreeBytes      int64   `json:"free_size_bytes"`
	UsedFormatted  string  `json:"used_formatted"`
	TotalFormatted string  `json:"total_formatted"`
	FreeFormatted  string  `json:"free_formatted"`
	FSReady        bool    `json:"fs_ready"`
	Status         string  `json:"storage_status"`
}

// RenderStorage computes the storage sensor from a snapshot. A zero total
// size renders as unknown.
func RenderStorage(state model.DeviceState) Storage {
	if state.TotalSize <= 0 {
		return Storage{Value: StateUnknown}
	}

	used := state.TotalSize - state.FreeSize
	pct := math.Round(float64(used)/float64(state.TotalSize)*1000) / 10

	status := StorageHealthy
	switch {
	case pct >= storageCriticalPct:
		status = StorageCritical
	case pct >= storageWarningPct:
		status = StorageWarning
	}

	usedFmt := FormatBytes(used)
	totalFmt := FormatBytes(state.TotalSize)
	return Storage{
		Value:          fmt.Sprintf("%s%% (%s / %s)", trimFloat(pct), usedFmt, totalFmt),
		UsagePercent:   pct,
		UsedBytes:      used,
		TotalBytes:     state.TotalSize,
		FreeBytes:      state.FreeSize,
		UsedFormatted:  usedFmt,
		TotalFormatted: totalFmt,
		FreeFormatted:  FormatBytes(state.FreeSize),
		FSReady:        state.FSReady,
		Status:         status,
	}
}

// FormatBytes renders a byte count with 1024-based units: GB rounded to
// 2 decimals, MB and KB to 1, plain bytes below 1 KB. Trailing zeros are
// dropped ("1.3 GB", not "1.30 GB").
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return trimFloat(math.Round(float64(n)/(1<<30)*100)/100) + " GB"
	case n >= 1<<20:
		return trimFloat(math.Round(float64(n)/(1<<20)*10)/10) + " MB"
	case n >= 1<<10:
		return trimFloat(math.Round(float64(n)/(1<<10)*10)/10) + " KB"
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CanvasModel maps an exact screen resolution to the marketed canvas
// model label.
func CanvasModel(width, height int) string {
	switch {
	case width == 480 && height == 800:
		return `7.3" Canvas`
	case width == 1200 && height == 1600:
		return `13.3" Canvas`
	case width == 2160 && height == 3060:
		return `28.5" Canvas`
	default:
		return StateUnknown
	}
}

// Resolution describes the screen-resolution sensor.
type Resolution struct {
	Value       string `json:"value"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CanvasModel string `json:"canvas_model"`
	ScreenModel string `json:"screen_model"`
	AspectRatio string `json:"aspect_ratio"`
}

func RenderResolution(state model.DeviceState) Resolution {
	screen := state.ScreenModel
	if screen == "" {
		screen = StateUnknown
	}
	return Resolution{
		Value:       fmt.Sprintf("%dx%d", state.Width, state.Height),
		Width:       state.Width,
		Height:      state.Height,
		CanvasModel: CanvasModel(state.Width, state.Height),
		ScreenModel: screen,
		AspectRatio: fmt.Sprintf("%d:%d", state.Width, state.Height),
	}
}

// Image describes the current-image sensor.
type Image struct {
	Value    string `json:"value"`
	FullPath string `json:"full_path,omitempty"`
	URL      string `json:"image_url,omitempty"`
	NextTime string `json:"next_time,omitempty"`
}

// RenderImage extracts the displayed image name and a direct URL on the
// device. An empty image path renders as "None".
func RenderImage(state model.DeviceState, host string) Image {
	if state.Image == "" {
		return Image{Value: StateNoImage}
	}
	name := state.Image
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return Image{
		Value:    name,
		FullPath: state.Image,
		URL:      "http://" + host + state.Image,
		NextTime: state.NextTime,
	}
}

// DeviceInfo is the diagnostic device-info sensor: a plain online flag
// plus the raw identity and behavior attributes.
type DeviceInfo struct {
	Value      string         `json:"value"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func RenderDeviceInfo(state model.DeviceState, ok bool) DeviceInfo {
	if !ok {
		return DeviceInfo{Value: StateOffline}
	}
	return DeviceInfo{
		Value: StateOnline,
		Attributes: map[string]any{
			"device_name":      state.Name,
			"firmware_version": state.Version,
			"board_model":      state.BoardModel,
			"screen_model":     state.ScreenModel,
			"network_type":     state.NetworkType,
			"wifi_ssid":        state.StaSSID,
			"ip_address":       state.StaIP,
			"resolution":       fmt.Sprintf("%dx%d", state.Width, state.Height),
			"screen_width":     state.Width,
			"screen_height":    state.Height,
			"sleep_duration":   state.SleepDuration,
			"max_idle":         state.MaxIdle,
			"gallery":          state.Gallery,
			"playlist":         state.Playlist,
			"play_type":        state.PlayType,
		},
	}
}

// Logs describes the log sensor: latest message plus a bounded history of
// formatted lines.
type Logs struct {
	Value           string   `json:"value"`
	LatestLevel     string   `json:"latest_level,omitempty"`
	LatestTimestamp string   `json:"latest_timestamp,omitempty"`
	TotalLogs       int      `json:"total_logs"`
	RecentLogs      []string `json:"recent_logs,omitempty"`
}

// logHistoryLimit is how many entries the log sensor displays; the cache
// itself may retain more.
const logHistoryLimit = 10

func RenderLogs(recent []model.LogEntry, total int) Logs {
	if len(recent) == 0 {
		return Logs{Value: StateNoLogs}
	}
	if len(recent) > logHistoryLimit {
		recent = recent[len(recent)-logHistoryLimit:]
	}

	lines := make([]string, 0, len(recent))
	for _, entry := range recent {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			entry.Timestamp.Format("15:04:05"),
			strings.ToUpper(string(entry.Level)),
			entry.Message,
		))
	}

	latest := recent[len(recent)-1]
	return Logs{
		Value:           latest.Message,
		LatestLevel:     string(latest.Level),
		LatestTimestamp: latest.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		TotalLogs:       total,
		RecentLogs:      lines,
	}
}
