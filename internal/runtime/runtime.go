// Package runtime holds the per-device shared state: the last fetched
// DeviceState snapshot, the bounded log history, and the refresh policy
// that decides when the device is actually asked for new data.
package runtime

import (
	"sync"
	"time"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

// maxLogEntries bounds the in-memory ring; insertion order is preserved
// and eviction only ever drops the oldest entries.
const maxLogEntries = 100

// Data is the process-wide state of one configured device. It exclusively
// owns the DeviceState snapshot; consumers get value copies and must not
// retain them beyond a single render pass.
type Data struct {
	mu    sync.RWMutex
	state *model.DeviceState
	logs  []model.LogEntry

	appendHook func(model.LogEntry)

	now func() time.Time
}

func NewData() *Data {
	return &Data{now: time.Now}
}

// SetAppendHook registers a callback invoked after each AppendLog, outside
// the cache lock. Used to persist and broadcast new entries. Restore does
// not trigger the hook.
func (d *Data) SetAppendHook(fn func(model.LogEntry)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appendHook = fn
}

// Get returns the cached snapshot, if any. No I/O; a returned snapshot is
// always a complete, previously-Set value, never a partial one.
func (d *Data) Get() (model.DeviceState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state == nil {
		return model.DeviceState{}, false
	}
	return *d.state, true
}

// Set atomically replaces the cached snapshot whole.
func (d *Data) Set(state model.DeviceState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = &state
}

// AppendLog records one integration event, evicting the oldest entry once
// the ring is full.
func (d *Data) AppendLog(level model.LogLevel, message string) {
	entry := model.LogEntry{Timestamp: d.now().UTC(), Level: level, Message: message}
	hook := d.appendEntry(entry)
	if hook != nil {
		hook(entry)
	}
}

// Restore preloads previously persisted entries, oldest first. Used once
// at startup before any AppendLog call.
func (d *Data) Restore(entries []model.LogEntry) {
	for _, entry := range entries {
		d.appendEntry(entry)
	}
}

func (d *Data) appendEntry(entry model.LogEntry) func(model.LogEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logs = append(d.logs, entry)
	if len(d.logs) > maxLogEntries {
		d.logs = d.logs[len(d.logs)-maxLogEntries:]
	}
	return d.appendHook
}

// RecentLogs returns up to n most recent entries, oldest first.
func (d *Data) RecentLogs(n int) []model.LogEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n <= 0 || len(d.logs) == 0 {
		return nil
	}
	if n > len(d.logs) {
		n = len(d.logs)
	}
	out := make([]model.LogEntry, n)
	copy(out, d.logs[len(d.logs)-n:])
	return out
}

// LatestLog returns the most recent entry, if any.
func (d *Data) LatestLog() (model.LogEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.logs) == 0 {
		return model.LogEntry{}, false
	}
	return d.logs[len(d.logs)-1], true
}

// LogCount returns the number of retained entries.
func (d *Data) LogCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.logs)
}
