package storage

import (
	"context"
	"time"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

// retainedPerHost caps how many rows one device keeps; older rows are
// pruned on every append, mirroring the in-memory ring.
const retainedPerHost = 100

// AppendLog inserts one entry for host and prunes rows beyond the
// retention cap.
func (r *Repository) AppendLog(ctx context.Context, host string, entry model.LogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_logs (host, created_at, level, message)
		VALUES (?, ?, ?, ?)`,
		host,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		string(entry.Level),
		entry.Message,
	)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		DELETE FROM device_logs
		WHERE host = ? AND id NOT IN (
			SELECT id FROM device_logs WHERE host = ? ORDER BY id DESC LIMIT ?
		)`, host, host, retainedPerHost)
	return err
}

// RecentLogs loads up to limit most recent entries for host, oldest first.
func (r *Repository) RecentLogs(ctx context.Context, host string, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = retainedPerHost
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT created_at, level, message FROM (
			SELECT id, created_at, level, message
			FROM device_logs WHERE host = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, host, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var createdAt, level, message string
		if err := rows.Scan(&createdAt, &level, &message); err != nil {
			return nil, err
		}
		entry := model.LogEntry{Level: model.LogLevel(level), Message: message}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.Timestamp = ts.UTC()
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PurgeHost removes every row for host; used when a device configuration
// is unloaded.
func (r *Repository) PurgeHost(ctx context.Context, host string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM device_logs WHERE host = ?`, host)
	return err
}
