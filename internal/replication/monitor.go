// Package replication pauses writes while a MySQL replica lags behind.
package replication

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dbsmedya/teamsweep/internal/config"
	"github.com/dbsmedya/teamsweep/internal/logger"
)

// Status is the subset of SHOW REPLICA STATUS the monitor reads.
type Status struct {
	SecondsBehind sql.NullInt64 // NULL while the replica is stopped
	IORunning     string
	SQLRunning    string
	LastError     string
}

// Monitor tracks replica lag. A Monitor without a replica connection is
// disabled and never blocks.
type Monitor struct {
	db        *sql.DB
	threshold int
	interval  time.Duration
	logger    *logger.Logger
}

// NewMonitor creates a lag monitor. replicaDB may be nil.
func NewMonitor(replicaDB *sql.DB, cfg config.SafetyConfig, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.NewDefault()
	}

	m := &Monitor{db: replicaDB, logger: log}
	if replicaDB == nil {
		log.Info("Replication lag monitoring is DISABLED (no replica connection)")
		return m
	}

	m.threshold = cfg.LagThreshold
	if m.threshold <= 0 {
		m.threshold = 10
	}
	m.interval = time.Duration(cfg.CheckInterval) * time.Second
	if m.interval <= 0 {
		m.interval = 5 * time.Second
	}

	log.Infof("Replication lag monitoring ENABLED (threshold: %ds, interval: %s)", m.threshold, m.interval)
	return m
}

// Enabled reports whether a replica is being watched.
func (m *Monitor) Enabled() bool {
	return m.db != nil
}

// Threshold returns the maximum acceptable lag in seconds.
func (m *Monitor) Threshold() int {
	return m.threshold
}

// Interval returns the delay between checks while waiting.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Status queries the replica. SHOW REPLICA STATUS (MySQL 8.0.22+) is tried
// first, then SHOW SLAVE STATUS.
func (m *Monitor) Status(ctx context.Context) (*Status, error) {
	if !m.Enabled() {
		return nil, nil
	}

	rows, err := m.db.QueryContext(ctx, "SHOW REPLICA STATUS")
	if err != nil {
		rows, err = m.db.QueryContext(ctx, "SHOW SLAVE STATUS")
		if err != nil {
			return nil, fmt.Errorf("failed to query replication status: %w", err)
		}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("replication not configured on replica server")
	}

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan replication status: %w", err)
	}

	fields := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		fields[col] = values[i]
	}

	status := &Status{
		IORunning:  firstString(fields, "Replica_IO_Running", "Slave_IO_Running"),
		SQLRunning: firstString(fields, "Replica_SQL_Running", "Slave_SQL_Running"),
		LastError:  firstString(fields, "Last_Error"),
	}
	if lag, ok := firstInt(fields, "Seconds_Behind_Source", "Seconds_Behind_Master"); ok {
		status.SecondsBehind = sql.NullInt64{Int64: lag, Valid: true}
	}

	return status, nil
}

// Check reports whether lag is within the threshold. A disabled monitor
// always reports true.
func (m *Monitor) Check(ctx context.Context) (bool, int, error) {
	if !m.Enabled() {
		return true, 0, nil
	}

	status, err := m.Status(ctx)
	if err != nil {
		return false, -1, err
	}

	if status.IORunning != "Yes" || status.SQLRunning != "Yes" {
		if status.LastError != "" {
			m.logger.Errorf("Replication error: %s", status.LastError)
		}
		return false, -1, fmt.Errorf("replication is not running (IO: %s, SQL: %s)", status.IORunning, status.SQLRunning)
	}

	if !status.SecondsBehind.Valid {
		return false, -1, fmt.Errorf("replication lag is NULL")
	}

	lag := int(status.SecondsBehind.Int64)
	if lag > m.threshold {
		m.logger.Warnf("Replication lag is HIGH: %d seconds (threshold: %d seconds)", lag, m.threshold)
		return false, lag, nil
	}

	m.logger.Debugf("Replication lag OK: %d seconds", lag)
	return true, lag, nil
}

// Wait blocks until lag is within the threshold or ctx is done. Replica
// errors are logged and retried; writes stay paused while the replica is
// unreadable.
func (m *Monitor) Wait(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("lag monitoring cancelled: %w", err)
		}

		ok, lag, err := m.Check(ctx)
		switch {
		case err != nil:
			m.logger.Errorf("Replication check failed: %v (retrying in %s)", err, m.interval)
		case !ok:
			m.logger.Warnf("Pausing writes due to replication lag (%d seconds)", lag)
		default:
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("lag monitoring cancelled: %w", ctx.Err())
		case <-time.After(m.interval):
		}
	}
}

func firstString(fields map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			return v
		case []byte:
			return string(v)
		}
	}
	return ""
}

func firstInt(fields map[string]interface{}, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case int64:
			return v, true
		case []byte:
			if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
				return n, true
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
