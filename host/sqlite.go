package host

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists boundary calls to a SQLite database so that runs
// can be inspected after the fact.
type SQLiteRecorder struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database at dbPath.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS host_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		iface TEXT NOT NULL,
		method TEXT NOT NULL,
		args JSON NOT NULL,
		at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &SQLiteRecorder{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (r *SQLiteRecorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Record stores call. Arguments are stored by their display form.
func (r *SQLiteRecorder) Record(ctx context.Context, call Call) error {
	args, err := json.Marshal(call.Display)
	if err != nil {
		return fmt.Errorf("encoding args: %w", err)
	}
	at := call.Time
	if at.IsZero() {
		at = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO host_calls (run_id, iface, method, args, at) VALUES (?, ?, ?, ?, ?)`,
		call.RunID, call.Interface, call.Method, string(args), at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting call: %w", err)
	}
	return nil
}

// Calls returns the calls recorded for runID in insertion order. Only the
// display form of the arguments survives the round trip.
func (r *SQLiteRecorder) Calls(ctx context.Context, runID string) ([]Call, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT iface, method, args, at FROM host_calls WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying calls: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var iface, method, args, at string
		if err := rows.Scan(&iface, &method, &args, &at); err != nil {
			return nil, fmt.Errorf("scanning call: %w", err)
		}
		call := Call{RunID: runID, Interface: iface, Method: method}
		if err := json.Unmarshal([]byte(args), &call.Display); err != nil {
			return nil, fmt.Errorf("decoding args: %w", err)
		}
		if call.Time, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("decoding time: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}
