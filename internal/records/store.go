package records

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store persists fulfillment records and outcome rows in SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
	clock  func() time.Time
}

// StoreConfig holds construction parameters for a Store.
type StoreConfig struct {
	// DatabasePath is the SQLite file. ":memory:" is accepted for tests.
	DatabasePath string
	Logger       *zap.Logger
	Clock        func() time.Time
}

// NewStore opens the records database and creates the tables.
func NewStore(cfg StoreConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	path := cfg.DatabasePath
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create records directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records database: %w", err)
	}

	s := &Store{db: db, logger: logger, clock: clock}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS fulfillment_records (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL UNIQUE,
		data TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		status TEXT NOT NULL,
		links TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS activity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		event TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_order ON outcomes(order_id);
	CREATE INDEX IF NOT EXISTS idx_activity_order ON activity_log(order_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create records tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecord persists a fulfillment record. Records are write-once: a
// second record for the same order is rejected.
func (s *Store) SaveRecord(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO fulfillment_records (id, order_id, data, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.OrderID, string(data), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to persist record: %w", err)
	}
	return nil
}

// GetRecord loads the record for an order, or nil when absent.
func (s *Store) GetRecord(orderID string) (*Record, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT data FROM fulfillment_records WHERE order_id = ?`, orderID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}

// SaveOutcome appends a run summary row.
func (s *Store) SaveOutcome(o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	links, err := json.Marshal(o.Links)
	if err != nil {
		return fmt.Errorf("failed to encode links: %w", err)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.clock()
	}

	_, err = s.db.Exec(
		`INSERT INTO outcomes (order_id, status, links, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		o.OrderID, o.Status, string(links), o.Detail, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to persist outcome: %w", err)
	}
	return nil
}

// Outcomes returns the outcome rows for an order, oldest first.
func (s *Store) Outcomes(orderID string) ([]Outcome, error) {
	rows, err := s.db.Query(
		`SELECT order_id, status, links, detail, created_at FROM outcomes WHERE order_id = ? ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var links string
		if err := rows.Scan(&o.OrderID, &o.Status, &links, &o.Detail, &o.CreatedAt); err != nil {
			continue
		}
		json.Unmarshal([]byte(links), &o.Links)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// AppendActivity appends a row to the activity log. Fire-and-forget:
// failures are logged and swallowed.
func (s *Store) AppendActivity(orderID, event, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO activity_log (order_id, event, detail, created_at) VALUES (?, ?, ?, ?)`,
		orderID, event, detail, s.clock(),
	)
	if err != nil {
		s.logger.Warn("activity log append failed",
			zap.String("order_id", orderID),
			zap.String("event", event),
			zap.Error(err))
	}
}

// Activity returns the activity rows for an order, oldest first.
func (s *Store) Activity(orderID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT event FROM activity_log WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	defer rows.Close()

	var events []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
