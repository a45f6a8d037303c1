package catalog

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

//go:embed defaults.yaml
var defaultCatalogYAML []byte

// catalogFile is the on-disk YAML shape of the static catalog.
type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// StoreConfig holds construction parameters for a Store.
type StoreConfig struct {
	// StaticPath points at a YAML catalog file. Empty uses the embedded
	// defaults.
	StaticPath string

	// DatabasePath is the SQLite file backing the runtime catalog.
	// ":memory:" is accepted for tests.
	DatabasePath string

	Logger *zap.Logger
}

// Store is the catalog store: read-mostly static templates plus an
// append-on-generation runtime set. Runtime writes race with
// last-writer-wins semantics, which is acceptable at per-customer
// concurrency.
type Store struct {
	mu     sync.RWMutex
	static []Template
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewStore opens the catalog store, parsing the static catalog and
// initializing the runtime table.
func NewStore(cfg StoreConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	static, err := loadStatic(cfg.StaticPath)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	s := &Store{static: static, db: db, path: cfg.StaticPath, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runtime_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runtime_name ON runtime_templates(LOWER(name));
	`)
	if err != nil {
		return fmt.Errorf("failed to create runtime catalog table: %w", err)
	}
	return nil
}

func loadStatic(path string) ([]Template, error) {
	data := defaultCatalogYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		data = b
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return dedupe(cf.Templates), nil
}

// Close closes the runtime catalog database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Static returns the static templates in catalog order.
func (s *Store) Static() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, len(s.static))
	copy(out, s.static)
	return out
}

// Templates returns the merged catalog: static templates first, then
// runtime templates, de-duplicated by id or name.
func (s *Store) Templates() ([]Template, error) {
	s.mu.RLock()
	merged := make([]Template, len(s.static))
	copy(merged, s.static)
	s.mu.RUnlock()

	runtime, err := s.runtimeTemplates()
	if err != nil {
		return nil, err
	}
	return dedupe(append(merged, runtime...)), nil
}

func (s *Store) runtimeTemplates() ([]Template, error) {
	rows, err := s.db.Query(`SELECT data FROM runtime_templates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read runtime catalog: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var t Template
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			s.logger.Warn("skipping malformed runtime template", zap.Error(err))
			continue
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// AddGenerated persists a generator-produced template into the runtime
// catalog. Templates whose id or name already exist anywhere in the merged
// catalog are ignored.
func (s *Store) AddGenerated(t Template) error {
	if t.Name == "" || len(t.Icons) == 0 {
		return fmt.Errorf("rejecting empty generated template")
	}

	existing, err := s.Templates()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if (t.ID != "" && e.ID == t.ID) || equalFoldName(e.Name, t.Name) {
			s.logger.Debug("generated template already cataloged", zap.String("name", t.Name))
			return nil
		}
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runtime_templates (id, name, data) VALUES (?, ?, ?)`,
		t.ID, t.Name, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to persist generated template: %w", err)
	}
	s.logger.Info("generated template cataloged",
		zap.String("id", t.ID),
		zap.String("name", t.Name))
	return nil
}

// Reload re-parses the static catalog file. No-op when the store was built
// from embedded defaults.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	static, err := loadStatic(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.static = static
	s.mu.Unlock()
	s.logger.Info("static catalog reloaded", zap.Int("templates", len(static)))
	return nil
}

func dedupe(templates []Template) []Template {
	seenKey := make(map[string]bool)
	seenName := make(map[string]bool)
	var out []Template
	for _, t := range templates {
		name := normName(t.Name)
		if seenKey[t.key()] || (name != "" && seenName[name]) {
			continue
		}
		seenKey[t.key()] = true
		if name != "" {
			seenName[name] = true
		}
		out = append(out, t)
	}
	return out
}

func normName(name string) string {
	return trimLower(name)
}

func equalFoldName(a, b string) bool {
	return trimLower(a) == trimLower(b) && trimLower(a) != ""
}
