package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Event registro persistido de uma transição ou evento do governor
// (online_all, online_single, offline_single, suspend, resume, boost,
// disable, enable).
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	CPU         int       `json:"cpu"`          // -1 quando não se aplica
	OnlineAfter int       `json:"online_after"` // CPUs online após o evento
	AvgLoad     uint64    `json:"avg_load"`     // média (x100) que disparou
	Detail      string    `json:"detail,omitempty"`
}

// PersistenceConfig configuração de persistência
type PersistenceConfig struct {
	Enabled     bool          // Habilita persistência
	DBPath      string        // Caminho do banco SQLite
	MaxAge      time.Duration // Máximo tempo de retenção (default: 24h)
	AutoCleanup bool          // Limpeza automática de dados antigos
}

// DefaultPersistenceConfig retorna configuração padrão
func DefaultPersistenceConfig() *PersistenceConfig {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".cpu-hotplug-manager", "events.db")

	return &PersistenceConfig{
		Enabled:     true,
		DBPath:      dbPath,
		MaxAge:      24 * time.Hour,
		AutoCleanup: true,
	}
}

// Persistence gerencia persistência de eventos em SQLite
type Persistence struct {
	config *PersistenceConfig
	db     *sql.DB
}

// NewPersistence cria nova instância de persistência
func NewPersistence(config *PersistenceConfig) (*Persistence, error) {
	if config == nil {
		config = DefaultPersistenceConfig()
	}

	if !config.Enabled {
		log.Info().Msg("Persistence disabled")
		return &Persistence{config: config}, nil
	}

	dir := filepath.Dir(config.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite funciona melhor com 1 conexão
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	p := &Persistence{
		config: config,
		db:     db,
	}

	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().
		Str("db_path", config.DBPath).
		Dur("max_age", config.MaxAge).
		Msg("Persistence initialized")

	if config.AutoCleanup {
		if err := p.Cleanup(); err != nil {
			log.Warn().Err(err).Msg("Initial cleanup failed")
		}
	}

	return p, nil
}

// initSchema cria tabelas se não existirem
func (p *Persistence) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL UNIQUE,
		timestamp DATETIME NOT NULL,
		kind TEXT NOT NULL,
		cpu INTEGER NOT NULL,
		online_after INTEGER NOT NULL,
		avg_load INTEGER NOT NULL,
		data TEXT NOT NULL,  -- JSON do Event
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := p.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err = p.db.Exec(`
		INSERT OR REPLACE INTO metadata (key, value, updated_at)
		VALUES ('schema_version', '1', CURRENT_TIMESTAMP)
	`)

	return err
}

// NewEvent constrói um Event com ID e timestamp preenchidos
func NewEvent(kind string, cpu, onlineAfter int, avgLoad uint64) *Event {
	return &Event{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Kind:        kind,
		CPU:         cpu,
		OnlineAfter: onlineAfter,
		AvgLoad:     avgLoad,
	}
}

// SaveEvent salva um evento no banco
func (p *Persistence) SaveEvent(ev *Event) error {
	if !p.config.Enabled || p.db == nil {
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.db.Exec(`
		INSERT OR IGNORE INTO events (event_id, timestamp, kind, cpu, online_after, avg_load, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID,
		ev.Timestamp,
		ev.Kind,
		ev.CPU,
		ev.OnlineAfter,
		int64(ev.AvgLoad),
		string(data),
	)

	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	return nil
}

// RecentEvents retorna os eventos mais recentes, do mais novo para o
// mais antigo
func (p *Persistence) RecentEvents(limit int) ([]Event, error) {
	if !p.config.Enabled || p.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.db.Query(`
		SELECT data FROM events
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			log.Warn().Err(err).Msg("Failed to scan event")
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			log.Warn().Err(err).Msg("Failed to unmarshal event")
			continue
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// CountByKind retorna o total de eventos por kind
func (p *Persistence) CountByKind() (map[string]int64, error) {
	if !p.config.Enabled || p.db == nil {
		return nil, nil
	}

	rows, err := p.db.Query(`SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			continue
		}
		result[kind] = count
	}

	return result, rows.Err()
}

// Cleanup remove eventos antigos (> MaxAge)
func (p *Persistence) Cleanup() error {
	if !p.config.Enabled || p.db == nil {
		return nil
	}

	cutoff := time.Now().Add(-p.config.MaxAge)

	result, err := p.db.Exec(`
		DELETE FROM events
		WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup events: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.Info().
			Int64("removed", rows).
			Time("cutoff", cutoff).
			Msg("Cleanup: removed old events")
	}

	// VACUUM para reduzir tamanho do arquivo
	if rows > 1000 {
		if _, err := p.db.Exec("VACUUM"); err != nil {
			log.Warn().Err(err).Msg("Failed to vacuum database")
		}
	}

	return nil
}

// Stats retorna estatísticas do banco
func (p *Persistence) Stats() (*PersistenceStats, error) {
	if !p.config.Enabled || p.db == nil {
		return &PersistenceStats{Enabled: false}, nil
	}

	stats := &PersistenceStats{
		Enabled: true,
		DBPath:  p.config.DBPath,
	}

	err := p.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&stats.TotalEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	var oldestStr, newestStr sql.NullString
	err = p.db.QueryRow(`SELECT MIN(timestamp), MAX(timestamp) FROM events`).
		Scan(&oldestStr, &newestStr)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get timestamp range: %w", err)
	}

	// SQLite retorna timestamps como string
	if oldestStr.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", oldestStr.String); err == nil {
			stats.OldestEvent = t
		}
	}
	if newestStr.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", newestStr.String); err == nil {
			stats.NewestEvent = t
		}
	}

	fileInfo, err := os.Stat(p.config.DBPath)
	if err == nil {
		stats.DBSize = fileInfo.Size()
	}

	return stats, nil
}

// PersistenceStats estatísticas de persistência
type PersistenceStats struct {
	Enabled     bool
	DBPath      string
	DBSize      int64
	TotalEvents int64
	OldestEvent time.Time
	NewestEvent time.Time
}

// Close fecha conexão com banco
func (p *Persistence) Close() error {
	if p.db != nil {
		log.Info().Msg("Closing database connection")
		return p.db.Close()
	}
	return nil
}
