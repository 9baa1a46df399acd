// Package store persists a per-game audit trail of generated decisions and
// their validation outcomes to SQLite, so post-game review can replay why
// an agent acted the way it did.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"wolfmind/internal/logging"
	"wolfmind/internal/types"
	"wolfmind/internal/validator"
)

// Store manages the decision audit database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// AuditRecord is one persisted decision attempt.
type AuditRecord struct {
	ID          int64                 `json:"id"`
	GameID      string                `json:"game_id"`
	RequestID   string                `json:"request_id"`
	PlayerID    int                   `json:"player_id"`
	Kind        types.DecisionKind    `json:"kind"`
	TargetID    int                   `json:"target_id,omitempty"`
	Content     string                `json:"content,omitempty"`
	Valid       bool                  `json:"valid"`
	Unresolved  bool                  `json:"unresolved"`
	Violations  []validator.Violation `json:"violations,omitempty"`
	Model       string                `json:"model,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// New creates or opens the audit store. ":memory:" is accepted for tests.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	// modernc's driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}
	logging.Store("audit store opened at %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		request_id TEXT NOT NULL,
		player_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		target_id INTEGER NOT NULL DEFAULT 0,
		content TEXT,
		valid INTEGER NOT NULL,
		unresolved INTEGER NOT NULL DEFAULT 0,
		violations_json TEXT,
		model TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_game ON decisions(game_id);
	CREATE INDEX IF NOT EXISTS idx_decisions_player ON decisions(game_id, player_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordDecision appends one validated decision attempt.
func (s *Store) RecordDecision(ctx context.Context, gameID, model string, d types.Decision, result validator.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var violationsJSON []byte
	if len(result.Violations) > 0 {
		var err error
		violationsJSON, err = json.Marshal(result.Violations)
		if err != nil {
			return fmt.Errorf("marshal violations: %w", err)
		}
	}

	createdAt := d.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (game_id, request_id, player_id, kind, target_id, content, valid, unresolved, violations_json, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gameID, d.RequestID, d.PlayerID, string(d.Kind), d.TargetID, d.Content,
		boolToInt(result.IsValid), boolToInt(d.Unresolved), string(violationsJSON), model, createdAt.UTC(),
	)
	if err != nil {
		logging.StoreError("record decision failed: %v", err)
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// DecisionsForPlayer returns one player's decision attempts in insertion
// order.
func (s *Store) DecisionsForPlayer(ctx context.Context, gameID string, playerID int) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, request_id, player_id, kind, target_id, content, valid, unresolved, violations_json, model, created_at
		FROM decisions WHERE game_id = ? AND player_id = ? ORDER BY id`,
		gameID, playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// UnresolvedDecisions returns every decision the correction loop gave up
// on, across all players of one game.
func (s *Store) UnresolvedDecisions(ctx context.Context, gameID string) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, request_id, player_id, kind, target_id, content, valid, unresolved, violations_json, model, created_at
		FROM decisions WHERE game_id = ? AND unresolved = 1 ORDER BY id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("query unresolved decisions: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]AuditRecord, error) {
	var records []AuditRecord
	for rows.Next() {
		var (
			rec            AuditRecord
			kind           string
			valid          int
			unresolved     int
			violationsJSON sql.NullString
			model          sql.NullString
			content        sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.RequestID, &rec.PlayerID, &kind,
			&rec.TargetID, &content, &valid, &unresolved, &violationsJSON, &model, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		rec.Kind = types.DecisionKind(kind)
		rec.Content = content.String
		rec.Valid = valid != 0
		rec.Unresolved = unresolved != 0
		rec.Model = model.String
		if violationsJSON.Valid && violationsJSON.String != "" {
			if err := json.Unmarshal([]byte(violationsJSON.String), &rec.Violations); err != nil {
				return nil, fmt.Errorf("unmarshal violations: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
