package save

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a SQLite database, one row per player
// and record key.
type SQLiteStore struct {
	conn *sqlx.DB
}

type saveRow struct {
	PlayerID  string `db:"player_id"`
	RecordKey string `db:"record_key"`
	Data      []byte `db:"data"`
	UpdatedAt int64  `db:"updated_at"`
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		player_id TEXT NOT NULL,
		record_key TEXT NOT NULL,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (player_id, record_key)
	);`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, playerID string) ([]byte, bool, error) {
	var row saveRow
	err := s.conn.GetContext(ctx, &row,
		`SELECT player_id, record_key, data, updated_at FROM saves WHERE player_id = ? AND record_key = ?`,
		normalizePlayerID(playerID), RecordKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load save: %w", err)
	}
	return row.Data, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, playerID string, blob []byte) error {
	row := saveRow{
		PlayerID:  normalizePlayerID(playerID),
		RecordKey: RecordKey,
		Data:      append([]byte{}, blob...),
		UpdatedAt: time.Now().UTC().Unix(),
	}
	_, err := s.conn.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO saves (player_id, record_key, data, updated_at)
		 VALUES (:player_id, :record_key, :data, :updated_at)`, row)
	if err != nil {
		return writeFailed("save", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, playerID string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM saves WHERE player_id = ?`, normalizePlayerID(playerID))
	if err != nil {
		return writeFailed("delete", err)
	}
	return nil
}

// PlayerIDs lists every player with a stored snapshot.
func (s *SQLiteStore) PlayerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.conn.SelectContext(ctx, &ids,
		`SELECT player_id FROM saves WHERE record_key = ? ORDER BY player_id`, RecordKey); err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return ids, nil
}
