package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/duobloom/garden/pkg/game/types"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS room_snapshots (
	room_code TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
`

// NewSQLiteRepository creates a file-backed archive repository. Use
// ":memory:" as the path for an ephemeral database.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveRoomSnapshot(ctx context.Context, code string, version int64, room *types.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %v", err)
	}

	q := `
	INSERT INTO room_snapshots (room_code, version, data, updated_at)
	VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	ON CONFLICT (room_code) DO UPDATE SET
		version = excluded.version,
		data = excluded.data,
		updated_at = excluded.updated_at
	WHERE excluded.version >= room_snapshots.version;
	`
	if _, err := r.db.ExecContext(ctx, q, code, version, string(data)); err != nil {
		return fmt.Errorf("failed to upsert room snapshot: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadRoomSnapshot(ctx context.Context, code string) (*types.Room, int64, error) {
	q := `
	SELECT data, version FROM room_snapshots WHERE room_code = ?;
	`
	var data string
	var version int64
	if err := r.db.QueryRowContext(ctx, q, code).Scan(&data, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, &ErrNotFound{}
		}
		return nil, 0, fmt.Errorf("failed to scan room snapshot: %v", err)
	}

	room := &types.Room{}
	if err := json.Unmarshal([]byte(data), room); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal room: %v", err)
	}

	return room, version, nil
}

func (r *SQLiteRepository) ListRoomCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT room_code FROM room_snapshots ORDER BY room_code")
	if err != nil {
		return nil, fmt.Errorf("failed to query room codes: %v", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan room code: %v", err)
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}
