package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/duobloom/garden/pkg/game/types"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS room_snapshots (
	room_code TEXT PRIMARY KEY,
	version BIGINT NOT NULL,
	data JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// NewPostgresRepository creates a postgres-backed archive repository.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveRoomSnapshot(ctx context.Context, code string, version int64, room *types.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %v", err)
	}

	q := `
	INSERT INTO room_snapshots (room_code, version, data, updated_at) VALUES ($1, $2, $3, now())
	ON CONFLICT (room_code) DO UPDATE SET version = $2, data = $3, updated_at = now()
	WHERE room_snapshots.version <= EXCLUDED.version;
	`
	if _, err := r.conn.Exec(ctx, q, code, version, data); err != nil {
		return fmt.Errorf("failed to upsert room snapshot: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadRoomSnapshot(ctx context.Context, code string) (*types.Room, int64, error) {
	q := `
	SELECT data, version FROM room_snapshots WHERE room_code = $1;
	`
	var data []byte
	var version int64
	if err := r.conn.QueryRow(ctx, q, code).Scan(&data, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, &ErrNotFound{}
		}
		return nil, 0, fmt.Errorf("failed to scan room snapshot: %v", err)
	}

	room := &types.Room{}
	if err := json.Unmarshal(data, room); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal room: %v", err)
	}

	return room, version, nil
}

func (r *PostgresRepository) ListRoomCodes(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, "SELECT room_code FROM room_snapshots ORDER BY room_code")
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
