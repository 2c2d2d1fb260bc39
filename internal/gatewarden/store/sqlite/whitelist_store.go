package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/ashvale/gatewarden/internal/db"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
)

// WhitelistStore backs the registry with SQLite for deployments that opt
// in to durability. Reads go straight to the connection; writes are
// serialized through the db.Writer.
type WhitelistStore struct {
	conn   *sql.DB
	writer *dbpkg.Writer
}

func NewWhitelistStore(conn *sql.DB, writer *dbpkg.Writer) *WhitelistStore {
	return &WhitelistStore{conn: conn, writer: writer}
}

func (s *WhitelistStore) Exists(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM whitelist WHERE user_id = ?;`, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Exists query: %w", err)
	}
	return true, nil
}

func (s *WhitelistStore) Get(ctx context.Context, userID int64) (types.WhitelistEntry, bool, error) {
	e, err := scanEntry(s.conn.QueryRowContext(ctx, `
SELECT user_id, username, added_by, added_at_ms, source
FROM whitelist WHERE user_id = ?;`, userID))
	if err == sql.ErrNoRows {
		return types.WhitelistEntry{}, false, nil
	}
	if err != nil {
		return types.WhitelistEntry{}, false, fmt.Errorf("Get query: %w", err)
	}
	return e, true, nil
}

func (s *WhitelistStore) Put(ctx context.Context, entry types.WhitelistEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO whitelist(user_id, username, added_by, added_at_ms, source)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  username = excluded.username,
  added_by = excluded.added_by,
  added_at_ms = excluded.added_at_ms,
  source = excluded.source;
`,
			entry.UserID, entry.Username, entry.AddedBy,
			entry.AddedAt.UTC().UnixMilli(), entry.Source,
		); err != nil {
			return fmt.Errorf("Put upsert: %w", err)
		}
		return nil
	})
}

func (s *WhitelistStore) Remove(ctx context.Context, userID int64) (types.WhitelistEntry, bool, error) {
	var removed types.WhitelistEntry
	var found bool

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		e, err := scanEntry(tx.QueryRowContext(ctx, `
SELECT user_id, username, added_by, added_at_ms, source
FROM whitelist WHERE user_id = ?;`, userID))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("Remove select: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM whitelist WHERE user_id = ?;`, userID,
		); err != nil {
			return fmt.Errorf("Remove delete: %w", err)
		}
		removed = e
		found = true
		return nil
	})
	if err != nil {
		return types.WhitelistEntry{}, false, err
	}
	return removed, found, nil
}

func (s *WhitelistStore) ListAll(ctx context.Context) ([]types.WhitelistEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT user_id, username, added_by, added_at_ms, source
FROM whitelist ORDER BY added_at_ms, user_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListAll query: %w", err)
	}
	defer rows.Close()

	var out []types.WhitelistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAll scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAll rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (types.WhitelistEntry, error) {
	var e types.WhitelistEntry
	var addedMs int64
	if err := row.Scan(&e.UserID, &e.Username, &e.AddedBy, &addedMs, &e.Source); err != nil {
		return types.WhitelistEntry{}, err
	}
	e.AddedAt = time.UnixMilli(addedMs).UTC()
	return e, nil
}
