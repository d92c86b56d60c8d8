package brief

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the newest MaxSaved briefs in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS briefs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		post_url TEXT,
		articles TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_briefs_created_at ON briefs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts p and drops anything older than the newest MaxSaved.
func (s *SQLiteStore) Save(ctx context.Context, p *Packet) error {
	articles, err := json.Marshal(p.Articles)
	if err != nil {
		return fmt.Errorf("failed to marshal articles: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO briefs (id, title, created_at, post_url, articles) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Title, formatTime(p.CreatedAt), p.PostURL, string(articles),
	)
	if err != nil {
		return fmt.Errorf("failed to insert brief: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM briefs WHERE id NOT IN (
			SELECT id FROM briefs ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, MaxSaved)
	if err != nil {
		return fmt.Errorf("failed to trim briefs: %w", err)
	}

	return tx.Commit()
}

// List returns saved briefs, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Packet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, post_url, articles
		FROM briefs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, MaxSaved)
	if err != nil {
		return nil, fmt.Errorf("failed to query briefs: %w", err)
	}
	defer rows.Close()

	packets := []Packet{}
	for rows.Next() {
		var p Packet
		var createdAt, articles string
		var postURL sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &createdAt, &postURL, &articles); err != nil {
			return nil, fmt.Errorf("failed to scan brief: %w", err)
		}
		if err := json.Unmarshal([]byte(articles), &p.Articles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal articles for %s: %w", p.ID, err)
		}
		p.CreatedAt = parseTime(createdAt)
		if postURL.Valid {
			p.PostURL = &postURL.String
		}
		packets = append(packets, p)
	}

	return packets, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(0).Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
