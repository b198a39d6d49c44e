// Package indexdb keeps a queryable SQLite record of reconstructed sessions.
// The log documents stay authoritative; the index can be rebuilt from them.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/replay"
	"map18xx.dev/internal/tiles"
)

var ErrNotFound = errors.New("not found")

type Index struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db, now: time.Now}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			defs INTEGER NOT NULL,
			names_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reconstructions (
			session TEXT NOT NULL,
			digest TEXT NOT NULL,
			game TEXT NOT NULL,
			actions INTEGER NOT NULL,
			tiles INTEGER NOT NULL,
			tokens INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session, digest)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reconstructions_session_time ON reconstructions(session, recorded_at);`,
		`CREATE TABLE IF NOT EXISTS supply (
			session TEXT NOT NULL,
			digest TEXT NOT NULL,
			tile TEXT NOT NULL,
			remaining INTEGER NOT NULL,
			PRIMARY KEY (session, digest, tile),
			FOREIGN KEY (session, digest) REFERENCES reconstructions(session, digest) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			session TEXT NOT NULL,
			digest TEXT NOT NULL,
			col INTEGER NOT NULL,
			row INTEGER NOT NULL,
			station INTEGER NOT NULL,
			circle INTEGER NOT NULL,
			company TEXT NOT NULL,
			is_home INTEGER NOT NULL,
			PRIMARY KEY (session, digest, col, row, station, circle),
			FOREIGN KEY (session, digest) REFERENCES reconstructions(session, digest) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_company ON tokens(company);`,
		`CREATE TABLE IF NOT EXISTS warnings (
			session TEXT NOT NULL,
			digest TEXT NOT NULL,
			idx INTEGER NOT NULL,
			action_json TEXT NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (session, digest, idx),
			FOREIGN KEY (session, digest) REFERENCES reconstructions(session, digest) ON DELETE CASCADE
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (x *Index) Close() error {
	if x == nil {
		return nil
	}
	return x.db.Close()
}

// UpsertCatalog records which tile catalog is in use.
func (x *Index) UpsertCatalog(ctx context.Context, name string, cat *tiles.Catalog) error {
	names, err := json.Marshal(cat.Names())
	if err != nil {
		return err
	}
	_, err = x.db.ExecContext(ctx,
		`INSERT INTO catalogs(name, digest, defs, names_json, updated_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, defs=excluded.defs,
		   names_json=excluded.names_json, updated_at=excluded.updated_at`,
		name, cat.Digest, len(cat.Defs), string(names), x.stamp())
	return err
}

// Record stores the reconstruction of session's log. Recording the same log
// twice replaces the earlier row.
func (x *Index) Record(ctx context.Context, session string, l *gamelog.Log, s *replay.State) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	digest := s.Digest
	if digest == "" {
		digest = l.Digest()
	}
	var tokenCount int
	for _, list := range s.Tokens {
		tokenCount += len(list)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reconstructions WHERE session=? AND digest=?`, session, digest); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reconstructions(session, digest, game, actions, tiles, tokens, warnings, recorded_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		session, digest, l.GameName, l.Len(), len(s.Tiles), tokenCount, len(s.Warnings), x.stamp()); err != nil {
		return err
	}

	supplyStmt, err := tx.PrepareContext(ctx, `INSERT INTO supply(session, digest, tile, remaining) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer supplyStmt.Close()
	for _, tile := range sortedKeys(s.Amounts) {
		if _, err := supplyStmt.ExecContext(ctx, session, digest, tile, s.Amounts[tile]); err != nil {
			return err
		}
	}

	tokStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tokens(session, digest, col, row, station, circle, company, is_home) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer tokStmt.Close()
	for _, list := range s.Tokens {
		for _, t := range list {
			if _, err := tokStmt.ExecContext(ctx, session, digest, t.Coord.Col, t.Coord.Row, t.Station, t.Circle, t.Company, boolInt(t.IsHome)); err != nil {
				return fmt.Errorf("token %s at %s: %w", t.Company, t.Coord, err)
			}
		}
	}

	warnStmt, err := tx.PrepareContext(ctx, `INSERT INTO warnings(session, digest, idx, action_json, reason) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer warnStmt.Close()
	for _, w := range s.Warnings {
		b, _ := json.Marshal(w.Action)
		if _, err := warnStmt.ExecContext(ctx, session, digest, w.Index, string(b), w.Reason); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Summary is the most recent recorded reconstruction of a session.
type Summary struct {
	Session    string
	Digest     string
	Game       string
	Actions    int
	Tokens     int
	Warnings   []string
	Remaining  map[string]int
	RecordedAt time.Time
}

// Latest returns the newest reconstruction recorded for session.
func (x *Index) Latest(ctx context.Context, session string) (Summary, error) {
	out := Summary{Session: session, Remaining: map[string]int{}}
	var recorded string
	err := x.db.QueryRowContext(ctx,
		`SELECT digest, game, actions, tokens, recorded_at FROM reconstructions
		 WHERE session=? ORDER BY recorded_at DESC, rowid DESC LIMIT 1`, session).
		Scan(&out.Digest, &out.Game, &out.Actions, &out.Tokens, &recorded)
	if errors.Is(err, sql.ErrNoRows) {
		return out, fmt.Errorf("session %s: %w", session, ErrNotFound)
	}
	if err != nil {
		return out, err
	}
	if out.RecordedAt, err = time.Parse(stampLayout, recorded); err != nil {
		return out, err
	}

	rows, err := x.db.QueryContext(ctx, `SELECT tile, remaining FROM supply WHERE session=? AND digest=?`, session, out.Digest)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var tile string
		var n int
		if err := rows.Scan(&tile, &n); err != nil {
			_ = rows.Close()
			return out, err
		}
		out.Remaining[tile] = n
	}
	if err := rows.Close(); err != nil {
		return out, err
	}

	rows, err = x.db.QueryContext(ctx, `SELECT reason FROM warnings WHERE session=? AND digest=? ORDER BY idx`, session, out.Digest)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var reason string
		if err := rows.Scan(&reason); err != nil {
			return out, err
		}
		out.Warnings = append(out.Warnings, reason)
	}
	return out, rows.Err()
}

// stampLayout has fixed width so recorded_at sorts as text.
const stampLayout = "2006-01-02T15:04:05.000000000Z"

func (x *Index) stamp() string { return x.now().UTC().Format(stampLayout) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
