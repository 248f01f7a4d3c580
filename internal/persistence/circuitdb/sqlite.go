package circuitdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"airace/internal/sim/circuit"
	"airace/internal/sim/geom"
)

var ErrNotFound = errors.New("circuit not found")

// Store keeps named circuits in SQLite. Anchors are stored one row each, ordered by seq.
type Store struct {
	db *sql.DB
}

// Summary is one row of List.
type Summary struct {
	Name      string
	Anchors   int
	Length    float64
	Digest    string
	UpdatedAt time.Time
}

func Open(path string) (*Store, error) {
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
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
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
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS circuits (
			name TEXT PRIMARY KEY,
			anchors INTEGER NOT NULL,
			length REAL NOT NULL,
			digest TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS anchors (
			circuit TEXT NOT NULL REFERENCES circuits(name),
			seq INTEGER NOT NULL,
			px REAL NOT NULL, py REAL NOT NULL, pz REAL NOT NULL,
			rx REAL NOT NULL, ry REAL NOT NULL, rz REAL NOT NULL,
			PRIMARY KEY (circuit, seq)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Digest is a content hash over the canonical YAML encoding of c.
func Digest(c *circuit.Circuit) (string, error) {
	b, err := circuit.EncodeYAML(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Put inserts or replaces the circuit under its name.
func (s *Store) Put(ctx context.Context, c *circuit.Circuit) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("circuit: missing name")
	}
	digest, err := Digest(c)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM anchors WHERE circuit=?`, c.Name()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO circuits(name,anchors,length,digest,updated_at) VALUES(?,?,?,?,?)`,
		c.Name(), c.Count(), c.Length(), digest, now); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO anchors(circuit,seq,px,py,pz,rx,ry,rz) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, a := range c.Anchors() {
		p, r := a.Position, a.Right
		if _, err := stmt.ExecContext(ctx, c.Name(), i, p.X, p.Y, p.Z, r.X, r.Y, r.Z); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Get(ctx context.Context, name string) (*circuit.Circuit, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT anchors FROM circuits WHERE name=?`, name).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT px,py,pz,rx,ry,rz FROM anchors WHERE circuit=? ORDER BY seq`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	anchors := make([]circuit.Anchor, 0, n)
	for rows.Next() {
		var p, r geom.Vec3
		if err := rows.Scan(&p.X, &p.Y, &p.Z, &r.X, &r.Y, &r.Z); err != nil {
			return nil, err
		}
		anchors = append(anchors, circuit.Anchor{Position: p, Right: r})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(anchors) != n {
		return nil, fmt.Errorf("circuit %s: have %d anchors, want %d", name, len(anchors), n)
	}
	return circuit.New(name, anchors)
}

func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name,anchors,length,digest,updated_at FROM circuits ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum Summary
			ts  string
		)
		if err := rows.Scan(&sum.Name, &sum.Anchors, &sum.Length, &sum.Digest, &ts); err != nil {
			return nil, err
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM anchors WHERE circuit=?`, name); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM circuits WHERE name=?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return tx.Commit()
}
