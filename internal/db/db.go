// Package db manages the SQLite ledger of sever operations.
//
// The ledger maps sanitized-document digests to key ids and file locations so
// a keyholder can find the right key for a document. It never stores original
// text or key material.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/go-ports/vecture/internal/models"
)

// schemaVersion is stored in the meta table on first open.
const schemaVersion = 1

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrAmbiguousID is returned when an id prefix matches more than one entry.
var ErrAmbiguousID = errors.New("ambiguous key id prefix")

// DB wraps a *sql.DB with the path it was opened from.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the SQLite ledger at path and initialises the schema.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db.Open createSchema: %w", err)
	}
	return d, nil
}

// Path returns the file the ledger was opened from.
func (d *DB) Path() string { return d.path }

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (d *DB) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS severances (
			rowid          INTEGER PRIMARY KEY AUTOINCREMENT,
			key_id         TEXT UNIQUE NOT NULL,
			digest         TEXT NOT NULL,
			style          TEXT NOT NULL,
			source_path    TEXT,
			sanitized_path TEXT,
			key_path       TEXT,
			records        INTEGER NOT NULL,
			categories     TEXT NOT NULL,
			encrypted      INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS severances_digest ON severances(digest)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}

	v, ok, err := d.GetMeta("schema_version")
	if err != nil {
		return err
	}
	if !ok {
		return d.SetMeta("schema_version", strconv.Itoa(schemaVersion))
	}
	if n, err := strconv.Atoi(v); err != nil || n > schemaVersion {
		return fmt.Errorf("ledger schema version %q is newer than this build understands", v)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Severances
// ---------------------------------------------------------------------------

const severanceColumns = `key_id, digest, style, source_path, sanitized_path, key_path,
	records, categories, encrypted, created_at`

// InsertSeverance records one sever operation and returns its rowid.
func (d *DB) InsertSeverance(s *models.Severance) (int64, error) {
	cats, err := json.Marshal(s.Categories)
	if err != nil {
		return 0, fmt.Errorf("InsertSeverance: marshal categories: %w", err)
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := d.db.Exec(`
		INSERT INTO severances (`+severanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.KeyID, strings.ToLower(s.Digest), s.Style,
		s.SourcePath, s.SanitizedPath, s.KeyPath,
		s.Records, string(cats), s.Encrypted,
		created.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("InsertSeverance: %w", err)
	}
	return res.LastInsertId()
}

// FindByDigest returns every severance whose sanitized document has the
// given digest, newest first.
func (d *DB) FindByDigest(digest string) ([]models.Severance, error) {
	rows, err := d.db.Query(`
		SELECT `+severanceColumns+` FROM severances
		WHERE digest = ? ORDER BY created_at DESC, rowid DESC`,
		strings.ToLower(digest))
	if err != nil {
		return nil, fmt.Errorf("FindByDigest: %w", err)
	}
	defer rows.Close()
	return scanSeverances(rows)
}

// GetSeverance fetches one severance by key id or unique key id prefix.
func (d *DB) GetSeverance(id string) (*models.Severance, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	rows, err := d.db.Query(`
		SELECT `+severanceColumns+` FROM severances
		WHERE key_id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return nil, false, fmt.Errorf("GetSeverance: %w", err)
	}
	defer rows.Close()
	found, err := scanSeverances(rows)
	switch {
	case err != nil:
		return nil, false, err
	case len(found) == 0:
		return nil, false, nil
	case len(found) > 1:
		return nil, false, fmt.Errorf("%w: %q", ErrAmbiguousID, id)
	}
	return &found[0], true, nil
}

// ListSeverances returns recent severances, newest first. An empty style
// lists every style; limit <= 0 lists everything.
func (d *DB) ListSeverances(limit int, style string) ([]models.Severance, error) {
	q := `SELECT ` + severanceColumns + ` FROM severances`
	var params []any
	if style != "" {
		q += ` WHERE style = ?`
		params = append(params, style)
	}
	q += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		params = append(params, limit)
	}

	rows, err := d.db.Query(q, params...) // #nosec G202 -- clauses are fixed strings; values flow through ? bound parameters
	if err != nil {
		return nil, fmt.Errorf("ListSeverances: %w", err)
	}
	defer rows.Close()
	return scanSeverances(rows)
}

// CountSeverances returns the number of recorded severances.
func (d *DB) CountSeverances() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM severances`).Scan(&n)
	return n, err
}

// DeleteSeverance forgets one severance by key id or unique prefix.
// Returns true if an entry was found and deleted.
func (d *DB) DeleteSeverance(id string) (bool, error) {
	s, ok, err := d.GetSeverance(id)
	if err != nil || !ok {
		return false, err
	}
	if _, err := d.db.Exec(`DELETE FROM severances WHERE key_id = ?`, s.KeyID); err != nil {
		return false, fmt.Errorf("DeleteSeverance: %w", err)
	}
	return true, nil
}

// DeleteBefore forgets every severance created before the given time and
// returns how many were removed.
func (d *DB) DeleteBefore(before time.Time) (int, error) {
	res, err := d.db.Exec(`DELETE FROM severances WHERE created_at < ?`,
		before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("DeleteBefore: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ---------------------------------------------------------------------------
// Meta
// ---------------------------------------------------------------------------

// GetMeta returns the value for key, or ("", false, nil) if not set.
func (d *DB) GetMeta(key string) (string, bool, error) {
	var val string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetMeta upserts a key-value pair in the meta table.
func (d *DB) SetMeta(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func scanSeverances(rows *sql.Rows) ([]models.Severance, error) {
	var out []models.Severance
	for rows.Next() {
		var (
			s                   models.Severance
			source, san, keyRef sql.NullString
			cats, created       string
		)
		if err := rows.Scan(&s.KeyID, &s.Digest, &s.Style, &source, &san, &keyRef,
			&s.Records, &cats, &s.Encrypted, &created); err != nil {
			return nil, err
		}
		s.SourcePath, s.SanitizedPath, s.KeyPath = source.String, san.String, keyRef.String
		if err := json.Unmarshal([]byte(cats), &s.Categories); err != nil {
			return nil, fmt.Errorf("severance %s: categories: %w", s.KeyID, err)
		}
		t, err := time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("severance %s: created_at: %w", s.KeyID, err)
		}
		s.CreatedAt = t
		out = append(out, s)
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards so an id prefix matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
