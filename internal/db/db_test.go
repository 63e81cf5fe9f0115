package db_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/vecture/internal/db"
	"github.com/go-ports/vecture/internal/models"
)

// openTestDB opens a fresh ledger in a temp directory and registers
// t.Cleanup to close it.
func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// newSeverance returns a severance for digest created at the given time.
func newSeverance(keyID, digest string, createdAt time.Time) *models.Severance {
	return &models.Severance{
		KeyID:         keyID,
		Digest:        digest,
		Style:         "CLASSIC",
		SourcePath:    "/docs/report.txt",
		SanitizedPath: "/docs/report_redacted.txt",
		KeyPath:       "/docs/report_redacted.txt.vecture",
		Records:       3,
		Categories:    map[models.Category]int{models.CategoryEmail: 2, models.CategoryDate: 1},
		CreatedAt:     createdAt,
	}
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen_HappyPath(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "ledger.db")
	d, err := db.Open(path)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Path(), qt.Equals, path)

	v, ok, err := d.GetMeta("schema_version")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, "1")
	c.Assert(d.Close(), qt.IsNil)

	// Reopening an existing ledger keeps its contents.
	d, err = db.Open(path)
	c.Assert(err, qt.IsNil)
	defer d.Close()
	n, err := d.CountSeverances()
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)
}

func TestOpen_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Run("newer schema is refused", func(c *qt.C) {
		path := filepath.Join(t.TempDir(), "ledger.db")
		d, err := db.Open(path)
		c.Assert(err, qt.IsNil)
		c.Assert(d.SetMeta("schema_version", "99"), qt.IsNil)
		c.Assert(d.Close(), qt.IsNil)

		_, err = db.Open(path)
		c.Assert(err, qt.ErrorMatches, `.*schema version "99".*`)
	})
}

// ---------------------------------------------------------------------------
// InsertSeverance / FindByDigest / GetSeverance
// ---------------------------------------------------------------------------

func TestInsertAndFind_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("inserted severance round-trips", func(c *qt.C) {
		d := openTestDB(t)
		s := newSeverance("key-1", "ab12", base)
		s.Encrypted = true
		_, err := d.InsertSeverance(s)
		c.Assert(err, qt.IsNil)

		got, err := d.FindByDigest("AB12")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 1)
		c.Assert(got[0], qt.DeepEquals, *s)
	})

	c.Run("newest severance comes first", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.InsertSeverance(newSeverance("old", "same", base))
		c.Assert(err, qt.IsNil)
		_, err = d.InsertSeverance(newSeverance("new", "same", base.Add(time.Millisecond)))
		c.Assert(err, qt.IsNil)
		_, err = d.InsertSeverance(newSeverance("other", "different", base.Add(time.Hour)))
		c.Assert(err, qt.IsNil)

		got, err := d.FindByDigest("same")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 2)
		c.Assert(got[0].KeyID, qt.Equals, "new")
		c.Assert(got[1].KeyID, qt.Equals, "old")
	})

	c.Run("unknown digest returns nothing", func(c *qt.C) {
		d := openTestDB(t)
		got, err := d.FindByDigest("nope")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 0)
	})

	c.Run("get by unique prefix", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.InsertSeverance(newSeverance("abcdef-1", "d", base))
		c.Assert(err, qt.IsNil)

		got, ok, err := d.GetSeverance("abc")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
		c.Assert(got.KeyID, qt.Equals, "abcdef-1")

		_, ok, err = d.GetSeverance("zzz")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})
}

func TestInsertAndFind_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Run("duplicate key id is rejected", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.InsertSeverance(newSeverance("dup", "d", base))
		c.Assert(err, qt.IsNil)
		_, err = d.InsertSeverance(newSeverance("dup", "d", base))
		c.Assert(err, qt.IsNotNil)
	})

	c.Run("ambiguous prefix", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.InsertSeverance(newSeverance("abc-1", "d", base))
		c.Assert(err, qt.IsNil)
		_, err = d.InsertSeverance(newSeverance("abc-2", "d", base))
		c.Assert(err, qt.IsNil)

		_, _, err = d.GetSeverance("abc")
		c.Assert(errors.Is(err, db.ErrAmbiguousID), qt.IsTrue)
	})

	c.Run("like wildcards in prefix match literally", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.InsertSeverance(newSeverance("abc-1", "d", base))
		c.Assert(err, qt.IsNil)

		_, ok, err := d.GetSeverance("%")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})
}

// ---------------------------------------------------------------------------
// ListSeverances / CountSeverances
// ---------------------------------------------------------------------------

func TestListSeverances_HappyPath(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)

	for i, style := range []string{"CLASSIC", "NOISE", "CLASSIC"} {
		s := newSeverance(string(rune('a'+i)), "d", base.Add(time.Duration(i)*time.Minute))
		s.Style = style
		_, err := d.InsertSeverance(s)
		c.Assert(err, qt.IsNil)
	}

	tests := []struct {
		name  string
		limit int
		style string
		want  []string
	}{
		{"all newest first", 0, "", []string{"c", "b", "a"}},
		{"limited", 2, "", []string{"c", "b"}},
		{"style filter", 0, "CLASSIC", []string{"c", "a"}},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			got, err := d.ListSeverances(tt.limit, tt.style)
			c.Assert(err, qt.IsNil)
			ids := make([]string, len(got))
			for i, s := range got {
				ids[i] = s.KeyID
			}
			c.Assert(ids, qt.DeepEquals, tt.want)
		})
	}

	n, err := d.CountSeverances()
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 3)
}

// ---------------------------------------------------------------------------
// DeleteSeverance / DeleteBefore
// ---------------------------------------------------------------------------

func TestDelete_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("delete by prefix", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.InsertSeverance(newSeverance("gone-1", "d", base))
		c.Assert(err, qt.IsNil)

		deleted, err := d.DeleteSeverance("gone")
		c.Assert(err, qt.IsNil)
		c.Assert(deleted, qt.IsTrue)

		deleted, err = d.DeleteSeverance("gone")
		c.Assert(err, qt.IsNil)
		c.Assert(deleted, qt.IsFalse)
	})

	c.Run("delete before cut-off", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.InsertSeverance(newSeverance("old", "d", base))
		c.Assert(err, qt.IsNil)
		_, err = d.InsertSeverance(newSeverance("new", "d", base.Add(48*time.Hour)))
		c.Assert(err, qt.IsNil)

		n, err := d.DeleteBefore(base.Add(24 * time.Hour))
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, 1)

		left, err := d.ListSeverances(0, "")
		c.Assert(err, qt.IsNil)
		c.Assert(left, qt.HasLen, 1)
		c.Assert(left[0].KeyID, qt.Equals, "new")
	})
}
