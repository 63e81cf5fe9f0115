package service

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/vecture/internal/config"
	"github.com/go-ports/vecture/internal/locate"
	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/render"
)

// ---------------------------------------------------------------------------
// SeverOptions
// ---------------------------------------------------------------------------

func TestSeverOptionsLocator_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		opts SeverOptions
		want []models.Category
	}{
		{
			name: "classes only",
			opts: SeverOptions{Classes: []models.Category{models.CategoryEmail}},
			want: []models.Category{models.CategoryEmail},
		},
		{
			name: "capitals appends the heuristic",
			opts: SeverOptions{Classes: []models.Category{models.CategoryDate}, Capitals: true},
			want: []models.Category{models.CategoryDate, models.CategoryCapitalized},
		},
		{
			name: "terms enable custom",
			opts: SeverOptions{Terms: []string{"x"}},
			want: []models.Category{models.CategoryCustom},
		},
		{
			name: "secrets adds the credential detector",
			opts: SeverOptions{Classes: []models.Category{models.CategoryEmail}, Secrets: true, Patterns: []string{`corp-\d+`}},
			want: []models.Category{models.CategoryEmail, locate.CategorySecret},
		},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			loc, err := tc.opts.locator()
			c.Assert(err, qt.IsNil)
			c.Assert(loc.Categories(), qt.DeepEquals, tc.want)
		})
	}
}

func TestSeverOptionsLocator_FailurePath(t *testing.T) {
	c := qt.New(t)

	_, err := SeverOptions{Secrets: true, Patterns: []string{"(unclosed"}}.locator()
	c.Assert(errors.Is(err, models.ErrInvalidPattern), qt.IsTrue)

	// Patterns are ignored while the detector is off.
	_, err = SeverOptions{Patterns: []string{"(unclosed"}}.locator()
	c.Assert(err, qt.IsNil)
}

func TestSeverOptionsLocator_DoesNotAliasClasses(t *testing.T) {
	c := qt.New(t)

	classes := make([]models.Category, 1, 4)
	classes[0] = models.CategoryEmail
	opts := SeverOptions{Classes: classes, Capitals: true}
	_, err := opts.locator()
	c.Assert(err, qt.IsNil)
	c.Assert(classes[:cap(classes)][1], qt.Equals, models.Category(""))
}

func TestSeverOptionsRenderer_HappyPath(t *testing.T) {
	c := qt.New(t)

	r, err := SeverOptions{Style: render.StyleBlackout}.renderer()
	c.Assert(err, qt.IsNil)
	c.Assert(r.Style(), qt.Equals, render.StyleBlackout)

	_, err = SeverOptions{Style: "bogus"}.renderer()
	c.Assert(err, qt.IsNotNil)
}

func TestKeyOptions_HappyPath(t *testing.T) {
	c := qt.New(t)

	s := &Service{Config: config.Default()}
	got := s.keyOptions(SeverOptions{Passphrase: "p", Compact: true})
	c.Assert(got.Passphrase, qt.Equals, "p")
	c.Assert(got.Compact, qt.IsTrue)
	c.Assert(got.KDF.Time, qt.Equals, uint32(3))
	c.Assert(got.KDF.MemoryKiB, qt.Equals, uint32(65536))
	c.Assert(got.KDF.Threads, qt.Equals, uint8(4))
}
