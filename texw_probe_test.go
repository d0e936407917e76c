package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitranim/gg/gtest"
)

func testFile(t testing.TB, dir, name string) string {
	path := filepath.Join(dir, name)
	gtest.NoErr(os.MkdirAll(filepath.Dir(path), 0o755))
	gtest.NoErr(os.WriteFile(path, nil, 0o644))
	return path
}

func testTouch(path string, inst time.Time) {
	gtest.NoErr(os.Chtimes(path, inst, inst))
}

func TestProbe(t *testing.T) {
	defer gtest.Catch(t)

	path := testFile(t, t.TempDir(), `main.tex`)
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	testTouch(path, base)

	t.Run(`equal mtime is not a change`, func(t *testing.T) {
		defer gtest.Catch(t)

		changed, next, err := Probe(path, base)
		gtest.NoErr(err)
		gtest.False(changed)
		gtest.True(next.Equal(base))
	})

	t.Run(`repeated probes are idempotent`, func(t *testing.T) {
		defer gtest.Catch(t)

		next := base
		for ind := 0; ind < 3; ind++ {
			var changed bool
			var err error
			changed, next, err = Probe(path, next)
			gtest.NoErr(err)
			gtest.False(changed)
		}
		gtest.True(next.Equal(base))
	})

	t.Run(`later mtime is a change`, func(t *testing.T) {
		defer gtest.Catch(t)

		later := base.Add(time.Second)
		testTouch(path, later)
		defer testTouch(path, base)

		changed, next, err := Probe(path, base)
		gtest.NoErr(err)
		gtest.True(changed)
		gtest.True(next.Equal(later))

		changed, next, err = Probe(path, next)
		gtest.NoErr(err)
		gtest.False(changed)
		gtest.True(next.Equal(later))
	})

	t.Run(`earlier mtime keeps the baseline`, func(t *testing.T) {
		defer gtest.Catch(t)

		earlier := base.Add(-time.Hour)
		testTouch(path, earlier)
		defer testTouch(path, base)

		changed, next, err := Probe(path, base)
		gtest.NoErr(err)
		gtest.False(changed)
		gtest.True(next.Equal(base))
	})

	t.Run(`missing file is an error`, func(t *testing.T) {
		defer gtest.Catch(t)

		changed, next, err := Probe(path+`.missing`, base)
		gtest.True(err != nil)
		gtest.False(changed)
		gtest.True(next.Equal(base))
	})
}
