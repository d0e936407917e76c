package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitranim/gg/gtest"
)

func testScript(t testing.TB, dir, name, body string) {
	gtest.NoErr(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestTool(t *testing.T) {
	defer gtest.Catch(t)

	dir := t.TempDir()
	testScript(t, dir, `main.sh`, "echo 'This is a fake compiler'\necho '! Undefined control sequence.' \necho 'ignored' >&2\nexit 1\n")
	testScript(t, dir, `main`, "echo \"WARN - cwd $(basename \"$PWD\")\"\n")

	tool := &Tool{
		Layout:  Layout{Dir: dir, Main: `main.sh`},
		Primary: `sh`,
		Bib:     `sh`,
	}

	t.Run(`primary output is captured regardless of exit status`, func(t *testing.T) {
		defer gtest.Catch(t)

		out, err := tool.CompilePrimary()
		gtest.NoErr(err)
		gtest.Eq(out, "This is a fake compiler\n! Undefined control sequence.\n")
		gtest.True(Classify(KindPrimary, out).Failed())
		gtest.False(tool.IsRunning())
	})

	t.Run(`bibliography receives the base name and runs in the directory`, func(t *testing.T) {
		defer gtest.Catch(t)

		out, err := tool.CompileBib()
		gtest.NoErr(err)
		gtest.Eq(out, "WARN - cwd "+filepath.Base(dir)+"\n")
	})

	t.Run(`missing program is an error`, func(t *testing.T) {
		defer gtest.Catch(t)

		tool := &Tool{
			Layout:  Layout{Dir: dir, Main: `main.sh`},
			Primary: `texw-definitely-missing-compiler`,
		}
		_, err := tool.CompilePrimary()
		gtest.True(err != nil)
	})

	t.Run(`broadcast without subprocess is a nop`, func(t *testing.T) {
		defer gtest.Catch(t)
		tool.Broadcast(KILL_SIGS[3])
	})
}
