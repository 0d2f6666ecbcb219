package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command against dir and returns stdout and stderr.
func run(t *testing.T, dir, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRoot()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--data-dir", dir, "--fsync", "never", "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, _, err := run(t, dir, "", args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "put", "--id", "a", "--tag", "red", "--body", `{"n":1}`)
	if !strings.Contains(out, "stored Document(a)") {
		t.Fatalf("put output: %q", out)
	}
	out = mustRun(t, dir, "get", "a")
	if strings.TrimSpace(out) != `{"id":"a","tags":["red"],"body":{"n":1}}` {
		t.Fatalf("get output: %q", out)
	}
}

func TestGetMissing(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "", "get", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestFindAndDelete(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "put", "--id", "b", "--tag", "red", "--tag", "blue")
	mustRun(t, dir, "put", "--id", "a", "--tag", "red")
	mustRun(t, dir, "put", "--id", "c", "--tag", "blue")

	if out := mustRun(t, dir, "find", "--tag", "red"); out != "a\nb\n" {
		t.Fatalf("find red: %q", out)
	}
	mustRun(t, dir, "put", "--id", "b", "--tag", "green")
	if out := mustRun(t, dir, "find", "--tag", "red"); out != "a\n" {
		t.Fatalf("find red after retag: %q", out)
	}
	if out := mustRun(t, dir, "delete", "a", "c"); !strings.Contains(out, "deleted 2") {
		t.Fatalf("delete output: %q", out)
	}
	if out := mustRun(t, dir, "list"); out != "b\n" {
		t.Fatalf("list after delete: %q", out)
	}
	if out := mustRun(t, dir, "find", "--tag", "blue"); out != "" {
		t.Fatalf("find blue after delete: %q", out)
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	input := `{"id":"x","tags":["t"]}` + "\n\n" + `{"id":"y","tags":["t"],"body":[1,2]}` + "\n"
	out, _, err := run(t, dir, input, "import")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported 2 documents") {
		t.Fatalf("import output: %q", out)
	}
	if out := mustRun(t, dir, "find", "--tag", "t"); out != "x\ny\n" {
		t.Fatalf("find: %q", out)
	}

	if _, _, err := run(t, dir, `{"tags":["t"]}`, "import"); err == nil {
		t.Fatalf("document without id should fail")
	}
}

func TestWatchLogsMatchingEvents(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := run(t, dir, "", "--watch", `phase == "did"`, "put", "--id", "w", "--tag", "t")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.Contains(stderr, "didPut") || strings.Contains(stderr, "willPut") {
		t.Fatalf("watch output: %q", stderr)
	}
	if !strings.Contains(stderr, "key=Document(w)") {
		t.Fatalf("watch output lacks key: %q", stderr)
	}

	if _, _, err := run(t, dir, "", "--watch", "phase ==", "list"); err == nil {
		t.Fatalf("bad watch expression should fail")
	}
}

func TestPutValidation(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := run(t, dir, "", "put", "--body", "{}"); err == nil {
		t.Fatalf("missing id should fail")
	}
	if _, _, err := run(t, dir, "", "put", "--id", "a", "--body", "{"); err == nil {
		t.Fatalf("invalid body should fail")
	}
	if _, _, err := run(t, dir, "", "--fsync", "sometimes", "list"); err == nil {
		t.Fatalf("bad fsync should fail")
	}
}

func TestHealth(t *testing.T) {
	if out := mustRun(t, t.TempDir(), "health"); out != "ok\n" {
		t.Fatalf("health: %q", out)
	}
}

func TestBoltEngine(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "--engine", "bolt", "put", "--id", "k", "--tag", "x")
	if out := mustRun(t, dir, "--engine", "bolt", "find", "--tag", "x"); out != "k\n" {
		t.Fatalf("find: %q", out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(t.TempDir(), "modeldb.yaml")
	if err := os.WriteFile(cfgFile, []byte("engine: bolt\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mustRun(t, dir, "--config", cfgFile, "put", "--id", "c")
	if _, err := os.Stat(filepath.Join(dir, "modeldb.bolt")); err != nil {
		t.Fatalf("config file engine not used: %v", err)
	}
	if _, _, err := run(t, dir, "", "--env-file", filepath.Join(dir, "missing.env"), "list"); err == nil {
		t.Fatalf("missing env file should fail")
	}
}
