package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/sugar/internal/errors"
	"github.com/vango-dev/sugar/pkg/storage"
	"github.com/vango-dev/sugar/pkg/webfs"
)

// syncBuffer is a bytes.Buffer safe for a command writing while a test
// reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// project writes sugar.json with the given storage section and returns
// its path.
func project(t *testing.T, storageJSON string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sugar.json")
	writeFile(t, path, `{"storage": `+storageJSON+`, "log": {"level": "error"}}`)
	return path
}

func run(t *testing.T, ctx context.Context, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "dev\n" {
		t.Errorf("version = %q", out.String())
	}
}

func TestStoreCommands(t *testing.T) {
	backends := map[string]string{
		"file":   `{"backend": "file", "path": "data"}`,
		"sqlite": `{"backend": "sqlite", "path": "data/store.db"}`,
	}

	for name, storageJSON := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			cfg := project(t, storageJSON)

			if _, err := run(t, ctx, cfg, "store", "set", "counter", `{"count":1,"tags":["a"]}`); err != nil {
				t.Fatal(err)
			}
			out, err := run(t, ctx, cfg, "store", "get", "counter")
			if err != nil {
				t.Fatal(err)
			}
			if out != `{"count":1,"tags":["a"]}`+"\n" {
				t.Errorf("get = %q", out)
			}

			out, err = run(t, ctx, cfg, "store", "patch", "counter", `{"count": 2, "meta": {"by": "cli"}}`)
			if err != nil {
				t.Fatal(err)
			}
			var patched map[string]any
			if err := json.Unmarshal([]byte(out), &patched); err != nil {
				t.Fatalf("patch output %q: %v", out, err)
			}
			want := map[string]any{"count": 2.0, "tags": []any{"a"}, "meta": map[string]any{"by": "cli"}}
			if diff := cmp.Diff(want, patched); diff != "" {
				t.Errorf("patched (-want +got):\n%s", diff)
			}

			if _, err := run(t, ctx, cfg, "store", "set", "other", `{}`); err != nil {
				t.Fatal(err)
			}
			out, err = run(t, ctx, cfg, "store", "ls")
			if err != nil {
				t.Fatal(err)
			}
			if out != "counter\nother\n" {
				t.Errorf("ls = %q", out)
			}

			out, err = run(t, ctx, cfg, "store", "dump")
			if err != nil {
				t.Fatal(err)
			}
			var dump map[string]map[string]any
			if err := json.Unmarshal([]byte(out), &dump); err != nil {
				t.Fatal(err)
			}
			if dump["counter"]["count"] != 2.0 || len(dump["other"]) != 0 {
				t.Errorf("dump = %v", dump)
			}

			if _, err := run(t, ctx, cfg, "store", "rm", "other"); err != nil {
				t.Fatal(err)
			}
			if _, err := run(t, ctx, cfg, "store", "get", "other"); errors.Code(err) != "S203" {
				t.Errorf("get after rm = %v", err)
			}
		})
	}
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	cfg := project(t, `{"backend": "file", "path": "data"}`)

	if _, err := run(t, ctx, cfg, "store", "set", "k", `not json`); errors.Code(err) != "S301" {
		t.Errorf("set invalid = %v", err)
	}
	if _, err := run(t, ctx, cfg, "store", "patch", "k", `[1]`); errors.Code(err) != "S402" {
		t.Errorf("patch list = %v", err)
	}
	if _, err := run(t, ctx, cfg, "store", "get"); err == nil {
		t.Error("get without key succeeded")
	}

	bad := project(t, `{"backend": "redis"}`)
	if _, err := run(t, ctx, bad, "store", "ls"); errors.Code(err) != "S103" {
		t.Errorf("unknown backend = %v", err)
	}
}

func TestStoreYAMLFormat(t *testing.T) {
	ctx := context.Background()
	cfg := project(t, `{"backend": "file", "path": "data", "format": "yaml"}`)

	if _, err := run(t, ctx, cfg, "store", "patch", "prefs", `{"theme": "dark"}`); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, ctx, cfg, "store", "get", "prefs")
	if err != nil {
		t.Fatal(err)
	}
	if out != "theme: dark\n\n" {
		t.Errorf("yaml value = %q", out)
	}
}

func TestI18n(t *testing.T) {
	ctx := context.Background()
	cfg := project(t, `{"backend": "memory"}`)
	locales := filepath.Join(filepath.Dir(cfg), "locales")
	writeFile(t, filepath.Join(locales, "en.yaml"), "home:\n  title: Welcome\nmenu:\n  - Home\n  - About\n")
	writeFile(t, filepath.Join(locales, "fr.json"), `{"home": {"title": "Bienvenue"}}`)

	out, err := run(t, ctx, cfg, "i18n", "home.title", "--locale", "fr")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Bienvenue\n" {
		t.Errorf("fr title = %q", out)
	}

	out, err = run(t, ctx, cfg, "i18n", "menu.1", "--locale", "en")
	if err != nil {
		t.Fatal(err)
	}
	if out != "About\n" {
		t.Errorf("menu.1 = %q", out)
	}

	out, err = run(t, ctx, cfg, "i18n", "--locale", "en")
	if err != nil {
		t.Fatal(err)
	}
	if out != "* en\n  fr\n" {
		t.Errorf("locales = %q", out)
	}

	if _, err := run(t, ctx, cfg, "i18n", "home.missing", "--locale", "en"); errors.Code(err) != "S305" {
		t.Errorf("missing path = %v", err)
	}
	if _, err := run(t, ctx, cfg, "i18n", "home.title", "--locale", "de"); errors.Code(err) != "S301" {
		t.Errorf("unknown locale = %v", err)
	}
	if _, err := run(t, ctx, cfg, "i18n", "--dir", filepath.Join(locales, "nope")); errors.Code(err) != "S304" {
		t.Errorf("missing dir = %v", err)
	}
}

func walkFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "README.md"), "# readme")
	writeFile(t, filepath.Join(root, "pkg", "lib.go"), "package pkg")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
	writeFile(t, filepath.Join(root, "vendor", "dep.go"), "package dep")
	return root
}

func TestWalk(t *testing.T) {
	ctx := context.Background()
	cfg := project(t, `{"backend": "memory"}`)
	root := walkFixture(t)

	out, err := run(t, ctx, cfg, "walk", root, "--ext", "go", "--skip", ".git,vendor", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var files []webfs.File
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("walk output %q: %v", out, err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.Path())
	}
	if diff := cmp.Diff([]string{"main.go", "pkg/lib.go"}, got); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}

	// Defaults from sugar.json skip .git and node_modules only.
	out, err = run(t, ctx, cfg, "walk", root)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "HEAD") || !strings.Contains(out, "vendor/dep.go") || !strings.Contains(out, "README.md") {
		t.Errorf("text listing = %q", out)
	}

	if _, err := run(t, ctx, cfg, "walk", root, "--pattern", "("); errors.Code(err) != "S301" {
		t.Errorf("bad pattern = %v", err)
	}
	if _, err := run(t, ctx, cfg, "walk", filepath.Join(root, "missing")); errors.Code(err) != "S302" {
		t.Errorf("missing dir = %v", err)
	}
}

func TestWalkWatch(t *testing.T) {
	cfg := project(t, `{"backend": "memory"}`)
	root := walkFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCmd()
	out := &syncBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs([]string{"--config", cfg, "walk", root, "--ext", "go", "--watch"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	waitFor(t, func() bool { return strings.Contains(out.String(), "main.go") })
	// Give the watcher time to register the directories.
	time.Sleep(300 * time.Millisecond)
	writeFile(t, filepath.Join(root, "pkg", "new.go"), "package pkg")
	waitFor(t, func() bool { return strings.Contains(out.String(), "pkg/new.go") })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("walk --watch = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("walk --watch did not stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewInspector(t *testing.T) {
	st := storage.NewMemory()
	st.SetItem("counter", `{"count":4}`)
	st.SetItem("prefs", `{"theme":"dark"}`)

	cfgPath := project(t, `{"backend": "memory"}`)
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "version"})
	a := &app{configPath: cfgPath}
	if err := a.init(cmd); err != nil {
		t.Fatal(err)
	}

	server, err := a.newInspector(st, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	if diff := cmp.Diff([]string{"counter", "prefs"}, server.Registry().Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	req := httptest.NewRequest("PATCH", "/stores/counter", strings.NewReader(`{"count": 5}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body)
	}
	if v, _, _ := st.GetItem("counter"); v != `{"count":5}` {
		t.Errorf("persisted = %q", v)
	}

	only, err := a.newInspector(st, []string{"prefs"})
	if err != nil {
		t.Fatal(err)
	}
	defer only.Close()
	if diff := cmp.Diff([]string{"prefs"}, only.Registry().Names()); diff != "" {
		t.Errorf("explicit names (-want +got):\n%s", diff)
	}
}
