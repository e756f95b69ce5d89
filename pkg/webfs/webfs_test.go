package webfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vango-dev/sugar/internal/telemetry"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var modTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testFS() fstest.MapFS {
	file := func(data string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(data), ModTime: modTime}
	}
	return fstest.MapFS{
		"project/main.ts":              file("main"),
		"project/README.md":            file("readme"),
		"project/.env":                 file("X=1"),
		"project/src/app.ts":           file("app!"),
		"project/src/app.test.ts":      file("test"),
		"project/src/styles/site.css":  file("css"),
		"project/src/lib/util.ts":      file("u"),
		"project/src/lib/deep/x.tsx":   file("xx"),
		"project/assets/logo.svg":      file("<svg/>"),
		"project/assets/fonts/a.woff2": file("font"),
		"project/empty/.keep":          file(""),
	}
}

func testOpts(extra ...Option) []Option {
	m := telemetry.New(telemetry.WithRegistry(prometheus.NewRegistry()))
	return append([]Option{WithMetrics(m)}, extra...)
}

func openTest(t *testing.T) DirectoryHandle {
	t.Helper()
	root, err := OpenFS(testFS(), "project")
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path()
	}
	return out
}

func TestWalkExtensionFilter(t *testing.T) {
	res, err := Walk(context.Background(), openTest(t), testOpts(Extensions("ts"))...)
	if err != nil {
		t.Fatal(err)
	}

	want := []File{
		{Dir: "", Name: "main", Ext: ".ts", Size: 4, ModifiedTime: modTime},
		{Dir: "src", Name: "app.test", Ext: ".ts", Size: 4, ModifiedTime: modTime},
		{Dir: "src", Name: "app", Ext: ".ts", Size: 4, ModifiedTime: modTime},
		{Dir: "src/lib", Name: "util", Ext: ".ts", Size: 1, ModifiedTime: modTime},
	}
	if diff := cmp.Diff(want, res.Files, cmpopts.IgnoreFields(File{}, "Handle")); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	for _, f := range res.Files {
		if f.Handle == nil || f.Handle.Name() != f.Name+f.Ext {
			t.Errorf("%s: handle %v", f.Path(), f.Handle)
		}
	}
}

func TestWalkKeepsDirectoriesThatDoNotMatch(t *testing.T) {
	res, err := Walk(context.Background(), openTest(t), testOpts(Extensions("tsx", "woff2"))...)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"src/lib/deep/x.tsx", "assets/fonts/a.woff2"}
	sort.Strings(want)
	got := paths(res.Files)
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
}

func TestWalkNoFilter(t *testing.T) {
	res, err := Walk(context.Background(), openTest(t), testOpts()...)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != len(testFS()) {
		t.Errorf("got %d files, want %d: %v", len(res.Files), len(testFS()), paths(res.Files))
	}

	var env File
	for _, f := range res.Files {
		if f.Path() == ".env" {
			env = f
		}
	}
	if env.Name != ".env" || env.Ext != "" {
		t.Errorf(".env parsed as name %q ext %q", env.Name, env.Ext)
	}

	for _, key := range []string{".", "src", "src/lib/deep", "empty", "empty/.keep", "main.ts"} {
		if _, ok := res.Handles[key]; !ok {
			t.Errorf("handle map missing %q", key)
		}
	}
	if res.Handles["."].Kind() != KindDirectory || res.Handles["main.ts"].Kind() != KindFile {
		t.Error("handle kinds are wrong")
	}
}

func TestWalkPattern(t *testing.T) {
	res, err := Walk(context.Background(), openTest(t), testOpts(Pattern(regexp.MustCompile(`^app`)))...)
	if err != nil {
		t.Fatal(err)
	}
	got := paths(res.Files)
	sort.Strings(got)
	if diff := cmp.Diff([]string{"src/app.test.ts", "src/app.ts"}, got); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}

	res, err = Walk(context.Background(), openTest(t),
		testOpts(Pattern(regexp.MustCompile(`^app`)), Extensions("css"))...)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 0 {
		t.Errorf("combined filters matched %v", paths(res.Files))
	}
}

func TestSkipDirs(t *testing.T) {
	res, err := Walk(context.Background(), openTest(t), testOpts(SkipDirs("assets", "lib"))...)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range res.Files {
		if f.Dir == "assets" || f.Dir == "assets/fonts" || f.Dir == "src/lib" || f.Dir == "src/lib/deep" {
			t.Errorf("file %s under a skipped directory", f.Path())
		}
	}
	if _, ok := res.Handles["src/lib"]; ok {
		t.Error("skipped directory has a handle")
	}
	if _, ok := res.Handles["src/styles"]; !ok {
		t.Error("unskipped directory is missing")
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, base, ext string }{
		{"a.ts", "a", ".ts"},
		{"a.tar.gz", "a.tar", ".gz"},
		{".env", ".env", ""},
		{"Makefile", "Makefile", ""},
		{"trailing.", "trailing.", ""},
		{"..x", ".", ".x"},
	}
	for _, tt := range tests {
		base, ext := splitName(tt.in)
		if base != tt.base || ext != tt.ext {
			t.Errorf("splitName(%q) = %q, %q; want %q, %q", tt.in, base, ext, tt.base, tt.ext)
		}
	}
}

// fakeDir and fakeFile build trees with controllable failures.
type fakeDir struct {
	name    string
	entries []Handle
	err     error
}

func (d *fakeDir) Kind() Kind   { return KindDirectory }
func (d *fakeDir) Name() string { return d.name }
func (d *fakeDir) Entries(context.Context) ([]Handle, error) {
	return d.entries, d.err
}

type fakeFile struct {
	name string
	size int64
	err  error
}

func (f *fakeFile) Kind() Kind   { return KindFile }
func (f *fakeFile) Name() string { return f.name }
func (f *fakeFile) Stat(context.Context) (fs.FileInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fstest.MapFS{f.name: {Data: make([]byte, f.size), ModTime: modTime}}.Stat(f.name)
}
func (f *fakeFile) Open(context.Context) (io.ReadCloser, error) {
	return nil, errors.ErrUnsupported
}

func TestStatFailureDegrades(t *testing.T) {
	root := &fakeDir{name: "root", entries: []Handle{
		&fakeFile{name: "ok.txt", size: 10},
		&fakeFile{name: "locked.txt", err: fs.ErrPermission},
	}}

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	m := telemetry.New(telemetry.WithRegistry(prometheus.NewRegistry()))
	res, err := Walk(context.Background(), root, WithMetrics(m), WithAddTime(),
		func(c *config) { c.now = func() time.Time { return now } })
	if err != nil {
		t.Fatal(err)
	}

	want := []File{
		{Name: "ok", Ext: ".txt", Size: 10, AddTime: &now, ModifiedTime: modTime},
		{Name: "locked", Ext: ".txt", Size: 0, AddTime: &now, ModifiedTime: now},
	}
	if diff := cmp.Diff(want, res.Files, cmpopts.IgnoreFields(File{}, "Handle")); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(m.WalkStatFailures); got != 1 {
		t.Errorf("stat failures = %v", got)
	}
	if got := testutil.ToFloat64(m.WalkFiles); got != 2 {
		t.Errorf("walk files = %v", got)
	}
}

func TestWalkManyEntriesPreservesOrder(t *testing.T) {
	var entries []Handle
	var want []string
	for i := 0; i < 3*BatchSize+3; i++ {
		name := string(rune('a'+i%26)) + string(rune('a'+i/26)) + ".go"
		entries = append(entries, &fakeFile{name: name, size: 1})
		want = append(want, name)
	}
	root := &fakeDir{name: "root", entries: entries}

	res, err := Walk(context.Background(), root, testOpts()...)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, paths(res.Files)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

// inflight tracks the peak number of concurrent calls.
type inflight struct {
	cur, peak atomic.Int32
}

func (f *inflight) enter() {
	n := f.cur.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
}

func (f *inflight) leave() { f.cur.Add(-1) }

type countingDir struct {
	fakeDir
	calls *inflight
}

func (d *countingDir) Entries(ctx context.Context) ([]Handle, error) {
	d.calls.enter()
	defer d.calls.leave()
	return d.fakeDir.Entries(ctx)
}

type countingFile struct {
	fakeFile
	calls *inflight
}

func (f *countingFile) Stat(ctx context.Context) (fs.FileInfo, error) {
	f.calls.enter()
	defer f.calls.leave()
	return f.fakeFile.Stat(ctx)
}

func TestBatchesBoundConcurrency(t *testing.T) {
	var dirCalls, statCalls inflight
	var subdirs []Handle
	for i := 0; i < 3*BatchSize; i++ {
		var files []Handle
		for j := 0; j < 3; j++ {
			files = append(files, &countingFile{fakeFile: fakeFile{name: fmt.Sprintf("f%d.txt", j), size: 1}, calls: &statCalls})
		}
		subdirs = append(subdirs, &countingDir{fakeDir: fakeDir{name: fmt.Sprintf("d%02d", i), entries: files}, calls: &dirCalls})
	}
	for i := 0; i < 2*BatchSize; i++ {
		subdirs = append(subdirs, &countingFile{fakeFile: fakeFile{name: fmt.Sprintf("top%02d.txt", i), size: 1}, calls: &statCalls})
	}
	root := &countingDir{fakeDir: fakeDir{name: "root", entries: subdirs}, calls: &dirCalls}

	tree, err := BuildTree(context.Background(), root, testOpts()...)
	if err != nil {
		t.Fatal(err)
	}
	if got := dirCalls.peak.Load(); got < 2 || got > BatchSize {
		t.Errorf("peak concurrent Entries = %d, want 2..%d", got, BatchSize)
	}

	files := WalkTree(context.Background(), tree, map[string]Handle{}, testOpts()...)
	if want := 3*3*BatchSize + 2*BatchSize; len(files) != want {
		t.Errorf("got %d files, want %d", len(files), want)
	}
	if got := statCalls.peak.Load(); got < 2 || got > BatchSize {
		t.Errorf("peak concurrent Stat = %d, want 2..%d", got, BatchSize)
	}
}

func TestDirectoryReadError(t *testing.T) {
	boom := errors.New("boom")
	root := &fakeDir{name: "root", entries: []Handle{
		&fakeDir{name: "bad", err: boom},
		&fakeFile{name: "a.txt"},
	}}
	if _, err := Walk(context.Background(), root, testOpts()...); !errors.Is(err, boom) {
		t.Errorf("Walk = %v, want boom", err)
	}
}

func TestUnsupportedRoot(t *testing.T) {
	for _, root := range []Handle{nil, &fakeFile{name: "f"}, (*fakeDir)(nil)} {
		if _, err := Walk(context.Background(), root); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Walk(%v) = %v, want ErrUnsupported", root, err)
		}
		if _, err := BuildTree(context.Background(), root); !errors.Is(err, ErrUnsupported) {
			t.Errorf("BuildTree(%v) = %v, want ErrUnsupported", root, err)
		}
	}

	if _, err := OpenFS(testFS(), "project/main.ts"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("OpenFS on a file = %v", err)
	}
	if _, err := OpenFS(testFS(), "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("OpenFS on a missing dir = %v", err)
	}
}

func TestBuildTreeThenWalkTree(t *testing.T) {
	tree, err := BuildTree(context.Background(), openTest(t), Extensions("css"))
	if err != nil {
		t.Fatal(err)
	}
	if tree.Key() != "." {
		t.Errorf("root key = %q", tree.Key())
	}

	handles := map[string]Handle{"src": &fakeDir{name: "preexisting"}}
	files := WalkTree(context.Background(), tree, handles, testOpts()...)

	if diff := cmp.Diff([]string{"src/styles/site.css"}, paths(files)); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
	if handles["src"].Name() != "preexisting" {
		t.Error("WalkTree replaced an existing handle")
	}
	if _, ok := handles["src/styles/site.css"]; !ok {
		t.Error("handle map missing the file")
	}
}

func TestCanceledContextDegradesStat(t *testing.T) {
	root := openTest(t)
	tree, err := BuildTree(context.Background(), root, Extensions("md"))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	files := WalkTree(ctx, tree, map[string]Handle{}, testOpts()...)
	if len(files) != 1 || files[0].Size != 0 {
		t.Errorf("files = %+v, want one degraded entry", files)
	}
}

func TestOpenDirAndFileContent(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "note.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := OpenDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if root.Name() != filepath.Base(dir) {
		t.Errorf("root name = %q", root.Name())
	}

	res, err := Walk(context.Background(), root, testOpts()...)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("files = %v", paths(res.Files))
	}
	f := res.Files[0]
	if f.Dir != "sub" || f.Size != 5 {
		t.Errorf("file = %+v", f)
	}

	rc, err := f.Handle.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || string(data) != "hello" {
		t.Errorf("content = %q, %v", data, err)
	}
}

func TestKindString(t *testing.T) {
	if KindFile.String() != "file" || KindDirectory.String() != "directory" || Kind(7).String() != "Kind(7)" {
		t.Error("Kind.String mismatch")
	}
}
