package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Ashenafi-pixel/arcade-launcher/history"
	"github.com/Ashenafi-pixel/arcade-launcher/library"
)

// buildZip returns a ZIP archive holding files (path -> content). Paths ending in "/" are directories.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(name, "/") {
			if _, err := io.WriteString(w, content); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// zipExtractor unpacks with archive/zip so tests do not depend on an unzip binary.
func zipExtractor(ctx context.Context, archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		rel := sanitizeArchivePath(f.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, rel)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := writeEntry(target, f.Open); err != nil {
			return err
		}
	}
	return nil
}

type memRecorder struct {
	mu      sync.Mutex
	records []*history.Record
}

func (m *memRecorder) Append(ctx context.Context, r *history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func newTestIngester(t *testing.T) (*Ingester, *library.Library, *memRecorder) {
	t.Helper()
	lib := library.New(filepath.Join(t.TempDir(), "games"))
	rec := &memRecorder{}
	in := New(lib, Options{TempDir: t.TempDir(), Extract: zipExtractor, History: rec})
	return in, lib, rec
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestFromZip_FlatArchive(t *testing.T) {
	in, lib, rec := newTestIngester(t)
	data := buildZip(t, map[string]string{
		"index.html":    "<html>flat</html>",
		"assets/a.png":  "png",
		"__MACOSX/junk": "x",
	})
	id, err := in.FromZip(context.Background(), data, "My Cool Game!", "", "cool.zip")
	if err != nil {
		t.Fatal(err)
	}
	if id != "my-cool-game" {
		t.Errorf("id = %q", id)
	}
	if got := readFile(t, filepath.Join(lib.GamePath(id), "index.html")); got != "<html>flat</html>" {
		t.Errorf("index.html = %q", got)
	}
	if _, err := os.Stat(filepath.Join(lib.GamePath(id), "assets", "a.png")); err != nil {
		t.Error(err)
	}
	if len(rec.records) != 1 || !rec.records[0].OK || rec.records[0].GameID != id {
		t.Errorf("history = %+v", rec.records)
	}
}

func TestFromZip_WrapperThenDistHint(t *testing.T) {
	in, lib, _ := newTestIngester(t)
	data := buildZip(t, map[string]string{
		"repo-main/README.md":       "readme",
		"repo-main/index.html":      "<html>source</html>",
		"repo-main/dist/index.html": "<html>built</html>",
		"repo-main/dist/game.js":    "js",
	})
	id, err := in.FromZip(context.Background(), data, "repo", "dist", "")
	if err != nil {
		t.Fatal(err)
	}
	root := lib.GamePath(id)
	if got := readFile(t, filepath.Join(root, "index.html")); got != "<html>built</html>" {
		t.Errorf("index.html = %q, want dist build", got)
	}
	if _, err := os.Stat(filepath.Join(root, "README.md")); !os.IsNotExist(err) {
		t.Errorf("README.md should not be copied from outside dist: %v", err)
	}
}

func TestFromZip_HintMissingFallsBackToWrapper(t *testing.T) {
	in, lib, _ := newTestIngester(t)
	data := buildZip(t, map[string]string{
		"repo-main/index.html": "<html>root</html>",
	})
	id, err := in.FromZip(context.Background(), data, "repo", "docs", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(lib.GamePath(id), "index.html")); got != "<html>root</html>" {
		t.Errorf("index.html = %q", got)
	}
}

func TestFromZip_SameIDOverwrites(t *testing.T) {
	in, lib, _ := newTestIngester(t)
	ctx := context.Background()
	first := buildZip(t, map[string]string{"index.html": "v1", "game.js": "old"})
	second := buildZip(t, map[string]string{"index.html": "v2", "game.js": "new"})

	id1, err := in.FromZip(ctx, first, "Space Runner", "", "")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := in.FromZip(ctx, second, "space_runner", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %s vs %s", id1, id2)
	}
	root := lib.GamePath(id2)
	if readFile(t, filepath.Join(root, "index.html")) != "v2" || readFile(t, filepath.Join(root, "game.js")) != "new" {
		t.Error("second upload did not overwrite the first")
	}
	games, _ := lib.List()
	if len(games) != 1 {
		t.Errorf("want one game, got %+v", games)
	}
}

func TestFromZip_NameFromPackageJSON(t *testing.T) {
	in, _, _ := newTestIngester(t)
	data := buildZip(t, map[string]string{
		"proj/package.json": `{"name": "@acme/Star Hopper", "version": "1.0.0"}`,
		"proj/index.html":   "<html></html>",
	})
	id, err := in.FromZip(context.Background(), data, "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if id != "acme-star-hopper" {
		t.Errorf("id = %q", id)
	}
}

func TestFromZip_Errors(t *testing.T) {
	in, lib, rec := newTestIngester(t)
	ctx := context.Background()

	if _, err := in.FromZip(ctx, nil, "x", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty data: %v", err)
	}
	if _, err := in.FromZip(ctx, buildZip(t, map[string]string{"a.html": "x"}), "%%%", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad name: %v", err)
	}
	if _, err := in.FromZip(ctx, buildZip(t, map[string]string{"index.html": "x"}), "", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no name and no package.json: %v", err)
	}
	if _, err := in.FromZip(ctx, []byte("definitely not a zip"), "x", "", ""); !errors.Is(err, ErrExtraction) {
		t.Errorf("garbage archive: %v", err)
	}
	if games, _ := lib.List(); len(games) != 0 {
		t.Errorf("failed imports left games behind: %+v", games)
	}
	for _, r := range rec.records {
		if r.OK || r.Error == "" {
			t.Errorf("failed import recorded as ok: %+v", r)
		}
	}
}

func TestFromZip_CleansTempFiles(t *testing.T) {
	lib := library.New(filepath.Join(t.TempDir(), "games"))
	tmp := t.TempDir()
	in := New(lib, Options{TempDir: tmp, Extract: zipExtractor})

	if _, err := in.FromZip(context.Background(), buildZip(t, map[string]string{"index.html": "x"}), "ok", "", ""); err != nil {
		t.Fatal(err)
	}
	_, _ = in.FromZip(context.Background(), []byte("junk"), "bad", "", "")

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("temp dir not cleaned: %v", names)
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "only", "docs"), 0755); err != nil {
		t.Fatal(err)
	}
	got, err := ResolveRoot(dir, "")
	if err != nil || got != filepath.Join(dir, "only") {
		t.Errorf("ResolveRoot = %q, %v", got, err)
	}
	got, err = ResolveRoot(dir, "/docs/")
	if err != nil || got != filepath.Join(dir, "only", "docs") {
		t.Errorf("ResolveRoot docs = %q, %v", got, err)
	}
	// Unknown hints are ignored.
	got, _ = ResolveRoot(dir, "build")
	if got != filepath.Join(dir, "only") {
		t.Errorf("ResolveRoot build = %q", got)
	}
	if _, err := ResolveRoot(t.TempDir(), ""); !errors.Is(err, ErrExtraction) {
		t.Errorf("empty dir: %v", err)
	}
}

func TestResolveRoot_SingleFileIsNotWrapper(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ResolveRoot(dir, "")
	if err != nil || got != dir {
		t.Errorf("ResolveRoot = %q, %v", got, err)
	}
}

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in, owner, repo string
	}{
		{"https://github.com/acme/space-runner", "acme", "space-runner"},
		{"https://github.com/acme/space-runner.git", "acme", "space-runner"},
		{"https://github.com/acme/space-runner/tree/dev/docs", "acme", "space-runner"},
		{"github.com/acme/puzzle_box?tab=readme", "acme", "puzzle_box"},
		{"git@github.com:acme/repo.git", "acme", "repo"},
	}
	for _, tt := range tests {
		owner, repo, err := ParseRepo(tt.in)
		if err != nil {
			t.Errorf("ParseRepo(%q): %v", tt.in, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("ParseRepo(%q) = %s/%s", tt.in, owner, repo)
		}
	}
	for _, bad := range []string{"", "https://gitlab.com/a/b", "https://github.com/acme", "not a url"} {
		if _, _, err := ParseRepo(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseRepo(%q) = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestFromGithub(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"space-runner-main/docs/index.html": "<html>docs</html>",
	})
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	lib := library.New(filepath.Join(t.TempDir(), "games"))
	in := New(lib, Options{TempDir: t.TempDir(), Extract: zipExtractor, GithubBaseURL: srv.URL})

	id, err := in.FromGithub(context.Background(), "https://github.com/acme/space-runner", "", "docs", "")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/acme/space-runner/zip/refs/heads/main" {
		t.Errorf("requested %q", gotPath)
	}
	if id != "space-runner" {
		t.Errorf("id = %q", id)
	}
	if got := readFile(t, filepath.Join(lib.GamePath(id), "index.html")); got != "<html>docs</html>" {
		t.Errorf("index.html = %q", got)
	}
}

func TestFromGithub_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	in, _, rec := newTestIngester(t)
	in.githubBase = srv.URL

	_, err := in.FromGithub(context.Background(), "https://github.com/acme/missing", "nope", "", "")
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("err = %v, want ErrDownload", err)
	}
	if len(rec.records) != 1 || rec.records[0].Branch != "nope" || rec.records[0].OK {
		t.Errorf("history = %+v", rec.records)
	}

	if _, err := in.FromGithub(context.Background(), "https://example.com/x", "", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad repo: %v", err)
	}
}

func TestCopyTree_Overwrites(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "a.txt"), []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dst, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dst, "sub", "a.txt"), []byte("old content that is longer"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := CopyTree(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dst, "sub", "a.txt")); got != "new" {
		t.Errorf("a.txt = %q", got)
	}
}

func TestSanitizeArchivePath(t *testing.T) {
	tests := map[string]string{
		"a/b.txt":        "a/b.txt",
		"/abs/file":      "abs/file",
		"../escape":      "",
		"a/../../escape": "",
		`dir\file.js`:    "dir/file.js",
		"./":             "",
	}
	for in, want := range tests {
		if got := filepath.ToSlash(sanitizeArchivePath(in)); got != want {
			t.Errorf("sanitizeArchivePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIs7z(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.7z")
	if err := os.WriteFile(p, append(append([]byte{}, sevenZipMagic...), 0, 4), 0644); err != nil {
		t.Fatal(err)
	}
	if !is7z(p) {
		t.Error("7z magic not detected")
	}
	z := filepath.Join(dir, "a.zip")
	if err := os.WriteFile(z, buildZip(t, map[string]string{"x": "y"}), 0644); err != nil {
		t.Fatal(err)
	}
	if is7z(z) {
		t.Error("zip detected as 7z")
	}
}
