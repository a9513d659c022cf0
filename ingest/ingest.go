// Package ingest adds games to the library from ZIP (or 7z) archives, either uploaded
// directly or downloaded from a GitHub branch snapshot.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ashenafi-pixel/arcade-launcher/history"
	"github.com/Ashenafi-pixel/arcade-launcher/library"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrExtraction   = errors.New("extraction failed")
	ErrDownload     = errors.New("download failed")
)

// Extractor unpacks the archive at path into dest, which already exists and is empty.
type Extractor func(ctx context.Context, archive, dest string) error

// Recorder receives one record per import attempt.
type Recorder interface {
	Append(ctx context.Context, r *history.Record) error
}

type Options struct {
	TempDir       string // defaults to os.TempDir()
	GithubBaseURL string // defaults to https://codeload.github.com
	Client        *http.Client
	Extract       Extractor // defaults to DefaultExtractor
	History       Recorder  // optional
}

// Ingester turns archives into library entries. It holds no locks: two imports targeting
// the same id race and the last copy wins.
type Ingester struct {
	lib        *library.Library
	tempDir    string
	githubBase string
	client     *http.Client
	extract    Extractor
	history    Recorder
}

func New(lib *library.Library, opts Options) *Ingester {
	in := &Ingester{
		lib:        lib,
		tempDir:    opts.TempDir,
		githubBase: strings.TrimSuffix(opts.GithubBaseURL, "/"),
		client:     opts.Client,
		extract:    opts.Extract,
		history:    opts.History,
	}
	if in.tempDir == "" {
		in.tempDir = os.TempDir()
	}
	if in.githubBase == "" {
		in.githubBase = "https://codeload.github.com"
	}
	if in.client == nil {
		in.client = &http.Client{Timeout: 5 * time.Minute}
	}
	if in.extract == nil {
		in.extract = DefaultExtractor
	}
	return in
}

// FromZip installs the archive bytes as a game. name is slugified into the id; when it is
// empty the extracted package.json "name" is used instead. subdir may be "dist" or "docs".
func (in *Ingester) FromZip(ctx context.Context, data []byte, name, subdir, origin string) (id string, err error) {
	rec := &history.Record{Source: history.SourceZip, Origin: origin, Subdir: subdir}
	defer func() { in.record(ctx, rec, id, err) }()

	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty archive", ErrInvalidInput)
	}
	archive, err := in.tempFile(data)
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)
	return in.install(ctx, archive, name, subdir)
}

func (in *Ingester) tempFile(data []byte) (string, error) {
	path := filepath.Join(in.tempDir, "launcher-upload-"+uuid.NewString()+".zip")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write temp archive: %w", err)
	}
	return path, nil
}

// install extracts archive into a scratch directory, resolves the game root and copies it
// into the library. The scratch directory is always removed.
func (in *Ingester) install(ctx context.Context, archive, name, subdir string) (string, error) {
	var id string
	if strings.TrimSpace(name) != "" {
		slug, err := library.Slugify(name)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		id = slug
	}

	scratch := filepath.Join(in.tempDir, "launcher-extract-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := in.extract(ctx, archive, scratch); err != nil {
		if errors.Is(err, ErrExtraction) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	root, err := ResolveRoot(scratch, subdir)
	if err != nil {
		return "", err
	}
	if id == "" {
		pkgName := packageName(root)
		if pkgName == "" {
			return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		slug, err := library.Slugify(pkgName)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		id = slug
	}
	if err := in.lib.EnsureRoot(); err != nil {
		return "", fmt.Errorf("create library: %w", err)
	}
	if err := CopyTree(root, in.lib.GamePath(id)); err != nil {
		return "", fmt.Errorf("install %s: %w", id, err)
	}
	zap.L().Info("game installed", zap.String("id", id), zap.String("subdir", subdir))
	return id, nil
}

// packageName reads the npm package name of a game checkout, if any.
func packageName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(data, "name").String())
}

func (in *Ingester) record(ctx context.Context, rec *history.Record, id string, err error) {
	rec.GameID = id
	rec.OK = err == nil
	if err != nil {
		rec.Error = err.Error()
		zap.L().Warn("game import failed",
			zap.String("source", rec.Source),
			zap.String("origin", rec.Origin),
			zap.Error(err))
	}
	if in.history == nil {
		return
	}
	if herr := in.history.Append(ctx, rec); herr != nil {
		zap.L().Warn("record import", zap.Error(herr))
	}
}
