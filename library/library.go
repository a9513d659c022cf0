// Package library exposes the on-disk game library: one directory per game under a root,
// each holding the game's static files and an optional thumbnail.png.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ThumbnailFile is the per-game cover image the launcher looks for.
const ThumbnailFile = "thumbnail.png"

var (
	ErrNotFound    = errors.New("game not found")
	ErrInvalidName = errors.New("invalid game name")
)

// Game is one catalog entry. Path is server-only and never serialised.
type Game struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Path         string `json:"-"`
	URLPath      string `json:"urlPath"`
	HasThumbnail bool   `json:"hasThumbnail"`
}

// Library is a view over a games directory. It keeps no index; every call rescans.
type Library struct {
	root string

	collMu sync.Mutex
	coll   *collate.Collator
}

func New(root string) *Library {
	if root == "" {
		root = "games"
	}
	return &Library{
		root: root,
		coll: collate.New(language.English, collate.Loose),
	}
}

// Root returns the library directory.
func (l *Library) Root() string { return l.root }

// EnsureRoot creates the library directory if it does not exist.
func (l *Library) EnsureRoot() error {
	return os.MkdirAll(l.root, 0755)
}

// List returns one entry per subdirectory, sorted by display name.
func (l *Library) List() ([]Game, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Game{}, nil
		}
		return nil, fmt.Errorf("read library: %w", err)
	}
	games := make([]Game, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		games = append(games, l.entry(e.Name()))
	}
	l.sort(games)
	return games, nil
}

// Get returns the entry for id, or ErrNotFound.
func (l *Library) Get(id string) (Game, error) {
	if !l.Exists(id) {
		return Game{}, ErrNotFound
	}
	return l.entry(id), nil
}

// Exists reports whether id names a game directory.
func (l *Library) Exists(id string) bool {
	if !ValidID(id) {
		return false
	}
	info, err := os.Stat(l.GamePath(id))
	return err == nil && info.IsDir()
}

// GamePath returns the directory of a game. The id is not validated.
func (l *Library) GamePath(id string) string {
	return filepath.Join(l.root, id)
}

// Delete removes a game directory recursively.
func (l *Library) Delete(id string) error {
	if !l.Exists(id) {
		return ErrNotFound
	}
	if err := os.RemoveAll(l.GamePath(id)); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// SaveThumbnail writes png as the game's thumbnail, replacing any existing one.
func (l *Library) SaveThumbnail(id string, png []byte) error {
	if !l.Exists(id) {
		return ErrNotFound
	}
	if err := os.WriteFile(filepath.Join(l.GamePath(id), ThumbnailFile), png, 0644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	return nil
}

func (l *Library) entry(id string) Game {
	path := l.GamePath(id)
	return Game{
		ID:           id,
		Name:         DisplayName(id),
		Path:         path,
		URLPath:      "/games/" + id + "/",
		HasThumbnail: isRegularFile(filepath.Join(path, ThumbnailFile)),
	}
}

func (l *Library) sort(games []Game) {
	// Collator buffers are not safe for concurrent use.
	l.collMu.Lock()
	defer l.collMu.Unlock()
	sort.SliceStable(games, func(i, j int) bool {
		if c := l.coll.CompareString(games[i].Name, games[j].Name); c != 0 {
			return c < 0
		}
		return games[i].ID < games[j].ID
	})
}

// isRegularFile treats any stat failure as absence.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DisplayName turns a directory id into a human name: dashes and underscores become spaces.
func DisplayName(id string) string {
	return strings.NewReplacer("-", " ", "_", " ").Replace(id)
}

// ValidID rejects ids that could escape the library root.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.ContainsRune(id, 0)
}

// Slugify derives a library id from a free-form name: lower-case, every run of
// characters outside [a-z0-9] collapsed to one hyphen, hyphens trimmed at both ends.
func Slugify(name string) (string, error) {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return b.String(), nil
}
