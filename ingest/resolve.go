package ingest

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Archive junk that should not count as a top-level entry.
var ignoredTopLevel = map[string]bool{
	"__MACOSX":  true,
	".DS_Store": true,
}

// ResolveRoot finds the game root inside an extracted archive. A single top-level
// directory (the "repo-branch/" wrapper of GitHub snapshots) is collapsed first; then a
// "dist" or "docs" hint descends into that folder when it exists.
func ResolveRoot(dir, subdir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: read extracted archive: %v", ErrExtraction, err)
	}
	var kept []os.DirEntry
	for _, e := range entries {
		if !ignoredTopLevel[e.Name()] {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("%w: archive is empty", ErrExtraction)
	}
	root := dir
	if len(kept) == 1 && kept[0].IsDir() {
		root = filepath.Join(dir, kept[0].Name())
	}
	switch hint := strings.Trim(strings.TrimSpace(subdir), "/"); hint {
	case "dist", "docs":
		candidate := filepath.Join(root, hint)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			root = candidate
		}
	}
	return root, nil
}

// CopyTree copies src into dst, creating directories as needed and overwriting files that
// already exist. Files in dst that are absent from src are left alone. Symlinks are skipped.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		case !d.Type().IsRegular():
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
