package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"go.uber.org/zap"
)

// archiveTool is an external unpacker invocation.
type archiveTool struct {
	name string
	args func(archive, dest string) []string
}

var unzipTool = archiveTool{
	name: "unzip",
	args: func(archive, dest string) []string { return []string{"-o", "-q", archive, "-d", dest} },
}

var sevenZipMagic = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}

// DefaultExtractor unpacks 7z archives in-process and everything else with the system
// unzip, falling back to the platform's native tool (ditto on macOS, tar elsewhere).
func DefaultExtractor(ctx context.Context, archive, dest string) error {
	if is7z(archive) {
		return extract7z(archive, dest)
	}
	tools := append([]archiveTool{unzipTool}, fallbackTools...)
	var failures []string
	for _, tool := range tools {
		bin, err := exec.LookPath(tool.name)
		if err != nil {
			failures = append(failures, tool.name+": not installed")
			continue
		}
		cmd := exec.CommandContext(ctx, bin, tool.args(archive, dest)...)
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}
		zap.L().Debug("archive tool failed", zap.String("tool", tool.name), zap.ByteString("output", out), zap.Error(err))
		failures = append(failures, fmt.Sprintf("%s: %v", tool.name, err))
		if cerr := clearDir(dest); cerr != nil {
			return fmt.Errorf("%w: reset %s: %v", ErrExtraction, dest, cerr)
		}
	}
	return fmt.Errorf("%w (%s); install the unzip utility and retry", ErrExtraction, strings.Join(failures, "; "))
}

func is7z(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(sevenZipMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, sevenZipMagic)
}

func extract7z(archive, dest string) error {
	r, err := sevenzip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("%w: open 7z: %v", ErrExtraction, err)
	}
	defer r.Close()
	for _, f := range r.File {
		rel := sanitizeArchivePath(f.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, rel)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("%w: mkdir %s: %v", ErrExtraction, rel, err)
			}
			continue
		}
		if err := writeEntry(target, f.Open); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrExtraction, rel, err)
		}
	}
	return nil
}

func writeEntry(target string, open func() (io.ReadCloser, error)) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := open()
	if err != nil {
		return err
	}
	defer rc.Close()
	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, rc); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// sanitizeArchivePath normalises an entry name to a safe path relative to the extraction dir.
func sanitizeArchivePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	clean := filepath.Clean(strings.TrimLeft(name, "/"))
	if clean == "" || clean == "." {
		return ""
	}
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, `..\`) {
		return ""
	}
	return clean
}

// clearDir empties dir so a fallback tool starts from a clean slate.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
