// Package kiosk opens the launcher in a fullscreen Chromium-family browser window.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"go.uber.org/zap"
)

// ErrNoBrowser is returned when no kiosk-capable browser is installed. Launch has already
// opened the default browser instead.
var ErrNoBrowser = errors.New("no kiosk browser found")

type Options struct {
	Browser      string // Binary name or path; empty searches the platform candidates
	ExtraArgs    string // Shell-quoted arguments appended after the kiosk flags
	NoExtensions bool
	ProfileDir   string // Empty means a fresh temp dir, removed when the browser exits
}

var (
	lookPath = exec.LookPath
	openURL  = browser.OpenURL
)

// FindBrowser resolves the browser binary: the override when given, else the first
// installed platform candidate.
func FindBrowser(override string) (string, error) {
	if override != "" {
		if p, ok := resolve(override); ok {
			return p, nil
		}
		return "", fmt.Errorf("kiosk browser %q: %w", override, ErrNoBrowser)
	}
	for _, c := range candidates() {
		if p, ok := resolve(c); ok {
			return p, nil
		}
	}
	return "", ErrNoBrowser
}

func resolve(name string) (string, bool) {
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) {
		info, err := os.Stat(name)
		if err != nil || info.IsDir() {
			return "", false
		}
		return name, true
	}
	p, err := lookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// Args builds the browser command line for url.
func Args(url, profileDir string, opts Options) ([]string, error) {
	args := []string{
		"--kiosk",
		"--app=" + url,
		"--user-data-dir=" + profileDir,
		"--no-first-run",
		"--autoplay-policy=no-user-gesture-required",
	}
	if opts.NoExtensions {
		args = append(args, "--disable-extensions")
	}
	if strings.TrimSpace(opts.ExtraArgs) != "" {
		extra, err := shlex.Split(opts.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("kiosk browser args: %w", err)
		}
		args = append(args, extra...)
	}
	return args, nil
}

// Launch opens url in kiosk mode and blocks until the browser exits or ctx is done.
// Without a kiosk browser it opens the default browser and returns ErrNoBrowser.
func Launch(ctx context.Context, url string, opts Options) error {
	bin, err := FindBrowser(opts.Browser)
	if err != nil {
		zap.L().Warn("kiosk browser not found, opening default browser", zap.Error(err))
		if ferr := openURL(url); ferr != nil {
			return fmt.Errorf("open %s: %w", url, ferr)
		}
		return err
	}

	profile := opts.ProfileDir
	if profile == "" {
		profile = filepath.Join(os.TempDir(), "launcher-kiosk-"+uuid.NewString())
		defer os.RemoveAll(profile)
	}
	if err := os.MkdirAll(profile, 0755); err != nil {
		return fmt.Errorf("kiosk profile: %w", err)
	}

	args, err := Args(url, profile, opts)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	zap.L().Info("launching kiosk browser", zap.String("browser", bin), zap.Strings("args", args))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}
	err = cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("kiosk browser exited: %w", err)
	}
	return nil
}
