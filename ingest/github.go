package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Ashenafi-pixel/arcade-launcher/history"
	"github.com/google/uuid"
)

var githubRepoRe = regexp.MustCompile(`github\.com[/:]([^/\s]+)/([^/#?\s]+?)(?:\.git)?(?:[/#?].*)?$`)

// ParseRepo extracts owner and repository from a GitHub URL
// (https, ssh "git@github.com:owner/repo.git", or with a trailing /tree/... path).
func ParseRepo(repoURL string) (owner, repo string, err error) {
	m := githubRepoRe.FindStringSubmatch(strings.TrimSpace(repoURL))
	if m == nil || m[1] == "" || m[2] == "" {
		return "", "", fmt.Errorf("%w: not a GitHub repository URL: %q", ErrInvalidInput, repoURL)
	}
	return m[1], m[2], nil
}

// ArchiveURL is the codeload ZIP snapshot of a branch.
func (in *Ingester) ArchiveURL(owner, repo, branch string) string {
	return in.githubBase + "/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) +
		"/zip/refs/heads/" + branch
}

// FromGithub downloads a branch snapshot and installs it like an uploaded ZIP.
// branch defaults to main; name defaults to the repository name.
func (in *Ingester) FromGithub(ctx context.Context, repoURL, branch, subdir, name string) (id string, err error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		branch = "main"
	}
	rec := &history.Record{Source: history.SourceGithub, Origin: repoURL, Branch: branch, Subdir: subdir}
	defer func() { in.record(ctx, rec, id, err) }()

	owner, repo, err := ParseRepo(repoURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		name = repo
	}
	archive, err := in.download(ctx, in.ArchiveURL(owner, repo, branch))
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)
	return in.install(ctx, archive, name, subdir)
}

// download streams u into a temp file and returns its path.
func (in *Ingester) download(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	resp, err := in.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned %s", ErrDownload, u, resp.Status)
	}

	path := filepath.Join(in.tempDir, "launcher-download-"+uuid.NewString()+".zip")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("create temp archive: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write temp archive: %w", err)
	}
	return path, nil
}
