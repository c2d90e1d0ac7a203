// Package giturl resolves a file path on disk to a human-readable
// review URL, the way the teacher's (now-superseded) git collaborator
// shelled out to the system git binary rather than linking a full git
// library for a one-off "what's the origin remote" lookup.
package giturl

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Resolve walks up from path looking for the nearest ".git" directory,
// reads that repository's origin remote, and returns the blob URL for
// path at the master branch. It returns ("", nil) — not an error —
// when no repository owns the path, the path is inside the repo's own
// ".git" directory, or the remote has no resolvable HTTPS form; a
// missing URL is an expected, common outcome, not a failure.
func Resolve(ctx context.Context, path string) (string, error) {
	root, rel, ok := findRepoRoot(path)
	if !ok {
		return "", nil
	}
	if rel == "" || strings.HasPrefix(rel, ".git"+string(filepath.Separator)) || rel == ".git" {
		return "", nil
	}

	origin, err := remoteOriginURL(ctx, root)
	if err != nil || origin == "" {
		return "", nil
	}

	base := toHTTPS(origin)
	if base == "" {
		return "", nil
	}
	return base + "/blob/master/" + filepath.ToSlash(rel), nil
}

// findRepoRoot walks up from path's directory looking for a ".git"
// entry, returning the repo root and path relative to it.
func findRepoRoot(path string) (root, rel string, ok bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", false
	}
	dir := filepath.Dir(abs)
	for {
		if dirExists(filepath.Join(dir, ".git")) {
			relPath, err := filepath.Rel(dir, abs)
			if err != nil {
				return "", "", false
			}
			return dir, relPath, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", false
		}
		dir = parent
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func remoteOriginURL(ctx context.Context, repoDir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "config", "--get", "remote.origin.url")
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// toHTTPS normalizes an origin remote into an https://host/owner/repo
// form, translating the git@host:owner/repo(.git)? scp-like syntax
// ssh otherwise uses.
func toHTTPS(origin string) string {
	origin = strings.TrimSuffix(origin, ".git")

	if strings.HasPrefix(origin, "git@") {
		rest := strings.TrimPrefix(origin, "git@")
		host, path, ok := strings.Cut(rest, ":")
		if !ok {
			return ""
		}
		return "https://" + host + "/" + path
	}
	if strings.HasPrefix(origin, "ssh://git@") {
		rest := strings.TrimPrefix(origin, "ssh://git@")
		host, path, ok := strings.Cut(rest, "/")
		if !ok {
			return ""
		}
		return "https://" + host + "/" + path
	}
	if strings.HasPrefix(origin, "https://") || strings.HasPrefix(origin, "http://") {
		return origin
	}
	return ""
}
