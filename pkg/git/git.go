// Package git reports the version control state of the project file by shelling out to the git CLI.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Revision is the git state of a single file.
type Revision struct {
	Branch  string    // current branch, empty for detached HEAD
	Commit  string    // short hash of the last commit touching the file, empty if never committed
	Subject string    // subject line of that commit
	When    time.Time // commit time
	Dirty   bool      // file has uncommitted changes, untracked counts as dirty
}

// Tracked reports whether the file has been committed at least once.
func (r Revision) Tracked() bool { return r.Commit != "" }

// Repo is a git working tree.
type Repo struct {
	root string // absolute path to repository root
}

// Open finds the repository containing path, which may be a file or a directory.
func Open(path string) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if fi, statErr := os.Stat(absPath); statErr != nil || !fi.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	cmd := exec.CommandContext(context.Background(), "git", "rev-parse", "--show-toplevel")
	cmd.Dir = absPath
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("open git repository %s: %s", absPath, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("open git repository %s: %w", absPath, err)
	}

	// resolve symlinks for consistent path comparison (macOS /var -> /private/var)
	root, err := filepath.EvalSymlinks(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("eval symlinks: %w", err)
	}
	return &Repo{root: root}, nil
}

// Root returns the absolute path to the repository root.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the name of the current branch, or empty string for detached HEAD.
func (r *Repo) CurrentBranch() (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", "symbolic-ref", "--short", "HEAD")
	cmd.Dir = r.root
	cmd.Env = append(os.Environ(), "LC_ALL=C") // force English stderr for reliable parsing
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 128 {
			stderr := strings.ToLower(string(exitErr.Stderr))
			if strings.Contains(stderr, "not a symbolic ref") {
				return "", nil
			}
			return "", fmt.Errorf("get current branch: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// FileRevision returns the git state of path.
func (r *Repo) FileRevision(path string) (Revision, error) {
	rel, err := r.toRelative(path)
	if err != nil {
		return Revision{}, err
	}

	var rev Revision
	if rev.Branch, err = r.CurrentBranch(); err != nil {
		return Revision{}, err
	}

	// an empty repository has no HEAD; log fails and the file is simply untracked
	if out, logErr := r.run("log", "-1", "--format=%h%x00%ct%x00%s", "--", rel); logErr == nil && out != "" {
		parts := strings.SplitN(out, "\x00", 3)
		if len(parts) == 3 {
			rev.Commit, rev.Subject = parts[0], parts[2]
			if ts, convErr := strconv.ParseInt(parts[1], 10, 64); convErr == nil {
				rev.When = time.Unix(ts, 0)
			}
		}
	}

	// use -uall to list individual files, not collapsed directories
	out, err := r.run("status", "--porcelain", "-uall", "--", rel)
	if err != nil {
		return Revision{}, fmt.Errorf("check file status: %w", err)
	}
	rev.Dirty = out != ""
	return rev, nil
}

// run executes a git command in the repository root and returns its output with
// trailing whitespace removed. on failure the output is part of the error.
func (r *Repo) run(args ...string) (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = r.root
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimRight(string(out), " \t\n\r"), nil
}

// toRelative converts a path to be relative to the repository root.
// relative paths are taken relative to the working directory.
func (r *Repo) toRelative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	// resolve symlinks for consistent comparison (macOS /var -> /private/var)
	if resolved, evalErr := filepath.EvalSymlinks(filepath.Dir(abs)); evalErr == nil {
		abs = filepath.Join(resolved, filepath.Base(abs))
	}

	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", fmt.Errorf("path outside repository: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside repository root %q", path, r.root)
	}
	return filepath.ToSlash(rel), nil
}
