// Package git versions the snapshot directory by shelling out to the git
// binary.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockName is the lock file created in the working directory while a
// client runs a write sequence (add + commit).
const DefaultLockName = ".markwrite.lock"

// ErrNothingToCommit is returned by Commit when the index has no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	lockPath string
}

// Commit is one entry of the history of a file.
type Commit struct {
	Hash    string    `json:"hash"`
	Date    time.Time `json:"date"`
	Subject string    `json:"subject"`
}

// NewClient creates a git client for workDir. An empty lockName selects
// DefaultLockName.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = DefaultLockName
	}
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockPath: lockName,
	}
}

// IsInstalled reports whether a git binary is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock acquires the file lock, retrying until it succeeds or ctx is done.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock: %w", ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Run executes a raw git command in the working directory.
// It does not take the lock; callers sequencing writes use Lock.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// IsRepo reports whether WorkDir is the root of a git repository.
func (c *Client) IsRepo() bool {
	info, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil && info.IsDir()
}

// Init creates a repository in WorkDir. Re-running it is harmless.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// Add stages files.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Commit records the staged changes. It returns ErrNothingToCommit when the
// index matches HEAD, which happens when a snapshot is rewritten unchanged.
func (c *Client) Commit(ctx context.Context, msg string) error {
	if _, err := c.Run(ctx, "diff", "--cached", "--quiet"); err == nil && c.hasHead(ctx) {
		return ErrNothingToCommit
	}
	_, err := c.Run(ctx,
		"-c", "user.name=markwrite",
		"-c", "user.email=markwrite@localhost",
		"commit", "-m", msg)
	return err
}

func (c *Client) hasHead(ctx context.Context) bool {
	_, err := c.Run(ctx, "rev-parse", "--verify", "-q", "HEAD")
	return err == nil
}

// Log returns the commits touching file, newest first. limit <= 0 means all.
func (c *Client) Log(ctx context.Context, file string, limit int) ([]Commit, error) {
	if !c.hasHead(ctx) {
		return nil, nil
	}

	args := []string{"log", "--format=%H%x1f%aI%x1f%s"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	args = append(args, "--", file)

	out, err := c.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseLog(out)
}

// Show returns the content of file at revision rev.
func (c *Client) Show(ctx context.Context, rev, file string) ([]byte, error) {
	out, err := c.Run(ctx, "show", rev+":"+file)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func parseLog(out string) ([]Commit, error) {
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unexpected git log line: %q", line)
		}
		date, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid commit date %q: %w", parts[1], err)
		}
		commits = append(commits, Commit{Hash: parts[0], Date: date, Subject: parts[2]})
	}
	return commits, nil
}
