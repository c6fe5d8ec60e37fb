// Package fs stores records as files in a data directory, one file per key,
// optionally versioning every write with git.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/markwrite/pkg/core"
	"github.com/aretw0/markwrite/pkg/git"
)

// DefaultSystemDir holds the repository's own bookkeeping inside the data
// directory.
const DefaultSystemDir = ".markwrite"

// Repository implements core.Storage on the filesystem.
type Repository struct {
	Path   string
	git    *git.Client
	cache  *cache
	config Config

	mu            sync.RWMutex
	readOnly      bool
	watcherActive bool
	lastReconcile *time.Time
	writes        int
	commits       int
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path string
	// Ext is appended to keys to form file names (".json" by default).
	Ext       string
	MustExist bool
	ReadOnly  bool
	// Versioning commits every write to a git repository rooted at Path.
	Versioning   bool
	Logger       *slog.Logger
	ErrorHandler func(error)
	SystemDir    string
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.Ext == "" {
		config.Ext = ".json"
	} else if !strings.HasPrefix(config.Ext, ".") {
		config.Ext = "." + config.Ext
	}
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	return &Repository{
		Path:     config.Path,
		git:      git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:   config,
		cache:    newCache(config.Path, config.SystemDir),
		readOnly: config.ReadOnly,
	}
}

// Initialize creates the data directory (unless MustExist), loads the write
// index and, with versioning, makes sure a git repository exists.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.readOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat data directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := r.cache.Load(); err != nil {
		r.logWarn("ignoring unreadable write index", "error", err)
	}

	if r.config.Versioning && !r.readOnly {
		if err := r.initGit(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) initGit(ctx context.Context) error {
	if !git.IsInstalled() {
		return fmt.Errorf("versioning requested but git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if err := r.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := r.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(ctx, fmt.Sprintf("chore: ignore %s", r.config.SystemDir)); err != nil && !errors.Is(err, git.ErrNothingToCommit) {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the system directory and the git lock out of history.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	wanted := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock", TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// FileName returns the file name a key is stored under, relative to Path.
func (r *Repository) FileName(key string) string {
	return key + r.config.Ext
}

func (r *Repository) pathFor(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid record key %q", key)
	}
	return filepath.Join(r.Path, r.FileName(key)), nil
}

// Read returns the content of the file holding key.
func (r *Repository) Read(ctx context.Context, key string) ([]byte, error) {
	path, err := r.pathFor(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces the file holding key atomically and, with versioning,
// commits it. The commit message is taken from core.ChangeReasonKey when set.
func (r *Repository) Write(ctx context.Context, key string, data []byte) error {
	if r.isReadOnly() {
		return core.ErrReadOnly
	}
	path, err := r.pathFor(key)
	if err != nil {
		return err
	}

	// The digest is recorded first so the watcher never mistakes this write
	// for an external one.
	r.cache.Record(key, data, time.Now())

	if err := writeFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	r.mu.Lock()
	r.writes++
	r.mu.Unlock()

	if err := r.cache.Save(); err != nil {
		r.logWarn("failed to persist write index", "error", err)
	}

	if r.config.Versioning {
		return r.commit(ctx, key, "update "+key)
	}
	return nil
}

// Delete removes the file holding key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	if r.isReadOnly() {
		return core.ErrReadOnly
	}
	path, err := r.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	r.cache.Delete(key)
	if err := r.cache.Save(); err != nil {
		r.logWarn("failed to persist write index", "error", err)
	}

	if r.config.Versioning && r.git.IsRepo() {
		return r.commit(ctx, key, "delete "+key)
	}
	return nil
}

func (r *Repository) commit(ctx context.Context, key, fallback string) error {
	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if _, err := r.git.Run(ctx, "add", "-A", "--", r.FileName(key)); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg := fallback
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}

	if err := r.git.Commit(ctx, msg); err != nil {
		if errors.Is(err, git.ErrNothingToCommit) {
			return nil
		}
		return fmt.Errorf("failed to git commit: %w", err)
	}

	r.mu.Lock()
	r.commits++
	r.mu.Unlock()
	return nil
}

// History lists the commits of key, newest first. It requires versioning.
func (r *Repository) History(ctx context.Context, key string, limit int) ([]git.Commit, error) {
	if !r.config.Versioning {
		return nil, fmt.Errorf("history requires versioning")
	}
	return r.git.Log(ctx, r.FileName(key), limit)
}

// Revision returns the content of key as of commit rev.
func (r *Repository) Revision(ctx context.Context, key, rev string) ([]byte, error) {
	if !r.config.Versioning {
		return nil, fmt.Errorf("history requires versioning")
	}
	return r.git.Show(ctx, rev, r.FileName(key))
}

// SetReadOnly toggles the read-only mode at runtime.
func (r *Repository) SetReadOnly(readOnly bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readOnly = readOnly
}

func (r *Repository) isReadOnly() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readOnly
}

func (r *Repository) logWarn(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Warn(msg, args...)
	}
}

var _ core.Storage = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)

// reconcile compares the file of key with the last write recorded by this
// repository. It returns the event describing an outside change, if any.
func (r *Repository) reconcile(key string) (core.Event, bool) {
	defer r.recordReconcile()

	now := time.Now().Unix()
	data, err := os.ReadFile(filepath.Join(r.Path, r.FileName(key)))
	if os.IsNotExist(err) {
		if _, known := r.cache.Get(key); !known {
			return core.Event{}, false
		}
		r.cache.Delete(key)
		return core.Event{Type: core.EventDelete, ID: key, Timestamp: now}, true
	}
	if err != nil {
		r.reportError(fmt.Errorf("failed to read %s: %w", key, err))
		return core.Event{}, false
	}

	if r.cache.Matches(key, data) {
		return core.Event{}, false
	}
	// Remember the outside version so the same content is reported once.
	r.cache.Record(key, data, time.Now())
	return core.Event{Type: core.EventExternal, ID: key, Timestamp: now}, true
}

func (r *Repository) reportError(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
	} else if r.config.Logger != nil {
		r.config.Logger.Error("fs storage error", "error", err)
	}
}

func (r *Repository) logDebug(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}
