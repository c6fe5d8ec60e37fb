package markwrite

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/markwrite/internal/config"
	"github.com/aretw0/markwrite/internal/platform"
	"github.com/aretw0/markwrite/pkg/core"
)

// --- Types ---

// Workspace is an opened markwrite session.
type Workspace = platform.Workspace

// Config is the file and environment configuration of the CLI.
type Config = config.Config

// --- Configuration ---

// Option defines a functional option for configuring a workspace.
type Option = platform.Option

// FromConfig applies a loaded Config.
func FromConfig(cfg Config) Option {
	return platform.FromConfig(cfg)
}

// LoadConfig reads the configuration file at path (the default location
// when empty) layered with MARKWRITE_* environment variables.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// WithStorage injects a custom storage adapter.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithFormat selects the snapshot encoding ("json", "yaml").
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithKey overrides the record name of the snapshot.
func WithKey(key string) Option {
	return platform.WithKey(key)
}

// WithVersioning commits every snapshot to git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithReadOnly never writes the state back.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithAsyncSave moves snapshot writes to a background writer.
func WithAsyncSave(enabled bool) Option {
	return platform.WithAsyncSave(enabled)
}

// WithSaveDebounce coalesces asynchronous saves within d.
func WithSaveDebounce(d time.Duration) Option {
	return platform.WithSaveDebounce(d)
}

// WithDevSafety controls the `go run`/`go test` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithSystemDir sets the hidden bookkeeping directory (".markwrite").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithWatcherErrorHandler receives runtime errors of the filesystem watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithClock overrides the time source of the reducer.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithIDGenerator overrides the note id generator.
func WithIDGenerator(gen func() string) Option {
	return platform.WithIDGenerator(gen)
}

// --- Factory ---

// New opens the workspace stored at path: the last saved state is restored,
// or a welcome note is created, and every change is saved back.
func New(ctx context.Context, path string, opts ...Option) (*Workspace, error) {
	return platform.New(ctx, path, opts...)
}

// Init builds and initializes the storage only.
func Init(ctx context.Context, path string, opts ...Option) (core.Storage, error) {
	return platform.Init(ctx, path, opts...)
}

// --- Safety & Utils ---

// ResolvePath determines the directory really used, based on safety rules.
func ResolvePath(userPath string, forceTemp bool) string {
	return platform.ResolvePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a workspace marker.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Semantic Commits ---

const (
	CommitTypeFeat  = platform.CommitTypeFeat
	CommitTypeFix   = platform.CommitTypeFix
	CommitTypeChore = platform.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return platform.FormatChangeReason(ctype, scope, subject, body)
}

// AppendFooter appends the markwrite footer to an arbitrary message.
func AppendFooter(msg string) string {
	return platform.AppendFooter(msg)
}

// ReasonFor describes an action as a commit message.
func ReasonFor(a core.Action) string {
	return platform.ReasonFor(a)
}
