package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/markwrite/internal/config"
	"github.com/aretw0/markwrite/pkg/core"
)

// options holds the internal configuration of a workspace.
type options struct {
	storage      core.Storage
	logger       *slog.Logger
	adapter      string
	format       string
	key          string
	versioning   bool
	readOnly     bool
	mustExist    bool
	asyncSave    bool
	saveDebounce time.Duration
	devSafety    bool
	forceTemp    bool
	systemDir    string
	errorHandler func(error)
	clock        func() time.Time
	newID        func() string
}

// Option defines a functional option for configuring a workspace.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   "fs",
		format:    "json",
		devSafety: true,
	}
}

// FromConfig applies every setting of cfg. Options passed after it win.
func FromConfig(cfg config.Config) Option {
	return func(o *options) {
		o.adapter = cfg.Adapter
		o.format = cfg.Format
		o.key = cfg.Key
		o.versioning = cfg.Versioning
		o.readOnly = cfg.ReadOnly
		o.asyncSave = cfg.AsyncSave
		o.saveDebounce = cfg.SaveDebounce.Duration
	}
}

// WithStorage injects a storage, skipping adapter selection.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithLogger sets the logger for every component of the workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default),
// "sqlite" or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithFormat selects the snapshot encoding: "json" (default) or "yaml".
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithKey overrides the record name of the snapshot.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithVersioning commits every snapshot to git (fs adapter only).
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithReadOnly opens the storage read-only: the state can be changed in
// memory but is never written back.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithAsyncSave moves snapshot writes to a background writer.
func WithAsyncSave(enabled bool) Option {
	return func(o *options) {
		o.asyncSave = enabled
	}
}

// WithSaveDebounce coalesces asynchronous saves within d.
func WithSaveDebounce(d time.Duration) Option {
	return func(o *options) {
		o.saveDebounce = d
	}
}

// WithDevSafety controls the sandbox used when running through `go run` or
// `go test`: by default data is redirected to a temporary directory so a
// development run cannot overwrite real notes.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithForceTemp forces the use of a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithSystemDir names the bookkeeping directory of the fs adapter.
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithWatcherErrorHandler receives runtime errors of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithClock overrides the time source of the reducer.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithIDGenerator overrides the note id generator of the reducer.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.newID = gen
	}
}
