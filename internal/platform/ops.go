package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/markwrite/pkg/adapters/fs"
	"github.com/aretw0/markwrite/pkg/adapters/memory"
	"github.com/aretw0/markwrite/pkg/adapters/sqlite"
	"github.com/aretw0/markwrite/pkg/core"
	"github.com/aretw0/markwrite/pkg/snapshot"
)

// SQLiteFile is the database file name inside the data directory.
const SQLiteFile = "markwrite.db"

// Init builds and initializes the storage selected by opts. The uri is the
// data directory for "fs" and "sqlite" and is ignored by "memory".
func Init(ctx context.Context, uri string, opts ...Option) (core.Storage, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	storage, _, err := initStorage(ctx, uri, o)
	return storage, err
}

func initStorage(ctx context.Context, uri string, o *options) (core.Storage, string, error) {
	if o.storage != nil {
		if err := o.storage.Initialize(ctx); err != nil {
			return nil, "", err
		}
		return o.storage, uri, nil
	}

	var (
		storage core.Storage
		path    string
		err     error
	)
	switch o.adapter {
	case "", "fs":
		storage, path, err = initFS(uri, o)
	case "sqlite":
		storage, path, err = initSQLite(uri, o)
	case "memory":
		storage, path = memory.New(), ""
	default:
		return nil, "", fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, "", err
	}

	if err := storage.Initialize(ctx); err != nil {
		return nil, "", err
	}
	return storage, path, nil
}

// resolveDataDir applies the dev sandbox rules to uri.
func resolveDataDir(uri string, o *options) string {
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolvePath(uri, useTemp)

	if o.logger != nil && useTemp && resolved != filepath.Clean(uri) {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", uri, "resolved_path", resolved)
	}
	return resolved
}

func initFS(uri string, o *options) (core.Storage, string, error) {
	path := resolveDataDir(uri, o)

	s, err := snapshot.SerializerFor(o.format)
	if err != nil {
		return nil, "", err
	}

	repo := fs.NewRepository(fs.Config{
		Path:         path,
		Ext:          s.Ext(),
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		Versioning:   o.versioning,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
		SystemDir:    o.systemDir,
	})
	return repo, path, nil
}

func initSQLite(uri string, o *options) (core.Storage, string, error) {
	if o.versioning {
		return nil, "", fmt.Errorf("versioning is only supported by the fs adapter")
	}

	dir := resolveDataDir(uri, o)
	if o.mustExist || o.readOnly {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return nil, "", fmt.Errorf("data directory does not exist: %s", dir)
		}
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return sqlite.New(sqlite.Config{
		Path:     filepath.Join(dir, SQLiteFile),
		ReadOnly: o.readOnly,
		Logger:   o.logger,
	}), dir, nil
}
