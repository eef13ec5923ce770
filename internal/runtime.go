package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/tempus/internal/index"
	"github.com/starford/tempus/internal/noteservice"
	"github.com/starford/tempus/internal/storage"
	"github.com/starford/tempus/internal/timestamps"
)

// Runtime holds the vault, index and note service built from a Config.
// The server, the MCP transport and the CLI commands share it.
type Runtime struct {
	Store   *storage.FS
	DB      *index.DB
	Service *noteservice.Service
}

// Open prepares the vault directory, opens the index, runs an initial sync
// and builds the note service.
func Open(cfg *Config, logger *slog.Logger, opts ...Option) (*Runtime, error) {
	app := &application{config: cfg}
	for _, opt := range opts {
		opt(app)
	}
	return openRuntime(app, logger)
}

func openRuntime(app *application, logger *slog.Logger, svcOpts ...noteservice.Option) (*Runtime, error) {
	cfg := app.config

	var tsOpts []timestamps.Option
	if app.clock != nil {
		tsOpts = append(tsOpts, timestamps.WithClock(app.clock))
	}
	class, err := cfg.Timestamps.NoteClass(tsOpts...)
	if err != nil {
		return nil, fmt.Errorf("build note class: %w", err)
	}

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svcOpts = append([]noteservice.Option{noteservice.WithLogger(logger)}, svcOpts...)
	return &Runtime{
		Store:   store,
		DB:      db,
		Service: noteservice.NewService(store, db, class, svcOpts...),
	}, nil
}

// Close releases the index.
func (r *Runtime) Close() error {
	return r.DB.Close()
}
