package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"spycat/internal/breeds"
	"spycat/internal/config"
	"spycat/internal/db"
	"spycat/internal/engine"
	"spycat/internal/logging"
	"spycat/internal/migrate"
)

// App holds everything a command or the server needs, wired from one Config.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Dialect db.Dialect
	Breeds  breeds.Set
	Engine  engine.Engine
	Logger  *slog.Logger
}

// Bootstrap opens and migrates the store and loads the breed set. Any failure
// here is fatal for the process.
func Bootstrap(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	conn, dialect, err := db.Open(db.Config{
		Driver:    cfg.Database.Driver,
		DSN:       cfg.Database.DSN,
		Workspace: cfg.Database.Workspace,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migrate.Migrate(conn, dialect); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	allowed, err := breeds.Load(ctx, breeds.Source{
		Location: cfg.Breeds.Source,
		S3: breeds.S3Options{
			Region:    cfg.Breeds.S3.Region,
			Endpoint:  cfg.Breeds.S3.Endpoint,
			PathStyle: cfg.Breeds.S3.PathStyle,
		},
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	logger.Debug("bootstrap complete", "dialect", string(dialect), "breeds", allowed.Len())
	return &App{
		Config:  cfg,
		DB:      conn,
		Dialect: dialect,
		Breeds:  allowed,
		Engine:  engine.New(conn, dialect, allowed, logger),
		Logger:  logger,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
