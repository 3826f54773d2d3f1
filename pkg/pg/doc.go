// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retries, goose schema migrations, a health check closure, and
// error classification helpers (not found, duplicate key, foreign key) used
// by the repositories.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	// ...
//	err = pg.Migrate(ctx, pool, cfg, slog.Default())
package pg
