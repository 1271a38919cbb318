package data

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration to the database behind pw. A Postgres advisory
// lock serialises concurrent callers, so replicas may all run it on start.
func Migrate(ctx context.Context, pw *PoolWrapper) error {
    if pw.Pool == nil {
        return ErrDatabaseUnavailable
    }

    // goose works on database/sql, so bridge the pgx pool.
    db := stdlib.OpenDBFromPool(pw.Pool)
    defer db.Close()

    migrations, err := fs.Sub(migrationsFS, "migrations")
    if err != nil {
        return err
    }

    locker, err := lock.NewPostgresSessionLocker()
    if err != nil {
        return fmt.Errorf("failed to create migration lock: %w", err)
    }

    provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations, goose.WithSessionLocker(locker))
    if err != nil {
        return fmt.Errorf("failed to create migration provider: %w", err)
    }

    if _, err := provider.Up(ctx); err != nil {
        return fmt.Errorf("failed to apply migrations: %w", err)
    }

    return nil
}
