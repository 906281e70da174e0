package migrate

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// MigrateDb applies the postgres migrations to the database at dbURI
// (postgresql://...).
func MigrateDb(dbURI string) error {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dbURI, prefix) {
			dbURI = "pgx5://" + strings.TrimPrefix(dbURI, prefix)
			break
		}
	}
	return up("migrations/postgres", dbURI)
}

// MigrateSqlite applies the sqlite migrations to the database file at path.
func MigrateSqlite(path string) error {
	return up("migrations/sqlite", fmt.Sprintf("sqlite://%s", path))
}

func up(dir, dbURL string) error {
	source, err := iofs.New(migrations, dir)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
