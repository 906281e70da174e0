package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/cmd/util"
	"github.com/drivetime/drivetime/pkg/config"
	"github.com/drivetime/drivetime/pkg/db/migrate"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd)
		},
	}
	return cmd
}

func startMigration(cmd *cobra.Command) error {
	switch config.Store {
	case config.StorePostgres:
		if err := util.WaitForRequiredServices(cmd.Context()); err != nil {
			return err
		}
		dbURL := PrepareURLForDB(config.DB)
		log.Info("Migrating postgres database")
		if err := migrate.MigrateDb(dbURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case config.StoreSqlite:
		if err := os.MkdirAll(filepath.Dir(config.SQLitePath), 0o755); err != nil {
			return err
		}
		log.Info("Migrating sqlite database", log.String("path", config.SQLitePath))
		if err := migrate.MigrateSqlite(config.SQLitePath); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case config.StoreMemory:
		log.Info("Nothing to migrate for in-memory store")
		return nil
	default:
		return fmt.Errorf("unknown store %q", config.Store)
	}
	log.Info("Migration done")
	return nil
}

func PrepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
