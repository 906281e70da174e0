//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/drivetime/drivetime/pkg/db/migrate"
	database "github.com/drivetime/drivetime/pkg/db/postgres"
)

// create a pg connection pool for the drivetime testdatabase
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	container, err := SetupPostgres(ctx,
		WithPort(port.Port()),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("drivetime-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbUrl := fmt.Sprintf("postgresql://postgres:password@%s:%s/postgres",
		host, containerPort.Port())

	return setupPool(ctx, dbUrl)
}

// uses the database given by TESTDB_URL instead of a container
func SetupExternalTestDb() *pgxpool.Pool {
	return setupPool(context.Background(), os.Getenv("TESTDB_URL"))
}

func setupPool(ctx context.Context, dbUrl string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbUrl); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithUrl(ctx, dbUrl)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearTripTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from trip")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearTripTable(pool)
}
