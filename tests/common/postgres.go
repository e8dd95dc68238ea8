package common

import (
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresUser     = "fundlens"
	postgresPassword = "fundlens"
	postgresDB       = "fundlens_test"
)

var postgresShared sharedContainer

// Postgres is the process-wide Postgres container.
type Postgres struct {
	endpoint string
}

// StartPostgres returns the shared Postgres container, starting it on first use.
// Skipped with -short.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	endpoint := postgresShared.start(t, "Postgres", testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// Postgres restarts once after init; the second ready line is the real one.
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second),
	})
	return &Postgres{endpoint: endpoint}
}

// DSN returns a lib/pq connection URL for the container.
func (c *Postgres) DSN() string {
	return "postgres://" + postgresUser + ":" + postgresPassword + "@" + c.endpoint + "/" + postgresDB + "?sslmode=disable"
}
