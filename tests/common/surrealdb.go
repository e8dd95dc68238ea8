package common

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	SurrealUser      = "root"
	SurrealPassword  = "root"
	SurrealNamespace = "fundlens_test"
)

var surrealShared sharedContainer

// SurrealDB is the process-wide SurrealDB container.
type SurrealDB struct {
	endpoint string
}

// StartSurrealDB returns the shared SurrealDB container, starting it on first use.
// Skipped with -short.
func StartSurrealDB(t *testing.T) *SurrealDB {
	t.Helper()
	endpoint := surrealShared.start(t, "SurrealDB", testcontainers.ContainerRequest{
		Image:        "surrealdb/surrealdb:v3.0.0",
		ExposedPorts: []string{"8000/tcp"},
		Cmd:          []string{"start", "--user", SurrealUser, "--pass", SurrealPassword},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8000/tcp"),
			wait.ForLog("Started web server"),
		).WithDeadline(60 * time.Second),
	})
	return &SurrealDB{endpoint: endpoint}
}

// Address returns the WebSocket RPC address.
func (c *SurrealDB) Address() string {
	return "ws://" + c.endpoint + "/rpc"
}

// DatabaseName derives a database name unique to t. Subtest names contain "/",
// which SurrealDB rejects.
func DatabaseName(t *testing.T, prefix string) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("%s%s_%d", prefix, name, time.Now().UnixNano()%100000)
}

// OpenSurrealDB signs in to the shared container, selects a fresh database for
// t and applies schema to it. The connection closes when t finishes.
func OpenSurrealDB(t *testing.T, schema func(context.Context, *surrealdb.DB) error) *surrealdb.DB {
	t.Helper()
	sc := StartSurrealDB(t)
	ctx := context.Background()

	db, err := surrealdb.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": SurrealUser,
		"pass": SurrealPassword,
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}
	if err := db.Use(ctx, SurrealNamespace, DatabaseName(t, "t_")); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}
	if schema != nil {
		if err := schema(ctx, db); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}
