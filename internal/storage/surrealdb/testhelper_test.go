package surrealdb

import (
	"testing"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/fundlens/internal/common"
	tcommon "github.com/bobmcallan/fundlens/tests/common"
)

// testDB returns a connection to a database of its own with the fund schema applied.
func testDB(t *testing.T) *surrealdb.DB {
	t.Helper()
	return tcommon.OpenSurrealDB(t, DefineSchema)
}

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
