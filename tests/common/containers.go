// Package common holds the container fixtures shared by the storage tests.
package common

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// sharedContainer is started at most once per test process, by the first
// test that needs it, and reaped by testcontainers when the process exits.
type sharedContainer struct {
	once      sync.Once
	container testcontainers.Container
	endpoint  string // host:port of the single exposed port
	err       error
}

func (s *sharedContainer) start(t *testing.T, name string, req testcontainers.ContainerRequest) string {
	t.Helper()
	if testing.Short() {
		t.Skipf("%s container tests skipped in short mode", name)
	}

	s.once.Do(func() {
		ctx := context.Background()
		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			s.err = fmt.Errorf("start %s container: %w", name, err)
			return
		}
		endpoint, err := c.Endpoint(ctx, "")
		if err != nil {
			c.Terminate(ctx)
			s.err = fmt.Errorf("resolve %s endpoint: %w", name, err)
			return
		}
		s.container, s.endpoint = c, endpoint
	})

	if s.err != nil {
		t.Fatalf("%s container failed: %v", name, s.err)
	}
	return s.endpoint
}
