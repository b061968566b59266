package suite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	containerTTL = 120 // seconds
	startTimeout = 120 * time.Second

	redisRepository = "redis"
	redisTag        = "7-alpine"
	redisPort       = "6379/tcp"
)

// Suite carries a throwaway Redis container for store tests.
type Suite struct {
	*testing.T
	Logger *slog.Logger

	Redis *redis.Client
}

// New starts Redis in Docker and skips the test when no Docker daemon is reachable.
// The returned context ends with the test.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	t.Cleanup(cancel)

	pool := dockerPool(t)
	client := startRedis(ctx, t, pool)

	return ctx, &Suite{
		T:      t,
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Redis:  client,
	}
}

func dockerPool(t *testing.T) *dockertest.Pool {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker is not reachable: %v", err)
	}

	pool.MaxWait = startTimeout

	return pool
}

func startRedis(ctx context.Context, t *testing.T, pool *dockertest.Pool) *redis.Client {
	t.Helper()

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisRepository,
		Tag:        redisTag,
	}, func(host *docker.HostConfig) {
		host.AutoRemove = true
		host.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	t.Cleanup(func() {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Errorf("could not purge redis container: %v", purgeErr)
		}
	})

	// docker kills the container even if cleanup never runs
	_ = resource.Expire(containerTTL)

	client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort(redisPort)})
	t.Cleanup(func() { _ = client.Close() })

	if err = pool.Retry(func() error { return client.Ping(ctx).Err() }); err != nil {
		t.Fatalf("redis did not come up: %v", err)
	}

	return client
}
