package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	// redisAddrEnv points the suite at an already running Redis instead of
	// starting a container.
	redisAddrEnv = "TICTACTOE_TEST_REDIS_ADDR"
)

// Suite is a Redis used as the match event bus in integration tests.
type Suite struct {
	*testing.T
	Logger *slog.Logger

	// Addr is where Redis listens; Redis is the publishing connection.
	Addr  string
	Redis *redis.Client
}

// New returns a Redis for the test. The test is skipped when neither the
// env address nor Docker is available.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		addr = startContainer(t)
	}

	st := &Suite{
		T:      t,
		Logger: logger,
		Addr:   addr,
	}
	st.Redis = st.NewClient(ctx)

	return ctx, st
}

// NewClient opens another connection, e.g. for a subscriber, and closes it
// with the test.
func (that *Suite) NewClient(ctx context.Context) *redis.Client {
	that.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: that.Addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		that.Fatalf("could not connect to redis at %s: %v", that.Addr, err)
	}

	that.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func startContainer(t *testing.T) string {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker is not reachable: %v", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Env:        []string{},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start resource: %v", err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("could not purge resource: %v", err)
		}
	})

	// never returns error
	_ = resource.Expire(expireDuration) // Tell docker to hard kill the container in 120 seconds

	addr := resource.GetHostPort(redisPort)

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = maxWaitDuration

	if err = pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()

		return client.Ping(context.Background()).Err()
	}); err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}

	return addr
}
