package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/AnkitRegmi1/TruSwap/internal/repository"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClient *goredis.Client

// TestMain starts a disposable Redis container for the repository tests.
func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	redisResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start Redis resource: %s", err)
	}
	redisAddr := redisResource.GetHostPort("6379/tcp")

	if err := pool.Retry(func() error {
		testClient = goredis.NewClient(&goredis.Options{Addr: redisAddr})
		return testClient.Ping(context.Background()).Err()
	}); err != nil {
		log.Fatalf("Could not connect to Redis: %s", err)
	}

	code := m.Run()

	_ = testClient.Close()
	if err := pool.Purge(redisResource); err != nil {
		log.Printf("Could not purge Redis resource: %s", err)
	}
	os.Exit(code)
}

func newTestRepo(t *testing.T) repository.ProfileStateRepository {
	t.Helper()
	require.NoError(t, testClient.FlushDB(context.Background()).Err())
	return NewProfileStateRepository(testClient)
}

func TestProfileStateRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	val, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", val)

	require.NoError(t, repo.Delete(ctx, "theme"))
	_, err = repo.Get(ctx, "theme")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileStateRepository_GetMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "never-written")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileStateRepository_KeysStripNamespace(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "@@auth0spajs@@::client::default", "{token}"))
	require.NoError(t, repo.Set(ctx, "truSwap_wishlist", `["1"]`))
	require.NoError(t, repo.SetSession(ctx, "fromPayment", "true"))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"@@auth0spajs@@::client::default", "truSwap_wishlist"}, keys)
}

func TestProfileStateRepository_KeysScanPastOneBatch(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	want := make([]string, 0, scanBatchSize+50)
	for i := 0; i < scanBatchSize+50; i++ {
		key := fmt.Sprintf("key-%03d", i)
		require.NoError(t, repo.Set(ctx, key, "v"))
		want = append(want, key)
	}

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, keys)
}

func TestProfileStateRepository_SessionNamespaceIsolated(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "shared", "profile-value"))
	require.NoError(t, repo.SetSession(ctx, "shared", "session-value"))

	profileVal, err := repo.Get(ctx, "shared")
	require.NoError(t, err)
	sessionVal, err := repo.GetSession(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "profile-value", profileVal)
	assert.Equal(t, "session-value", sessionVal)

	require.NoError(t, repo.DeleteSession(ctx, "shared"))
	_, err = repo.GetSession(ctx, "shared")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	profileVal, err = repo.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "profile-value", profileVal)
}

func TestProfileStateRepository_ClearSessionKeepsProfile(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "truSwap_wishlist", `["1","2"]`))
	require.NoError(t, repo.SetSession(ctx, "fromPayment", "true"))
	require.NoError(t, repo.SetSession(ctx, "lastVisited", "/listings/42"))

	require.NoError(t, repo.ClearSession(ctx))

	_, err := repo.GetSession(ctx, "fromPayment")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetSession(ctx, "lastVisited")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	wishlist, err := repo.Get(ctx, "truSwap_wishlist")
	require.NoError(t, err)
	assert.Equal(t, `["1","2"]`, wishlist)
}

func TestProfileStateRepository_DeleteMany(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "a", "1"))
	require.NoError(t, repo.Set(ctx, "b", "2"))
	require.NoError(t, repo.Set(ctx, "c", "3"))

	require.NoError(t, repo.Delete(ctx, "a", "b"))
	require.NoError(t, repo.Delete(ctx))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c"}, keys)
}
