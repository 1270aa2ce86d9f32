package dbmongo

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalchat/internal/common"
	"portalchat/internal/config"
	"portalchat/internal/media"
)

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// integrationConfig points at an existing MongoDB (docker-compose); the tests are
// skipped unless MONGO_HOST is set.
func integrationConfig(t *testing.T) *config.Config {
	if os.Getenv("MONGO_HOST") == "" {
		t.Skip("MONGO_HOST not set, skipping MongoDB integration test")
	}
	return &config.Config{
		MongoDB: config.MongoDBConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: getEnvOrDefault("MONGO_USERNAME", ""),
			Password: getEnvOrDefault("MONGO_PASSWORD", ""),
			Database: getEnvOrDefault("MONGO_DATABASE", "portal_test"),
		},
	}
}

func TestMongoConnection_Integration(t *testing.T) {
	ctx := context.Background()

	client, err := NewMongoConnection(integrationConfig(t))
	require.NoError(t, err, "ensure MongoDB is running")
	defer client.Close(ctx)

	assert.NoError(t, client.Client.Ping(ctx, nil))
	assert.NotNil(t, client.GridFS)
}

func TestGridFSImageStore_Integration(t *testing.T) {
	ctx := context.Background()

	client, err := NewMongoConnection(integrationConfig(t))
	require.NoError(t, err, "ensure MongoDB is running")
	defer client.Close(ctx)

	store := NewGridFSImageStore(client)

	t.Run("save_open_remove", func(t *testing.T) {
		name, err := store.Save(ctx, common.ImageExtPNG, strings.NewReader("png-bytes"))
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9a-f]{8}\.png$`, name)

		rc, err := store.Open(ctx, name)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))

		require.NoError(t, store.Remove(ctx, name))
		_, err = store.Open(ctx, name)
		assert.ErrorIs(t, err, media.ErrImageNotFound)
	})

	t.Run("remove_unknown", func(t *testing.T) {
		assert.ErrorIs(t, store.Remove(ctx, "00000000.png"), media.ErrImageNotFound)
	})

	t.Run("invalid_name", func(t *testing.T) {
		_, err := store.Open(ctx, "../etc/passwd")
		assert.ErrorIs(t, err, media.ErrInvalidName)
	})
}
