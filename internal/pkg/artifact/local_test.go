package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "https://cdn.example.org/")
	require.NoError(t, err)

	key := "qr-codes/1/ABCDEF1234.png"

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, key, []byte("png"), ContentTypePNG))

	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(dir, "qr-codes", "1", "ABCDEF1234.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	assert.Equal(t, "https://cdn.example.org/qr-codes/1/ABCDEF1234.png", store.URL(key))

	require.NoError(t, store.Delete(ctx, key))
	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting a missing key is not an error
	require.NoError(t, store.Delete(ctx, key))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.png", "qr-codes/../../x.png", "/"} {
		err := store.Put(ctx, key, []byte("x"), ContentTypePNG)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestNew_Drivers(t *testing.T) {
	s, err := New(Config{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(Config{Driver: "ftp"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = New(Config{Driver: "s3"})
	assert.Error(t, err)
}

func TestS3Store_URL(t *testing.T) {
	s, err := NewS3Store(S3Config{
		Endpoint:       "http://minio:9000",
		PublicEndpoint: "https://files.example.org/",
		Region:         "us-east-1",
		Bucket:         "tickets",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.org/tickets/qr-codes/2/X.png", s.URL("qr-codes/2/X.png"))
}
