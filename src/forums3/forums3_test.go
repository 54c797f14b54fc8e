package forums3

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketKey(t *testing.T) {
	bucket, key, ok := bucketKey("/forums-dev")
	assert.True(t, ok)
	assert.Equal(t, "forums-dev", bucket)
	assert.Equal(t, "", key)

	bucket, key, ok = bucketKey("/forums-dev/dev/abc/avatar.png")
	assert.True(t, ok)
	assert.Equal(t, "forums-dev", bucket)
	assert.Equal(t, "dev~abc~avatar.png", key)

	_, _, ok = bucketKey("/")
	assert.False(t, ok)
	_, _, ok = bucketKey("/../etc")
	assert.False(t, ok)
	_, _, ok = bucketKey("/bucket/..")
	assert.False(t, ok)
	_, _, ok = bucketKey("/bucket/thing.content-type")
	assert.False(t, ok)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "image/png")
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestServer(t *testing.T) {
	logger := zerolog.Nop()
	h := NewHandler(t.TempDir(), &logger)

	t.Run("missing bucket", func(t *testing.T) {
		res := do(t, h, http.MethodHead, "/avatars", "")
		assert.Equal(t, http.StatusNotFound, res.Code)

		res = do(t, h, http.MethodPut, "/avatars/a/b.png", "data")
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Contains(t, res.Body.String(), "<Code>NoSuchBucket</Code>")
	})

	t.Run("create bucket and round trip an object", func(t *testing.T) {
		res := do(t, h, http.MethodPut, "/avatars", "")
		require.Equal(t, http.StatusOK, res.Code)

		res = do(t, h, http.MethodHead, "/avatars", "")
		assert.Equal(t, http.StatusOK, res.Code)

		res = do(t, h, http.MethodPut, "/avatars/a/b.png", "pretend png")
		require.Equal(t, http.StatusOK, res.Code)

		res = do(t, h, http.MethodGet, "/avatars/a/b.png", "")
		require.Equal(t, http.StatusOK, res.Code)
		body, err := io.ReadAll(res.Body)
		require.Nil(t, err)
		assert.Equal(t, "pretend png", string(body))
		assert.Equal(t, "image/png", res.Header().Get("Content-Type"))
	})

	t.Run("missing key", func(t *testing.T) {
		res := do(t, h, http.MethodGet, "/avatars/nope.png", "")
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Contains(t, res.Body.String(), "<Code>NoSuchKey</Code>")
	})

	t.Run("unsupported method", func(t *testing.T) {
		res := do(t, h, http.MethodDelete, "/avatars/a/b.png", "")
		assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
	})
}
