package labelqr_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/niksmo/e-label/internal/adapter/labelqr"
	"github.com/niksmo/e-label/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\nimage-bytes")

type imageCache struct {
	mu     sync.Mutex
	images map[string][]byte
}

func newImageCache() *imageCache {
	return &imageCache{images: make(map[string][]byte)}
}

func (c *imageCache) ReadImage(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[key]
	return img, ok, nil
}

func (c *imageCache) StoreImage(_ context.Context, key string, data []byte, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[key] = data
	return nil
}

func fastRetry(attempts int) labelqr.Opt {
	return labelqr.RetryOpt(retry.RetryConfig{
		MaxAttempts: attempts,
		Backoff:     retry.LinearBackoff(0),
	})
}

func TestLabelURL(t *testing.T) {
	r, err := labelqr.NewRenderer("https://labels.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://labels.example.com/l/p-1", r.LabelURL("p-1"))
	assert.Equal(t, "https://labels.example.com/l/a%2Fb", r.LabelURL("a/b"))
}

func TestNewRenderer(t *testing.T) {
	_, err := labelqr.NewRenderer("labels.example.com")
	assert.Error(t, err)

	_, err = labelqr.NewRenderer("https://labels.example.com", labelqr.SizeOpt(0))
	assert.Error(t, err)

	_, err = labelqr.NewRenderer(
		"https://labels.example.com", labelqr.ServiceURLOpt("/relative"),
	)
	assert.Error(t, err)
}

func TestRenderQR(t *testing.T) {
	t.Run("FetchesAndCaches", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "200x200", r.URL.Query().Get("size"))
			assert.Equal(t, "png", r.URL.Query().Get("format"))
			assert.Equal(t, "https://labels.example.com/l/p-1", r.URL.Query().Get("data"))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(fakePNG)
		}))
		defer srv.Close()

		cache := newImageCache()
		r, err := labelqr.NewRenderer(
			"https://labels.example.com",
			labelqr.ServiceURLOpt(srv.URL),
			labelqr.SizeOpt(200),
			labelqr.CacheOpt(cache),
			labelqr.HTTPClientOpt(srv.Client()),
		)
		require.NoError(t, err)

		img, err := r.RenderQR(t.Context(), "p-1")
		require.NoError(t, err)
		assert.Equal(t, fakePNG, img)

		img, err = r.RenderQR(t.Context(), "p-1")
		require.NoError(t, err)
		assert.Equal(t, fakePNG, img)
		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, cache.images, "qr/200/p-1.png")
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write(fakePNG)
		}))
		defer srv.Close()

		r, err := labelqr.NewRenderer(
			"https://labels.example.com",
			labelqr.ServiceURLOpt(srv.URL),
			fastRetry(3),
		)
		require.NoError(t, err)

		img, err := r.RenderQR(t.Context(), "p-1")
		require.NoError(t, err)
		assert.Equal(t, fakePNG, img)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("ClientErrorIsFinal", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		r, err := labelqr.NewRenderer(
			"https://labels.example.com",
			labelqr.ServiceURLOpt(srv.URL),
			fastRetry(3),
		)
		require.NoError(t, err)

		_, err = r.RenderQR(t.Context(), "p-1")
		require.ErrorIs(t, err, labelqr.ErrUpstream)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("RejectsNonPNG", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>oops</html>"))
		}))
		defer srv.Close()

		r, err := labelqr.NewRenderer(
			"https://labels.example.com",
			labelqr.ServiceURLOpt(srv.URL),
			fastRetry(2),
		)
		require.NoError(t, err)

		_, err = r.RenderQR(t.Context(), "p-1")
		assert.ErrorIs(t, err, labelqr.ErrUpstream)
	})
}
