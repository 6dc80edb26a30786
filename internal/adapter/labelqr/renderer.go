package labelqr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/niksmo/e-label/internal/core/port"
	"github.com/niksmo/e-label/pkg/retry"
	"golang.org/x/time/rate"
)

var _ port.LabelRenderer = (*Renderer)(nil)

const (
	DefaultServiceURL        = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultSize              = 300
	DefaultRequestsPerMinute = 60

	maxImageSize = 1 << 20
)

var (
	ErrUpstream = errors.New("qr service failed")

	pngSignature = []byte("\x89PNG\r\n\x1a\n")
)

// upstreamStatusError keeps the status so that only 5xx and 429 are
// retried.
type upstreamStatusError struct {
	status int
}

func (e upstreamStatusError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrUpstream, e.status)
}

func (e upstreamStatusError) Unwrap() error {
	return ErrUpstream
}

type Opt func(*Renderer) error

func ServiceURLOpt(serviceURL string) Opt {
	return func(r *Renderer) error {
		u, err := url.Parse(serviceURL)
		if err != nil {
			return err
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("qr service url %q is not absolute", serviceURL)
		}
		r.serviceURL = u
		return nil
	}
}

func SizeOpt(px int) Opt {
	return func(r *Renderer) error {
		if px <= 0 {
			return errors.New("qr size must be positive")
		}
		r.size = px
		return nil
	}
}

// RequestsPerMinuteOpt limits calls to the QR service. Cache hits are not
// counted.
func RequestsPerMinuteOpt(n int) Opt {
	return func(r *Renderer) error {
		if n <= 0 {
			return errors.New("requests per minute must be positive")
		}
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
		return nil
	}
}

func HTTPClientOpt(cl *http.Client) Opt {
	return func(r *Renderer) error {
		if cl == nil {
			return errors.New("http client is nil")
		}
		r.cl = cl
		return nil
	}
}

func CacheOpt(cache port.ImageCache) Opt {
	return func(r *Renderer) error {
		r.cache = cache
		return nil
	}
}

func RetryOpt(c retry.RetryConfig) Opt {
	return func(r *Renderer) error {
		r.retry = c
		return nil
	}
}

// A Renderer builds public label links and fetches their QR images from
// an api.qrserver.com compatible service.
type Renderer struct {
	publicBaseURL string
	serviceURL    *url.URL
	size          int
	cl            *http.Client
	limiter       *rate.Limiter
	cache         port.ImageCache
	retry         retry.RetryConfig
}

func NewRenderer(publicBaseURL string, opts ...Opt) (*Renderer, error) {
	const op = "NewRenderer"

	base, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if base.Scheme == "" || base.Host == "" {
		err := fmt.Errorf("public base url %q is not absolute", publicBaseURL)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := &Renderer{
		publicBaseURL: strings.TrimRight(base.String(), "/"),
		size:          DefaultSize,
		cl:            &http.Client{Timeout: 10 * time.Second},
		retry: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
		},
	}
	if err := ServiceURLOpt(DefaultServiceURL)(r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := RequestsPerMinuteOpt(DefaultRequestsPerMinute)(r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	r.retry.ShouldRetry = shouldRetry
	return r, nil
}

func (r *Renderer) LabelURL(productID string) string {
	return r.publicBaseURL + "/l/" + url.PathEscape(productID)
}

// RenderQR returns the PNG image encoding the label URL of productID.
func (r *Renderer) RenderQR(ctx context.Context, productID string) ([]byte, error) {
	const op = "Renderer.RenderQR"
	log := slog.With("op", op, "productID", productID)

	key := r.cacheKey(productID)
	if r.cache != nil {
		img, ok, err := r.cache.ReadImage(ctx, key)
		switch {
		case err != nil:
			log.Warn("failed to read cached image", "err", err)
		case ok:
			return img, nil
		}
	}

	img, err := retry.DoWithResult(ctx, r.retry, func() ([]byte, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return r.fetch(ctx, productID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if r.cache != nil {
		if err := r.cache.StoreImage(ctx, key, img, "image/png"); err != nil {
			log.Warn("failed to cache image", "err", err)
		}
	}
	return img, nil
}

func (r *Renderer) fetch(ctx context.Context, productID string) ([]byte, error) {
	u := *r.serviceURL
	q := u.Query()
	size := strconv.Itoa(r.size)
	q.Set("size", size+"x"+size)
	q.Set("format", "png")
	q.Set("data", r.LabelURL(productID))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, upstreamStatusError{resp.StatusCode}
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(img, pngSignature) {
		return nil, fmt.Errorf("%w: response is not a png image", ErrUpstream)
	}
	return img, nil
}

func (r *Renderer) cacheKey(productID string) string {
	return "qr/" + strconv.Itoa(r.size) + "/" + url.PathEscape(productID) + ".png"
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr upstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status >= http.StatusInternalServerError ||
			statusErr.status == http.StatusTooManyRequests
	}
	return !errors.Is(err, ErrUpstream)
}
