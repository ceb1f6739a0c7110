package resources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// HTTPResource fetches a URL with bounded retry. Redirects are followed by
// the underlying client.
type HTTPResource struct {
	url      string
	client   *http.Client
	policy   *RetryPolicy
	headers  map[string]string
	username string
	password string
	logger   arbor.ILogger
}

// HTTPOption customises an HTTPResource.
type HTTPOption func(*HTTPResource)

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(r *HTTPResource) {
		r.client.Timeout = timeout
	}
}

// WithBasicAuth attaches basic-auth credentials to every request.
func WithBasicAuth(username, password string) HTTPOption {
	return func(r *HTTPResource) {
		r.username = username
		r.password = password
	}
}

// WithHeader adds a request header (e.g. Accept per catalogue format).
func WithHeader(key, value string) HTTPOption {
	return func(r *HTTPResource) {
		r.headers[key] = value
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy *RetryPolicy) HTTPOption {
	return func(r *HTTPResource) {
		r.policy = policy
	}
}

// NewHTTPResource creates an HTTP resource for the given URL.
func NewHTTPResource(url string, logger arbor.ILogger, opts ...HTTPOption) *HTTPResource {
	if logger == nil {
		logger = common.GetLogger()
	}
	r := &HTTPResource{
		url:     url,
		client:  &http.Client{Timeout: 30 * time.Second},
		policy:  NewRetryPolicy(),
		headers: make(map[string]string),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HTTPResource) Identifier() string {
	return r.url
}

// Exists issues a HEAD request; any 2xx response counts as present.
func (r *HTTPResource) Exists(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.url, nil)
	if err != nil {
		return false
	}
	r.applyHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Fetch issues a GET with the retry policy: retryable statuses and
// transport errors back off exponentially; other 4xx/5xx fail immediately.
func (r *HTTPResource) Fetch(ctx context.Context) *models.FetchResult {
	var result *models.FetchResult

	_, err := r.policy.Execute(ctx, r.logger, func() (int, error) {
		res, statusCode, err := r.doFetch(ctx)
		if err != nil {
			return statusCode, err
		}
		result = res
		return statusCode, nil
	})
	if err != nil {
		r.logger.Debug().Str("url", r.url).Err(err).Msg("HTTP fetch failed")
		return models.FetchFailure(err)
	}
	return result
}

func (r *HTTPResource) doFetch(ctx context.Context) (*models.FetchResult, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, 0, models.NewTransportError("building request", err)
	}
	r.applyHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, models.NewTransportError(fmt.Sprintf("GET %s", r.url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, models.NewHTTPError(
			fmt.Sprintf("GET %s returned %s", r.url, resp.Status), resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, models.NewTransportError("reading response body", err)
	}

	meta := models.ResourceMetadata{
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(content)),
		ETag:        resp.Header.Get("ETag"),
		Encoding:    resp.Header.Get("Content-Encoding"),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			meta.LastModified = &t
		}
	}

	return &models.FetchResult{
		Content:  content,
		Metadata: meta,
		Success:  true,
	}, resp.StatusCode, nil
}

// Metadata issues a HEAD request and maps the response headers.
func (r *HTTPResource) Metadata(ctx context.Context) (*models.ResourceMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.url, nil)
	if err != nil {
		return nil, models.NewTransportError("building request", err)
	}
	r.applyHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, models.NewTransportError(fmt.Sprintf("HEAD %s", r.url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewHTTPError(fmt.Sprintf("HEAD %s returned %s", r.url, resp.Status), resp.StatusCode)
	}

	meta := &models.ResourceMetadata{
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		ETag:        resp.Header.Get("ETag"),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			meta.LastModified = &t
		}
	}
	return meta, nil
}

// Stream opens the response body for incremental reading. The caller owns
// the returned reader.
func (r *HTTPResource) Stream(ctx context.Context, chunkSize int) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, models.NewTransportError("building request", err)
	}
	r.applyHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, models.NewTransportError(fmt.Sprintf("GET %s", r.url), err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, models.NewHTTPError(fmt.Sprintf("GET %s returned %s", r.url, resp.Status), resp.StatusCode)
	}
	return resp.Body, nil
}

func (r *HTTPResource) applyHeaders(req *http.Request) {
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.username != "" || r.password != "" {
		req.SetBasicAuth(r.username, r.password)
	}
}
