package catalog

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ClientConfig configures the HTTP catalog client.
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RatePerSecond   float64
	Burst           int
	BreakerFailures int
	BreakerReset    time.Duration
	// Header is added to every request, e.g. an Authorization header.
	Header http.Header
}

// Client reads catalogs from a remote console API over
// GET {base}/api/{kind}s?search= and POST {base}/api/{kind}s.
type Client struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	breaker *apperrors.CircuitBreaker
	header  http.Header
	group   singleflight.Group
}

// NewClient returns a rate limited client guarded by a circuit breaker.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		if err == nil {
			err = errors.New("base url needs scheme and host")
		}
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassConfig, "catalog_client", "invalid base url", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.BreakerReset <= 0 {
		cfg.BreakerReset = 30 * time.Second
	}

	return &Client{
		base: base,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    20,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 20 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: apperrors.NewCircuitBreaker("catalog", cfg.BreakerFailures, cfg.BreakerReset),
		header:  cfg.Header,
	}, nil
}

func (c *Client) endpoint(kind Kind) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/api/" + kind.Resource()
	return &u
}

// List returns the entries of kind whose name matches query. Identical
// concurrent lookups share one request; a caller whose ctx ends stops
// waiting without cancelling the shared request for the others.
func (c *Client) List(ctx context.Context, kind Kind, query string) ([]Entry, error) {
	key := string(kind) + "\x00" + query
	ch := c.group.DoChan(key, func() (any, error) {
		reqctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.client.Timeout)
		defer cancel()

		u := c.endpoint(kind)
		if query != "" {
			u.RawQuery = url.Values{"search": {query}}.Encode()
		}
		req, err := http.NewRequestWithContext(reqctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, errors.Wrap(err, "build request")
		}
		var entries []Entry
		if err := c.doJSON(reqctx, req, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassCatalog, "list", "catalog lookup failed", string(kind), res.Err)
		}
		entries, _ := res.Val.([]Entry)
		return append([]Entry(nil), entries...), nil
	}
}

// Create posts a new entry named name.
func (c *Client) Create(ctx context.Context, kind Kind, name string) (Entry, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return Entry{}, apperrors.Wrap(apperrors.ErrClassCatalog, "create", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(kind).String(), bytes.NewReader(body))
	if err != nil {
		return Entry{}, apperrors.Wrap(apperrors.ErrClassCatalog, "create", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var entry Entry
	if err := c.doJSON(ctx, req, &entry); err != nil {
		return Entry{}, apperrors.WrapWithMessageFor(apperrors.ErrClassCatalog, "create", "catalog create failed", string(kind), err)
	}
	return entry, nil
}

// doJSON sends req through the rate limiter and the circuit breaker and
// decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, req *http.Request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit")
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	return c.breaker.Execute(func() error {
		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
		}
		defer resp.Body.Close()

		logger.Logtype(logger.StrDebug, 1).
			Str(logger.StrCatalog, req.URL.Path).
			Int("status_code", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("catalog request")

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return apperrors.New(apperrors.ErrClassNotFound, "catalog_request", "catalog not found").WithContext(logger.StrPath, req.URL.Path)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return apperrors.New(apperrors.ErrClassValidation, "catalog_request", "request rejected").
				WithContext(logger.StrPath, req.URL.Path).WithContext("status", resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return errors.Errorf("%s %s: status %s", req.Method, req.URL.Path, strconv.Itoa(resp.StatusCode))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decode response")
		}
		return nil
	})
}
