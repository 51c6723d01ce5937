// Package subgraph pages locked balances out of a Graph Protocol subgraph.
package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
)

const (
	DefaultPageSize     = 1000
	DefaultMaxRetries   = 4
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultTimeout      = 30 * time.Second

	accountsQuery = `query { accounts(skip:%d, first:%d) { id amountOwed } }`
)

var (
	// ErrQuery is wrapped by every GraphQL level failure.
	ErrQuery = errors.New("subgraph query failed")

	// ErrMalformedResponse is returned when a response body is not the expected shape.
	ErrMalformedResponse = errors.New("malformed subgraph response")
)

// QueryError carries the GraphQL error messages returned for a page.
type QueryError struct {
	URL      string
	Skip     int
	Messages []string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v: %s (skip=%d): %s", ErrQuery, e.URL, e.Skip, strings.Join(e.Messages, "; "))
}

func (e *QueryError) Unwrap() error {
	return ErrQuery
}

type Config struct {
	URL               string
	PageSize          int
	RequestsPerSecond float64
	MaxRetries        int
	RetryWaitMin      time.Duration
	Timeout           time.Duration
}

// Client fetches the accounts entity of one subgraph.
type Client struct {
	url      string
	pageSize int
	limiter  *rate.Limiter
	client   *retryablehttp.Client
	logger   *zap.Logger
}

// A wrapper around zap.Logger to make it compatible with
// retryablehttp.LeveledLogger interface.
type retryableHttpLogger struct {
	inner *zap.Logger
}

func (r retryableHttpLogger) Error(msg string, args ...any) {
	r.inner.Sugar().Errorw(msg, args...)
}

func (r retryableHttpLogger) Info(msg string, args ...any) {
	r.inner.Sugar().Infow(msg, args...)
}

func (r retryableHttpLogger) Warn(msg string, args ...any) {
	r.inner.Sugar().Warnw(msg, args...)
}

func (r retryableHttpLogger) Debug(msg string, args ...any) {
	r.inner.Sugar().Debugw(msg, args...)
}

// NewClient creates a subgraph client. Zero values in cfg take the defaults.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("subgraph url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	waitMin := cfg.RetryWaitMin
	if waitMin <= 0 {
		waitMin = DefaultRetryWaitMin
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	client := &retryablehttp.Client{
		HTTPClient:   &http.Client{Timeout: timeout},
		Logger:       retryableHttpLogger{inner: logger},
		RetryMax:     maxRetries,
		RetryWaitMin: waitMin,
		RetryWaitMax: 8 * waitMin,
		Backoff:      retryablehttp.DefaultBackoff,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	return &Client{
		url:      cfg.URL,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(limit, 1),
		client:   client,
		logger:   logger,
	}, nil
}

// FetchAccounts pages through accounts until a short page. The hosted
// service caps skip; a GraphQL error about it ends pagination with the
// records gathered so far. Any other GraphQL error fails the fetch.
func (c *Client) FetchAccounts(ctx context.Context) ([]snapshot.Record, error) {
	var records []snapshot.Record
	for skip := 0; ; skip += c.pageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.fetchPage(ctx, skip)
		if err != nil {
			var qe *QueryError
			if errors.As(err, &qe) && isSkipLimit(qe) {
				c.logger.Sugar().Warnw("Subgraph skip limit reached, ending pagination",
					"url", c.url,
					"skip", skip,
					"records", len(records),
				)
				break
			}
			return nil, err
		}

		records = append(records, page...)
		c.logger.Sugar().Debugw("Fetched subgraph page",
			"url", c.url,
			"skip", skip,
			"pageRecords", len(page),
		)

		if len(page) < c.pageSize {
			break
		}
	}

	c.logger.Sugar().Infow("Fetched subgraph accounts", "url", c.url, "records", len(records))
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, skip int) ([]snapshot.Record, error) {
	body, err := json.Marshal(map[string]string{
		"query": fmt.Sprintf(accountsQuery, skip, c.pageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query subgraph: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph returned status %s: %s", res.Status, string(data))
	}

	return parsePage(c.url, skip, data)
}

func parsePage(url string, skip int, data []byte) ([]snapshot.Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}
	result := gjson.ParseBytes(data)

	if errs := result.Get("errors"); errs.Exists() {
		qe := &QueryError{URL: url, Skip: skip}
		errs.ForEach(func(_, e gjson.Result) bool {
			qe.Messages = append(qe.Messages, e.Get("message").String())
			return true
		})
		return nil, qe
	}

	accounts := result.Get("data.accounts")
	if !accounts.IsArray() {
		return nil, fmt.Errorf("%w: missing data.accounts", ErrMalformedResponse)
	}

	var records []snapshot.Record
	var parseErr error
	accounts.ForEach(func(_, acct gjson.Result) bool {
		id := acct.Get("id")
		owed := acct.Get("amountOwed")
		if !id.Exists() || !owed.Exists() {
			parseErr = fmt.Errorf("%w: account %d missing id or amountOwed", ErrMalformedResponse, len(records))
			return false
		}
		records = append(records, snapshot.Record{
			Address: id.String(),
			Amount:  owed.String(),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return records, nil
}

func isSkipLimit(qe *QueryError) bool {
	for _, m := range qe.Messages {
		if strings.Contains(strings.ToLower(m), "skip") {
			return true
		}
	}
	return false
}
