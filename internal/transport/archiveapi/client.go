// Package archiveapi is the REST search provider backed by the Cranach
// archive API.
package archiveapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/metrics"
)

const (
	driverLabel    = "rest"
	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of an error response ends up in messages.
	maxErrorBody = 512
)

var endpoints = map[artifact.Kind]string{
	artifact.KindWorks:                "/works",
	artifact.KindArchivals:            "/archivals",
	artifact.KindLiteratureReferences: "/literature-references",
}

// Config holds the archive API settings.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	Logger   *zap.Logger
	// HTTPClient overrides the default client; Timeout is ignored then.
	HTTPClient *http.Client
}

// Client talks to the archive API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates an archive API client.
func NewClient(cfg *Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     hc,
		logger:   logger.Named("archiveapi"),
	}
}

// Provider returns the search provider for one artifact kind.
func (c *Client) Provider(kind artifact.Kind) *Provider {
	return &Provider{client: c, kind: kind}
}

// QueryByIDs looks up works by inventory number.
func (c *Client) QueryByIDs(ctx context.Context, ids []string, lang string) (*result.Result, error) {
	if len(ids) == 0 {
		return result.Empty(), nil
	}
	q := &query{}
	q.add("inventory_number:eq", strings.Join(ids, ","))
	q.addInt("size", len(ids))
	if lang != "" {
		q.add("lang", lang)
	}
	return c.search(ctx, artifact.KindWorks, q.encode())
}

// HealthCheck verifies the API answers on the works endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	q := &query{}
	q.addInt("size", 1)
	if _, err := c.search(ctx, artifact.KindWorks, q.encode()); err != nil {
		return fmt.Errorf("archive api health: %w", err)
	}
	return nil
}

func (c *Client) search(ctx context.Context, kind artifact.Kind, rawQuery string) (*result.Result, error) {
	path, ok := endpoints[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownArtifactKind, kind)
	}
	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build archive request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	res, err := c.do(req, kind)
	metrics.ProviderRequestsTotal.WithLabelValues(driverLabel, string(kind), metrics.StatusLabel(err)).Inc()
	metrics.ProviderRequestDuration.WithLabelValues(driverLabel, string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("archive request failed",
			zap.String("kind", string(kind)),
			zap.String("query", rawQuery),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

func (c *Client) do(req *http.Request, kind artifact.Kind) (*result.Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("archive request: %w", err)
		}
		return nil, fmt.Errorf("archive request: %w: %w", domain.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var payload responseDTO
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode archive response: %w: %w", domain.ErrMalformedResponse, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("archive response without data: %w", domain.ErrMalformedResponse)
	}
	return payload.Data.toResult(kind), nil
}

// parseAPIError prefers the "message" field of a JSON error body.
func parseAPIError(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Message != "":
			detail = parsed.Message
		case parsed.Error != "":
			detail = parsed.Error
		}
	}
	return domain.NewProviderStatus(status, detail)
}

// Provider is the search provider of one artifact kind.
type Provider struct {
	client *Client
	kind   artifact.Kind
}

// Kind returns the artifact kind this provider queries.
func (p *Provider) Kind() artifact.Kind { return p.kind }

// QueryByFilters encodes the filter snapshot and queries the kind endpoint.
func (p *Provider) QueryByFilters(
	ctx context.Context,
	snap request.Snapshot,
	freetext filter.FreeText,
	sort []request.SortingItem,
	lang string,
) (*result.Result, error) {
	return p.client.search(ctx, p.kind, EncodeQuery(snap, freetext, sort, lang))
}
