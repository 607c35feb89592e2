// Package meili is the Meilisearch search provider. It serves the same
// filter snapshots as the REST driver from one index per artifact kind.
package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	meilisearch "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/metrics"
)

const driverLabel = "meilisearch"

// Default index uids per artifact kind.
var defaultIndexes = map[artifact.Kind]string{
	artifact.KindWorks:                "works",
	artifact.KindArchivals:            "archivals",
	artifact.KindLiteratureReferences: "literature_references",
}

// Default facet attributes per artifact kind.
var defaultFacets = map[artifact.Kind][]string{
	artifact.KindWorks:                {"attribution", "catalog", "collection", "function", "technique"},
	artifact.KindArchivals:            {"repository", "year"},
	artifact.KindLiteratureReferences: {"primary_source", "publish_location"},
}

// Config holds the Meilisearch driver settings.
type Config struct {
	URL    string
	APIKey string
	// Indexes overrides index uids per artifact kind.
	Indexes map[artifact.Kind]string
	// Facets overrides the facet attributes per artifact kind.
	Facets map[artifact.Kind][]string
	Logger *zap.Logger
}

// Client queries Meilisearch.
type Client struct {
	client  meilisearch.ServiceManager
	indexes map[artifact.Kind]string
	facets  map[artifact.Kind][]string
	logger  *zap.Logger
}

// NewClient creates a Meilisearch client. No request is made.
func NewClient(cfg *Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	indexes := make(map[artifact.Kind]string, len(defaultIndexes))
	for k, v := range defaultIndexes {
		indexes[k] = v
	}
	for k, v := range cfg.Indexes {
		if v != "" {
			indexes[k] = v
		}
	}
	facets := make(map[artifact.Kind][]string, len(defaultFacets))
	for k, v := range defaultFacets {
		facets[k] = v
	}
	for k, v := range cfg.Facets {
		facets[k] = v
	}
	return &Client{
		client:  meilisearch.New(cfg.URL, meilisearch.WithAPIKey(cfg.APIKey)),
		indexes: indexes,
		facets:  facets,
		logger:  logger.Named("meili"),
	}
}

// Provider returns the search provider for one artifact kind.
func (c *Client) Provider(kind artifact.Kind) *Provider {
	return &Provider{client: c, kind: kind}
}

// HealthCheck verifies Meilisearch is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.client.Health(); err != nil {
		return fmt.Errorf("meilisearch health: %w: %w", domain.ErrProviderUnavailable, err)
	}
	return nil
}

// QueryByIDs looks up works by id.
func (c *Client) QueryByIDs(ctx context.Context, ids []string, _ string) (*result.Result, error) {
	if len(ids) == 0 {
		return result.Empty(), nil
	}
	sr := &meilisearch.SearchRequest{
		IndexUID: c.indexes[artifact.KindWorks],
		Limit:    int64(len(ids)),
		Filter:   []string{inFilter("id", ids)},
	}
	return c.search(ctx, artifact.KindWorks, sr)
}

func (c *Client) search(ctx context.Context, kind artifact.Kind, sr *meilisearch.SearchRequest) (*result.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sr.IndexUID == "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownArtifactKind, kind)
	}

	start := time.Now()
	resp, err := c.client.MultiSearch(&meilisearch.MultiSearchRequest{
		Queries: []*meilisearch.SearchRequest{sr},
	})
	if err != nil {
		err = fmt.Errorf("meilisearch multi-search: %w: %w", domain.ErrProviderUnavailable, err)
	} else if len(resp.Results) == 0 {
		err = fmt.Errorf("meilisearch multi-search without results: %w", domain.ErrMalformedResponse)
	}
	metrics.ProviderRequestsTotal.WithLabelValues(driverLabel, string(kind), metrics.StatusLabel(err)).Inc()
	metrics.ProviderRequestDuration.WithLabelValues(driverLabel, string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("meilisearch request failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}

	res, err := toResult(kind, &resp.Results[0])
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Provider is the search provider of one artifact kind.
type Provider struct {
	client *Client
	kind   artifact.Kind
}

// Kind returns the artifact kind this provider queries.
func (p *Provider) Kind() artifact.Kind { return p.kind }

// QueryByFilters translates the snapshot into a Meilisearch query.
func (p *Provider) QueryByFilters(
	ctx context.Context,
	snap request.Snapshot,
	freetext filter.FreeText,
	sorting []request.SortingItem,
	_ string,
) (*result.Result, error) {
	sr := BuildSearchRequest(p.client.indexes[p.kind], p.client.facets[p.kind], snap, freetext, sorting)
	return p.client.search(ctx, p.kind, sr)
}

// BuildSearchRequest maps a filter snapshot to a search request. Free text
// fields are joined into the query string; everything else becomes a
// filter expression.
func BuildSearchRequest(
	index string,
	facets []string,
	snap request.Snapshot,
	freetext filter.FreeText,
	sorting []request.SortingItem,
) *meilisearch.SearchRequest {
	var filters []string
	if snap.HasDatingLowerBound() {
		filters = append(filters, "dating_begin >= "+strconv.Itoa(snap.Dating.From))
	}
	if snap.Dating.To > 0 {
		filters = append(filters, "dating_end <= "+strconv.Itoa(snap.Dating.To))
	}
	switch {
	case snap.EntityType != "" && snap.EntityType != artifact.EntityUnknown:
		filters = append(filters, fmt.Sprintf("entity_type = %q", snap.EntityType))
	case len(snap.EntityTypes) > 0:
		types := make([]string, len(snap.EntityTypes))
		for i, t := range snap.EntityTypes {
			types[i] = string(t)
		}
		filters = append(filters, inFilter("entity_type", types))
	}
	if snap.IsBestOf {
		filters = append(filters, "is_best_of = true")
	}
	for _, key := range snap.GroupKeys() {
		if ids := snap.Groups[key]; len(ids) > 0 && isAttribute(key) {
			filters = append(filters, inFilter(key, ids))
		}
	}

	sr := &meilisearch.SearchRequest{
		IndexUID:              index,
		Query:                 joinFreetext(freetext),
		Limit:                 int64(snap.Size),
		Offset:                int64(snap.From),
		Facets:                mergeFacets(facets, snap.GroupKeys()),
		AttributesToHighlight: []string{"title"},
		HighlightPreTag:       "<em>",
		HighlightPostTag:      "</em>",
	}
	if len(filters) > 0 {
		sr.Filter = filters
	}
	for _, s := range sorting {
		sr.Sort = append(sr.Sort, s.Field+":"+string(s.Direction))
	}
	return sr
}

// isAttribute reports whether key is a plain attribute name that can be
// placed unquoted into a filter expression.
func isAttribute(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func inFilter(attr string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return attr + " IN [" + strings.Join(quoted, ", ") + "]"
}

func joinFreetext(ft filter.FreeText) string {
	keys := make([]string, 0, len(ft))
	for k, v := range ft {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strings.TrimSpace(ft[filter.FieldName(k)])
	}
	return strings.Join(parts, " ")
}

func mergeFacets(base, selected []string) []string {
	seen := make(map[string]struct{}, len(base)+len(selected))
	out := make([]string, 0, len(base)+len(selected))
	for _, list := range [][]string{base, selected} {
		for _, f := range list {
			if _, ok := seen[f]; ok || !isAttribute(f) {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// toResult decodes hits and facet counts.
func toResult(kind artifact.Kind, sr *meilisearch.SearchResponse) (*result.Result, error) {
	out := &result.Result{
		Items: make([]artifact.Artifact, 0, len(sr.Hits)),
		Meta:  result.Meta{Hits: int(sr.EstimatedTotalHits)},
	}
	for _, hit := range sr.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			return nil, fmt.Errorf("encode hit: %w: %w", domain.ErrMalformedResponse, err)
		}
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode hit: %w: %w", domain.ErrMalformedResponse, err)
		}
		out.Items = append(out.Items, doc.toArtifact(kind))
	}

	groups, err := facetGroups(sr.FacetDistribution)
	if err != nil {
		return nil, err
	}
	out.FilterGroups = groups
	out.SingleFilters = []result.FilterItem{}
	return out, nil
}

// facetGroups converts a facet distribution ({attr: {value: count}}) into
// sorted filter groups.
func facetGroups(distribution any) ([]result.FilterGroupItem, error) {
	raw, err := json.Marshal(distribution)
	if err != nil {
		return nil, fmt.Errorf("encode facets: %w: %w", domain.ErrMalformedResponse, err)
	}
	var dist map[string]map[string]int64
	if err := json.Unmarshal(raw, &dist); err != nil {
		return nil, fmt.Errorf("decode facets: %w: %w", domain.ErrMalformedResponse, err)
	}

	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]result.FilterGroupItem, 0, len(keys))
	for _, key := range keys {
		values := make([]string, 0, len(dist[key]))
		for v := range dist[key] {
			values = append(values, v)
		}
		sort.Strings(values)
		children := make([]result.FilterItem, 0, len(values))
		for _, v := range values {
			n := dist[key][v]
			children = append(children, result.FilterItem{
				ID:          v,
				Text:        v,
				DocCount:    int(n),
				IsAvailable: n > 0,
			})
		}
		groups = append(groups, result.FilterGroupItem{Key: key, Text: key, Children: children})
	}
	return groups, nil
}
