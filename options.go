package lighttable

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/debounce"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	backend       string // "rest" or "meilisearch"
	baseURL       string
	username      string
	password      string
	apiKey        string
	timeout       time.Duration
	meiliIndexes  map[string]string
	storeDriver   string // "", "redis" or "valkey"
	storeAddrs    []string
	storePassword string
	keyPrefix     string

	debounce      time.Duration
	pageSize      int
	global        bool
	lang          string
	comparisonURL string

	logger     *zap.Logger
	metricsReg prometheus.Registerer

	// scheduler replaces the real debounce timers.
	scheduler debounce.Scheduler
	// search replaces the configured backend.
	search searchBackend
}

// WithArchiveAPI uses the archive REST API with HTTP basic auth.
func WithArchiveAPI(baseURL, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.backend = backendREST
		c.baseURL = baseURL
		c.username = username
		c.password = password
	})
}

// WithMeilisearch uses a Meilisearch instance holding the archive indexes.
// indexes maps artifact kinds (WORKS, ARCHIVALS, LITERATURE_REFERENCES)
// to index uids and may be nil.
func WithMeilisearch(url, apiKey string, indexes map[string]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.backend = backendMeili
		c.baseURL = url
		c.apiKey = apiKey
		c.meiliIndexes = indexes
	})
}

// WithTimeout sets the archive REST API request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRedis persists session storage in Redis. Without a storage option
// sessions are kept in memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.storeDriver = "redis"
		c.storeAddrs = []string{addr}
		c.storePassword = password
	})
}

// WithValkey persists session storage in Valkey.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.storeDriver = "valkey"
		c.storeAddrs = []string{addr}
		c.storePassword = password
	})
}

// WithKeyPrefix sets the storage key prefix. Default: "lighttable:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithDebounce sets the filter request debounce window. Default: 500ms.
func WithDebounce(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.debounce = d
	})
}

// WithPageSize sets the initial page size. Default: 60.
func WithPageSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = size
	})
}

// WithGlobalMode makes sessions use the global search across works and
// archivals instead of the per-kind lighttable.
func WithGlobalMode() Option {
	return optionFunc(func(c *clientConfig) {
		c.global = true
	})
}

// WithLanguage sets the initial session language. Default: "de".
func WithLanguage(lang string) Option {
	return optionFunc(func(c *clientConfig) {
		c.lang = lang
	})
}

// WithComparisonURL sets the base URL of the comparison tool.
func WithComparisonURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.comparisonURL = u
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
