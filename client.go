package lighttable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cranach-archive/lighttable/internal/db"
	"github.com/cranach-archive/lighttable/internal/db/memory"
	dbRedis "github.com/cranach-archive/lighttable/internal/db/redis"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/repository/localstore"
	"github.com/cranach-archive/lighttable/internal/rootstore"
	"github.com/cranach-archive/lighttable/internal/session"
	"github.com/cranach-archive/lighttable/internal/transport/archiveapi"
	"github.com/cranach-archive/lighttable/internal/transport/meili"
	"github.com/cranach-archive/lighttable/internal/usecase/facetsearch"
	healthuc "github.com/cranach-archive/lighttable/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultDebounce         = 500 * time.Millisecond
	defaultKeyPrefix        = "lighttable:"

	backendREST  = "rest"
	backendMeili = "meilisearch"
)

// searchBackend serves every artifact kind of one archive backend.
type searchBackend interface {
	QueryByIDs(ctx context.Context, ids []string, lang string) (*result.Result, error)
	HealthCheck(ctx context.Context) error
	searchProvider(kind artifact.Kind) facetsearch.SearchProvider
}

type restBackend struct{ *archiveapi.Client }

func (b restBackend) searchProvider(kind artifact.Kind) facetsearch.SearchProvider {
	return b.Provider(kind)
}

type meiliBackend struct{ *meili.Client }

func (b meiliBackend) searchProvider(kind artifact.Kind) facetsearch.SearchProvider {
	return b.Provider(kind)
}

// Client is the lighttable entry point. It owns the session storage
// connection and every session opened through it.
type Client struct {
	store    db.Store
	sessions *session.Registry
	health   *healthuc.Service
	obs      *observer
}

// New creates a Client. The provided context is used for the storage
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		debounce:  defaultDebounce,
		keyPrefix: defaultKeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	search, err := createBackend(cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lighttable: storage not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, search, cfg, obs), nil
}

func createBackend(cfg *clientConfig) (searchBackend, error) {
	if cfg.search != nil {
		return cfg.search, nil
	}
	switch cfg.backend {
	case backendREST:
		return restBackend{archiveapi.NewClient(&archiveapi.Config{
			BaseURL:  cfg.baseURL,
			Username: cfg.username,
			Password: cfg.password,
			Timeout:  cfg.timeout,
			Logger:   cfg.logger,
		})}, nil
	case backendMeili:
		indexes := make(map[artifact.Kind]string, len(cfg.meiliIndexes))
		for k, v := range cfg.meiliIndexes {
			indexes[artifact.Kind(k)] = v
		}
		return meiliBackend{meili.NewClient(&meili.Config{
			URL:     cfg.baseURL,
			APIKey:  cfg.apiKey,
			Indexes: indexes,
			Logger:  cfg.logger,
		})}, nil
	default:
		return nil, errors.New("lighttable: search backend required (use WithArchiveAPI or WithMeilisearch)")
	}
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.storeDriver {
	case "":
		return memory.NewStore(), nil
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.storeAddrs,
			Password:   cfg.storePassword,
			ClientName: "lighttable",
		})
		if err != nil {
			return nil, fmt.Errorf("lighttable: create %s store: %w", cfg.storeDriver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("lighttable: unknown storage driver %q", cfg.storeDriver)
	}
}

func wireClient(store db.Store, search searchBackend, cfg *clientConfig, obs *observer) *Client {
	providers := make(map[artifact.Kind]facetsearch.SearchProvider, 3)
	for _, k := range []artifact.Kind{artifact.KindWorks, artifact.KindArchivals, artifact.KindLiteratureReferences} {
		providers[k] = search.searchProvider(k)
	}

	opts := rootstore.Options{
		Mode:          rootstore.ModeLighttable,
		Debounce:      cfg.debounce,
		PageSize:      cfg.pageSize,
		Lang:          cfg.lang,
		ComparisonURL: cfg.comparisonURL,
	}
	if cfg.global {
		opts.Mode = rootstore.ModeGlobal
	}

	factory := func(ctx context.Context, id string) (*rootstore.RootStore, error) {
		return rootstore.New(ctx, rootstore.Deps{
			Providers: providers,
			Lookup:    search,
			Storage:   localstore.New(store, cfg.keyPrefix, id, 0, cfg.logger),
			Logger:    cfg.logger,
			Scheduler: cfg.scheduler,
		}, opts)
	}

	return &Client{
		store:    store,
		sessions: session.NewRegistry(factory, 0, cfg.logger),
		health:   healthuc.New(store, search),
		obs:      obs,
	}
}

// NewSession opens a session at a URL query string such as
// "kind=PAINTING&from_year=1510". The session outlives ctx and stays open
// until Close.
func (c *Client) NewSession(ctx context.Context, query string) (_ *Session, err error) {
	start := time.Now()
	defer func() { c.obs.observe("new_session", start, err) }()

	s, err := c.sessions.Create(context.WithoutCancel(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	c.obs.sessionsOpen(c.sessions.Len())
	return &Session{id: s.ID, store: s.Store, client: c}, nil
}

// Session returns an open session by id.
func (c *Client) Session(id string) (*Session, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("lighttable: %w", err)
	}
	return &Session{id: s.ID, store: s.Store, client: c}, nil
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks storage and archive backend.
func (c *Client) Health(ctx context.Context) healthuc.Report {
	return c.health.Check(ctx)
}

// Close closes every session and releases the storage connection.
func (c *Client) Close() {
	c.sessions.Close()
	c.obs.sessionsOpen(0)
	if c.store != nil {
		c.store.Close()
	}
}
