package sdk

import (
	"errors"
	"fmt"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/cache"
	"github.com/boostify/btf2300-sdk-go/pkg/config"
	"github.com/boostify/btf2300-sdk-go/pkg/contracts"
	"github.com/boostify/btf2300-sdk-go/pkg/metrics"
	"github.com/boostify/btf2300-sdk-go/pkg/orchestrator"
	"github.com/boostify/btf2300-sdk-go/pkg/rpcpool"
	"github.com/boostify/btf2300-sdk-go/pkg/storage"
	"github.com/boostify/btf2300-sdk-go/pkg/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// logLevel is the level of the default logger installed by init.
var logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// init configures a default global zap logger for the SDK. Applications may
// replace it with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            logLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// Option customizes New.
type Option func(*options)

type options struct {
	provider   wallet.Provider
	dialer     rpcpool.Dialer
	registerer prometheus.Registerer
	observer   orchestrator.Observer
	now        func() time.Time
}

// WithProvider injects the wallet used for writes. It takes precedence over
// Config.PrivateKey.
func WithProvider(p wallet.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithDialer replaces how endpoints are dialed. Tests use it to route calls
// to an in-process node.
func WithDialer(d rpcpool.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithRegisterer enables Prometheus metrics registered on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithObserver receives write lifecycle events.
func WithObserver(obs orchestrator.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock replaces time.Now for cache expiry, endpoint cooldowns and
// transaction deadlines.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Client is the BTF-2300 chain client. The embedded Gateway is the read
// surface and the embedded Orchestrator is the write surface. A Client is
// safe for concurrent use.
type Client struct {
	*blockchain.Gateway
	*orchestrator.Orchestrator

	cfg     *config.Config
	pool    *rpcpool.Pool
	cache   *cache.Cache
	session *wallet.Session
	storage *storage.Client
	metrics *metrics.Metrics
}

// New validates cfg, resolves the contract addresses for cfg.Network and
// builds a Client. Nothing is dialed until the first call.
//
// Writes need a signer: either WithProvider or Config.PrivateKey. Without
// one, every write returns a failed result mentioning the missing wallet.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Debug {
		logLevel.SetLevel(zap.DebugLevel)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		o.now = time.Now
	}

	addrs, err := contracts.Resolve(cfg.Network.ChainID, cfg.Contracts)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if o.registerer != nil {
		m = metrics.New(metrics.DefaultNamespace, o.registerer)
	}

	pool, err := rpcpool.New(rpcpool.Options{
		Endpoints:      cfg.Endpoints,
		AttemptTimeout: cfg.Timeouts.RPCAttempt,
		Attempts:       cfg.Retries,
		Cooldown:       cfg.EndpointCooldown,
		DialTimeout:    cfg.Timeouts.Dial,
		Dialer:         o.dialer,
		Metrics:        m,
		Now:            o.now,
	})
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cache.Options{Size: cfg.CacheSize, Now: o.now, Metrics: m})
	if err != nil {
		pool.Close()
		return nil, err
	}

	gw, err := blockchain.NewGateway(pool, c, addrs, cfg.CacheTTL)
	if err != nil {
		pool.Close()
		return nil, err
	}

	provider := o.provider
	if provider == nil && cfg.HasPrivateKey() {
		key, err := cfg.RequirePrivateKey()
		if err != nil {
			pool.Close()
			return nil, err
		}
		keyed, err := wallet.NewKeyedProvider(key, gw, cfg.GasBufferPercent)
		if err != nil {
			pool.Close()
			return nil, err
		}
		zap.L().Debug("Using server-side signer", zap.String("address", keyed.Account().Hex()))
		provider = keyed
	}
	session := wallet.NewSession(provider, cfg.Network)

	orch, err := orchestrator.New(orchestrator.Options{
		Chain:           gw,
		Sessions:        session,
		DeadlineWindow:  cfg.DeadlineWindow,
		SlippagePercent: cfg.SlippagePercent,
		ReceiptWait:     cfg.Timeouts.ReceiptWait,
		ReceiptPoll:     cfg.Timeouts.ReceiptPoll,
		Metrics:         m,
		Observer:        o.observer,
		Now:             o.now,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	store, err := storage.New(storage.Options{
		IpfsURL:       cfg.IpfsURL,
		LighthouseURL: cfg.LighthouseURL,
		Timeout:       cfg.Timeouts.Metadata,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	zap.L().Debug("BTF-2300 client ready",
		zap.Uint64("chainId", cfg.Network.ChainID),
		zap.Strings("endpoints", cfg.Endpoints),
		zap.String("artistToken", addrs.ArtistToken.Hex()),
		zap.String("dex", addrs.DEX.Hex()),
		zap.String("royalties", addrs.Royalties.Hex()))

	return &Client{
		Gateway:      gw,
		Orchestrator: orch,
		cfg:          cfg,
		pool:         pool,
		cache:        c,
		session:      session,
		storage:      store,
		metrics:      m,
	}, nil
}

// Config returns the validated configuration.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// Session returns the wallet session used by writes.
func (c *Client) Session() *wallet.Session {
	return c.session
}

// Endpoints returns the current endpoint ranking.
func (c *Client) Endpoints() []rpcpool.Status {
	return c.pool.Endpoints()
}

// Metrics returns the collectors, or nil when WithRegisterer was not used.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// Close releases the endpoint connections. In-flight calls fail.
func (c *Client) Close() {
	c.pool.Close()
}
