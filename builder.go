package goConsole

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	internalaudit "github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/pipeline"
	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/validation"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Builder assembles an Engine. A Builder can be built once.
//
// Builder instances are intended to be configured during initialization and then treated as immutable.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	backend    session.Backend
	auditSink  AuditSink
	logger     logrus.FieldLogger
	httpClient *http.Client
	clock      func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used by the redis token backend. Without
// it Build dials Store.RedisAddr itself and closes that client on
// Engine.Close.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTokenBackend overrides the configured token backend.
func (b *Builder) WithTokenBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithAuditSink sets the sink audit events are delivered to when auditing
// is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger replaces the logger built from Config.Logging.
func (b *Builder) WithLogger(log logrus.FieldLogger) *Builder {
	b.logger = log
	return b
}

// WithHTTPClient sets the HTTP client used for API calls. Its Timeout is
// ignored in favour of API.Timeout.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithClock injects the time source used for expiry decisions.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
//
// Build may return an error when configuration validation or backend setup fails.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if b.backend != nil && cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config: cloneConfig(cfg),
		now:    b.clock,
	}
	if engine.now == nil {
		engine.now = time.Now
	}

	// -------- LOGGER --------
	if b.logger != nil {
		engine.log = b.logger
	} else {
		logger, closeLog, err := logging.New(cfg.loggingConfig())
		if err != nil {
			return nil, err
		}
		engine.log = logger
		engine.closers = append(engine.closers, func() error { closeLog(); return nil })
	}

	// -------- VALIDATION / DECODER --------
	v, err := validation.New(cfg.Validation)
	if err != nil {
		return nil, err
	}
	engine.validator = v

	decoder, err := jwt.NewDecoder(jwt.Config{
		DefaultTTL: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
	})
	if err != nil {
		return nil, err
	}
	engine.decoder = decoder

	// -------- TOKEN STORE --------
	backend := b.backend
	if backend == nil {
		backend, err = b.buildBackend(cfg, engine)
		if err != nil {
			engine.closeAll()
			return nil, err
		}
	}
	engine.store = session.NewStore(backend, cfg.JWT.StorageKey)

	engine.audit = internalaudit.NewDispatcher(cfg.auditConfig(), b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	// -------- PIPELINE --------
	p, err := pipeline.New(cfg.pipelineConfig(), pipeline.Options{
		Tokens:         engine.store,
		OnUnauthorized: engine.autoLogout,
		Observer:       engineObserver{e: engine},
		Logger:         engine.log.WithField("component", "pipeline"),
		Client:         b.httpClient,
	})
	if err != nil {
		engine.closeAll()
		return nil, err
	}
	engine.pipeline = p

	engine.flows = engine.newFlows()

	b.built = true

	return engine, nil
}

func (b *Builder) buildBackend(cfg Config, engine *Engine) (session.Backend, error) {
	switch cfg.Store.Backend {
	case StoreRedis:
		client := b.redis
		if client == nil {
			if cfg.Store.RedisAddr == "" {
				return nil, errors.New("redis backend requires a client or Store RedisAddr")
			}
			owned := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
			engine.closers = append(engine.closers, owned.Close)
			client = owned
		}
		return session.NewRedisBackend(client, cfg.Store.RedisPrefix, cfg.Store.RedisTTL), nil
	case StoreFile:
		return session.NewFileBackend(cfg.Store.FilePath), nil
	case StoreMemory:
		return session.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown token backend %q", cfg.Store.Backend)
	}
}
