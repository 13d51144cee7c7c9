// Package authcore wires the credential, auth, policy, session and
// observe packages into one authentication and authorization core.
//
// A Core owns its telemetry, token validator, policy engine and session
// store. Construct one with New, use the component accessors, and call
// Close when done.
package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/authcore/auth"
	"github.com/jonwraymond/authcore/credential"
	"github.com/jonwraymond/authcore/health"
	"github.com/jonwraymond/authcore/observe"
	"github.com/jonwraymond/authcore/policy"
	"github.com/jonwraymond/authcore/session"
)

// Config configures a Core.
type Config struct {
	// JWTSecret is the HMAC secret used to verify bearer tokens.
	JWTSecret string

	// AllowedAudiences is the set of acceptable token audiences.
	AllowedAudiences []string

	// AllowedIssuers is the set of acceptable token issuers.
	AllowedIssuers []string

	// SessionTimeout is the session TTL. Default: 30 minutes.
	SessionTimeout time.Duration

	// MaxConcurrentSessions caps active sessions per user. Default: 5.
	MaxConcurrentSessions int

	// EnableAuditLogging emits session audit events through the logger.
	EnableAuditLogging bool

	// RequireHumanApproval, when non-empty, replaces the default list of
	// tools gated behind human approval.
	RequireHumanApproval []string

	// Observability configures tracing, metrics and logging. A zero
	// value enables info-level logging only.
	Observability observe.Config
}

// ErrWeakSecret is returned by New when the signing secret fails the
// credential checks.
var ErrWeakSecret = errors.New("authcore: jwt secret rejected")

// Option customizes Core construction.
type Option func(*options)

type options struct {
	observer    observe.Observer
	policyCfg   *policy.Config
	auditSink   session.AuditSink
	cacheTTL    time.Duration
	throttleCfg *auth.ThrottleConfig
}

// WithObserver supplies a pre-built observer. The Core will not shut it
// down on Close; the caller keeps ownership.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithPolicyConfig replaces the default policy tables.
func WithPolicyConfig(cfg policy.Config) Option {
	return func(o *options) { o.policyCfg = &cfg }
}

// WithAuditSink routes session audit events to a custom sink instead of
// the structured logger.
func WithAuditSink(sink session.AuditSink) Option {
	return func(o *options) { o.auditSink = sink }
}

// WithValidationCache caches token validations for the given TTL.
func WithValidationCache(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithFailureThrottle rate-limits repeated failed validations.
func WithFailureThrottle(cfg auth.ThrottleConfig) Option {
	return func(o *options) { o.throttleCfg = &cfg }
}

// Core is the assembled authentication and authorization core.
type Core struct {
	validator *auth.TokenValidator
	engine    *policy.Engine
	sessions  *session.Manager
	checks    *health.Aggregator

	observer     observe.Observer
	ownsObserver bool
}

// New builds a Core from the configuration. On failure nothing is left
// running; any observer New created is shut down before returning.
func New(ctx context.Context, cfg Config, opts ...Option) (*Core, error) {
	if result := credential.Validate(cfg.JWTSecret, credential.KindGeneric); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrWeakSecret, result.Reason)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obs := o.observer
	ownsObserver := false
	if obs == nil {
		obsCfg := cfg.Observability
		if obsCfg.ServiceName == "" {
			obsCfg.ServiceName = "authcore"
		}
		if !obsCfg.Logging.Enabled && obsCfg.Logging.Level == "" {
			obsCfg.Logging = observe.LoggingConfig{Enabled: true, Level: "info"}
		}
		var err error
		obs, err = observe.NewObserver(ctx, obsCfg)
		if err != nil {
			return nil, fmt.Errorf("authcore: observability setup: %w", err)
		}
		ownsObserver = true
	}

	metrics, err := observe.NewAuthMetrics(obs.Meter())
	if err != nil {
		if ownsObserver {
			_ = obs.Shutdown(ctx)
		}
		return nil, fmt.Errorf("authcore: metrics setup: %w", err)
	}

	validatorCfg := auth.ValidatorConfig{
		Secret:           []byte(cfg.JWTSecret),
		AllowedAudiences: cfg.AllowedAudiences,
		AllowedIssuers:   cfg.AllowedIssuers,
		Metrics:          metrics,
	}
	if o.cacheTTL > 0 {
		validatorCfg.Cache = auth.NewValidationCache(o.cacheTTL)
	}
	if o.throttleCfg != nil {
		validatorCfg.Throttle = auth.NewFailureThrottle(*o.throttleCfg)
	}
	validator := auth.NewTokenValidator(validatorCfg)

	policyCfg := policy.DefaultConfig()
	if o.policyCfg != nil {
		policyCfg = *o.policyCfg
	}
	if len(cfg.RequireHumanApproval) > 0 {
		policyCfg.DestructiveTools = cfg.RequireHumanApproval
	}
	engine := policy.NewEngine(policyCfg, metrics)

	sink := o.auditSink
	if sink == nil && cfg.EnableAuditLogging {
		sink = &session.LoggerSink{Logger: obs.Logger()}
	}
	sessions := session.NewManager(session.Config{
		Timeout:       cfg.SessionTimeout,
		MaxConcurrent: cfg.MaxConcurrentSessions,
		EnableAudit:   cfg.EnableAuditLogging || o.auditSink != nil,
		Sink:          sink,
		Metrics:       metrics,
	})

	checks := health.NewAggregator(0)
	checks.Register(health.NewSessionChecker(sessions))

	return &Core{
		validator:    validator,
		engine:       engine,
		sessions:     sessions,
		checks:       checks,
		observer:     obs,
		ownsObserver: ownsObserver,
	}, nil
}

// Validator returns the token validator.
func (c *Core) Validator() *auth.TokenValidator {
	return c.validator
}

// Policy returns the policy engine.
func (c *Core) Policy() *policy.Engine {
	return c.engine
}

// Sessions returns the session manager.
func (c *Core) Sessions() *session.Manager {
	return c.sessions
}

// Logger returns the structured logger.
func (c *Core) Logger() observe.Logger {
	return c.observer.Logger()
}

// Health returns the health aggregator. Callers may register additional
// checkers on it.
func (c *Core) Health() *health.Aggregator {
	return c.checks
}

// Close retires the core. The session store stops first so its final
// audit events can still flow through telemetry.
func (c *Core) Close(ctx context.Context) error {
	c.sessions.Close()
	if c.ownsObserver {
		return c.observer.Shutdown(ctx)
	}
	return nil
}
