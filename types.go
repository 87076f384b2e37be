package priv

import (
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-privatestate/pkg/telemetry"
)

// GuardContext carries inputs needed when evaluating an admission rule.
// Record holds the bound form of the candidate record; it is visible only
// inside guard evaluation and never leaves the admission path.
type GuardContext struct {
	Record   any
	Op       string
	Channel  string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx GuardContext) withDefaultNow() GuardContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx GuardContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx GuardContext) withDefaultMaps() GuardContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx GuardContext) channelLabel() string {
	if ctx.Channel != "" {
		return ctx.Channel
	}
	return "unknown"
}

func (ctx GuardContext) recordBinding() map[string]any {
	if m, ok := ctx.Record.(map[string]any); ok {
		return m
	}
	return nil
}

// Guard executes admission rules against a guard context.
type Guard interface {
	Evaluate(ctx GuardContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledGuard, error)
}

// CompiledGuard represents a reusable admission rule program.
type CompiledGuard interface {
	Evaluate(ctx GuardContext) (any, error)
}

// CompileOption configures guard compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures a channel at construction time.
type Option func(*channelConfig)

type channelConfig struct {
	id           string
	name         string
	guard        Guard
	rule         string
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       ChannelLogger
	hooks        telemetry.Hooks
	redacted     []string
}

func applyChannelOptions(opts []Option) channelConfig {
	cfg := channelConfig{id: uuid.NewString()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.name == "" {
		cfg.name = cfg.id
	}
	return cfg
}

// WithName labels the channel for errors, logs, and telemetry. Names are
// diagnostic only; access still requires the constructed channel value.
func WithName(name string) Option {
	return func(cfg *channelConfig) {
		cfg.name = name
	}
}

// WithGuard configures the engine used to evaluate admission rules.
func WithGuard(g Guard) Option {
	return func(cfg *channelConfig) {
		cfg.guard = g
	}
}

// WithAdmissionRule configures an expression evaluated before every Set.
// The rule must evaluate to a bool; records it rejects are never stored.
func WithAdmissionRule(expr string) Option {
	return func(cfg *channelConfig) {
		cfg.rule = expr
	}
}

// WithRedactedFields removes the named top-level fields from the record
// binding before the admission rule sees it.
func WithRedactedFields(names ...string) Option {
	return func(cfg *channelConfig) {
		cfg.redacted = append(cfg.redacted, names...)
	}
}

func (cfg *channelConfig) guardLogger() ChannelLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopChannelLogger{}
}
