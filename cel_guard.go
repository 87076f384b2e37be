package priv

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELGuardOption configures the CEL guard.
type CELGuardOption func(*celGuard)

// CELWithProgramCache wires a ProgramCache into the CEL guard.
func CELWithProgramCache(cache ProgramCache) CELGuardOption {
	return func(g *celGuard) {
		g.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL guard.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELGuardOption {
	return func(g *celGuard) {
		if registry == nil {
			return
		}
		g.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celGuard struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELGuard constructs a Guard backed by cel-go.
func NewCELGuard(opts ...CELGuardOption) Guard {
	g := &celGuard{}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *celGuard) Evaluate(ctx GuardContext, rule string) (any, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	binding := ctx.recordBinding()
	program, err := g.loadOrCompile(rule, binding)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(g.activation(ctx, binding))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (g *celGuard) Compile(rule string, _ ...CompileOption) (CompiledGuard, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	return &celCompiledGuard{
		guard: g,
		rule:  rule,
	}, nil
}

func (g *celGuard) loadOrCompile(rule string, binding map[string]any) (*celProgram, error) {
	if binding == nil {
		binding = map[string]any{}
	}
	if g.cache != nil {
		if cached, ok := g.cache.Get(rule); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := g.buildEnv(binding)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(rule)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if g.cache != nil {
		g.cache.Set(rule, bundle)
	}
	return bundle, nil
}

func (g *celGuard) buildEnv(binding map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("op", celgo.StringType),
		celgo.Variable("channel", celgo.StringType),
		celgo.Variable("record", celgo.DynType),
	}
	if g.registry != nil {
		binding := g.callBinding()
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType},
			celgo.DynType,
			celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
				return binding(values)
			}),
		)))
	}
	for key := range binding {
		if reservedGuardName(key) {
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (g *celGuard) activation(ctx GuardContext, binding map[string]any) map[string]any {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"op":       ctx.Op,
		"channel":  ctx.channelLabel(),
		"record":   binding,
	}
	for key, value := range binding {
		if reservedGuardName(key) {
			continue
		}
		activation[key] = value
	}
	if g.registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return g.registry.Call(name, arguments...)
		}
	}
	return activation
}

func reservedGuardName(name string) bool {
	switch name {
	case "now", "args", "metadata", "op", "channel", "record", "call":
		return true
	}
	return false
}

type celCompiledGuard struct {
	guard *celGuard
	rule  string
}

func (r *celCompiledGuard) Evaluate(ctx GuardContext) (any, error) {
	if r.guard == nil {
		return nil, fmt.Errorf("cel compiled guard missing engine")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	binding := ctx.recordBinding()
	program, err := r.guard.loadOrCompile(r.rule, binding)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(r.guard.activation(ctx, binding))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (g *celGuard) callBinding() func([]ref.Val) ref.Val {
	return func(values []ref.Val) ref.Val {
		if g.registry == nil {
			return types.NewErr("priv: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("priv: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("priv: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := g.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
