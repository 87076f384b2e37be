package priv

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprGuardOption configures an expr guard instance.
type ExprGuardOption func(*exprGuard)

// ExprWithProgramCache wires a ProgramCache into the expr guard.
func ExprWithProgramCache(cache ProgramCache) ExprGuardOption {
	return func(g *exprGuard) {
		g.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr guard.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprGuardOption {
	return func(g *exprGuard) {
		if registry == nil {
			return
		}
		g.registry = registry.Clone()
	}
}

// exprGuard executes admission rules using github.com/expr-lang/expr.
type exprGuard struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprGuard constructs a Guard backed by expr-lang/expr. It is the
// default engine for channels built with WithAdmissionRule.
func NewExprGuard(opts ...ExprGuardOption) Guard {
	g := &exprGuard{}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Evaluate compiles and runs the rule against ctx.Record.
func (g *exprGuard) Evaluate(ctx GuardContext, rule string) (any, error) {
	if rule == "" {
		return nil, wrapGuardError("expr", fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	env := g.environment(ctx)
	if g.cache == nil {
		result, err := exprlang.Eval(rule, env)
		if err != nil {
			return nil, wrapAdmissionError("expr", rule, ctx.channelLabel(), err)
		}
		return result, nil
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapAdmissionError("expr", rule, ctx.channelLabel(), err)
	}
	return result, nil
}

// Compile returns a compiled guard that evaluates the rule per invocation.
func (g *exprGuard) Compile(rule string, _ ...CompileOption) (CompiledGuard, error) {
	if rule == "" {
		return nil, wrapGuardError("expr", fmt.Errorf("rule must not be empty"))
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &exprCompiledGuard{
		guard:   g,
		program: program,
		rule:    rule,
	}, nil
}

func (g *exprGuard) loadOrCompile(rule string) (*exprvm.Program, error) {
	if g.cache != nil {
		if cached, ok := g.cache.Get(rule); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range g.registryNames() {
		fn := g.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(rule, options...)
	if err != nil {
		return nil, wrapAdmissionError("expr", rule, "", err)
	}
	if g.cache != nil {
		g.cache.Set(rule, program)
	}
	return program, nil
}

type exprCompiledGuard struct {
	guard   *exprGuard
	program *exprvm.Program
	rule    string
}

func (r *exprCompiledGuard) Evaluate(ctx GuardContext) (any, error) {
	if r.guard == nil {
		return nil, wrapGuardError("expr", fmt.Errorf("compiled guard missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	if r.program == nil {
		return r.guard.Evaluate(ctx, r.rule)
	}
	env := r.guard.environment(ctx)
	result, err := exprlang.Run(r.program, env)
	if err != nil {
		return nil, wrapAdmissionError("expr", r.rule, ctx.channelLabel(), err)
	}
	return result, nil
}

func (g *exprGuard) environment(ctx GuardContext) map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"op":       ctx.Op,
		"channel":  ctx.channelLabel(),
	}
	if binding := ctx.recordBinding(); binding != nil {
		env["record"] = binding
		for key, value := range binding {
			if _, reserved := env[key]; !reserved {
				env[key] = value
			}
		}
	}
	if g.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return g.registry.Call(name, arguments...)
		}
		for _, name := range g.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return g.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (g *exprGuard) registryNames() []string {
	if g == nil || g.registry == nil {
		return nil
	}
	return g.registry.Names()
}

func (g *exprGuard) registryFunction(name string) func(...any) (any, error) {
	if g == nil || g.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return g.registry.Call(name, arguments...)
	}
}
