//go:build js_guard

package priv

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsGuard struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSGuard constructs a Guard backed by goja.
func NewJSGuard(opts ...JSGuardOption) Guard {
	cfg := applyJSGuardOptions(opts)
	return &jsGuard{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (g *jsGuard) Evaluate(ctx GuardContext, rule string) (any, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	if g.cache == nil {
		return g.run(ctx, rule, nil)
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return g.run(ctx, rule, program)
}

func (g *jsGuard) Compile(rule string, _ ...CompileOption) (CompiledGuard, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &jsCompiledGuard{
		guard:   g,
		rule:    rule,
		program: program,
	}, nil
}

func (g *jsGuard) loadOrCompile(rule string) (*goja.Program, error) {
	if g.cache != nil {
		if cached, ok := g.cache.Get(rule); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", g.wrapRule(rule), false)
	if err != nil {
		return nil, err
	}
	if g.cache != nil {
		g.cache.Set(rule, program)
	}
	return program, nil
}

func (g *jsGuard) run(ctx GuardContext, rule string, program *goja.Program) (any, error) {
	vm := goja.New()
	g.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, err
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(g.wrapRule(rule))
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func (g *jsGuard) injectContext(vm *goja.Runtime, ctx GuardContext) {
	vm.Set("now", ctx.timestamp())
	vm.Set("args", ctx.Args)
	vm.Set("metadata", ctx.Metadata)
	vm.Set("op", ctx.Op)
	vm.Set("channel", ctx.channelLabel())
	if binding := ctx.recordBinding(); binding != nil {
		vm.Set("record", binding)
		for key, value := range binding {
			if reservedGuardName(key) {
				continue
			}
			vm.Set(key, value)
		}
	}
	if g.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return g.registry.Call(name, arguments...)
		})
		for _, name := range g.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return g.registry.Call(fn, arguments...)
			})
		}
	}
}

func (g *jsGuard) wrapRule(rule string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", rule)
}

type jsCompiledGuard struct {
	guard   *jsGuard
	rule    string
	program *goja.Program
}

func (r *jsCompiledGuard) Evaluate(ctx GuardContext) (any, error) {
	if r.guard == nil {
		return nil, fmt.Errorf("js compiled guard missing engine")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	return r.guard.run(ctx, r.rule, r.program)
}

func jsGuardAvailable() bool {
	return true
}
