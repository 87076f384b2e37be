package priv

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-privatestate/internal/snapshot"
	"github.com/goliatone/go-privatestate/pkg/telemetry"
)

const opSet = "set"

// admit evaluates the channel's admission rule against record before it is
// stored. Rules must produce a bool; false rejects the record and nothing is
// written. Channels without a rule admit everything.
func (c *core[V]) admit(op string, record V) error {
	if c.guard == nil || c.cfg.rule == "" {
		return nil
	}

	engine := guardEngineName(c.guard)
	binding, err := c.binder.Bind(snapshot.Context{Channel: c.cfg.name, Op: op}, record)
	if err != nil {
		return wrapAdmissionError(engine, c.cfg.rule, c.cfg.name, err)
	}

	ctx := GuardContext{
		Record:  binding,
		Op:      op,
		Channel: c.cfg.name,
	}.withDefaultNow().withDefaultMaps()

	start := time.Now()
	result, evalErr := c.guard.Evaluate(ctx, c.cfg.rule)
	duration := time.Since(start)
	evalErr = wrapAdmissionError(engine, c.cfg.rule, ctx.channelLabel(), evalErr)
	if evalErr == nil {
		admitted, ok := result.(bool)
		switch {
		case !ok:
			evalErr = wrapAdmissionError(engine, c.cfg.rule, ctx.channelLabel(),
				fmt.Errorf("rule returned %T, want bool", result))
		case !admitted:
			evalErr = wrapAdmissionError(engine, c.cfg.rule, ctx.channelLabel(), ErrRecordRejected)
		}
	}

	c.cfg.guardLogger().LogAdmission(ChannelLogEvent{
		Engine:   engine,
		Rule:     c.cfg.rule,
		Channel:  ctx.channelLabel(),
		Op:       op,
		Duration: duration,
		Err:      evalErr,
	})

	if evalErr != nil {
		if errors.Is(evalErr, ErrRecordRejected) {
			c.emit(telemetry.BuildRecordRejectedEvent(c.eventInput(op)))
		}
		return evalErr
	}
	return nil
}

func resolveGuard(cfg *channelConfig) Guard {
	if cfg.guard != nil {
		return cfg.guard
	}
	var exprOpts []ExprGuardOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	return NewExprGuard(exprOpts...)
}

func guardEngineName(g Guard) string {
	if g == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", g) {
	case "*priv.exprGuard":
		return "expr"
	case "*priv.celGuard":
		return "cel"
	case "*priv.jsGuard":
		return "js"
	default:
		return "custom"
	}
}
