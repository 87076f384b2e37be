package priv

import "github.com/goliatone/go-privatestate/pkg/telemetry"

// WithTelemetryHooks attaches lifecycle hooks to the channel configuration.
// Hooks are cloned and nil entries dropped to preserve immutability. Events
// delivered to hooks identify the channel and operation only; they never
// carry keys or record contents.
func WithTelemetryHooks(hooks telemetry.Hooks) Option {
	normalized := cloneTelemetryHooks(hooks)
	return func(cfg *channelConfig) {
		cfg.hooks = normalized
	}
}

func cloneTelemetryHooks(hooks telemetry.Hooks) telemetry.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]telemetry.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return telemetry.Hooks(normalized)
}
