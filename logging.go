package priv

import "time"

// ChannelLogEvent describes a guard evaluation for logging. It deliberately
// carries no key and no record contents.
type ChannelLogEvent struct {
	Engine   string
	Rule     string
	Channel  string
	Op       string
	Duration time.Duration
	Err      error
}

// ChannelLogger records channel guard events.
type ChannelLogger interface {
	LogAdmission(ChannelLogEvent)
}

// ChannelLoggerFunc adapts a function to ChannelLogger.
type ChannelLoggerFunc func(ChannelLogEvent)

// LogAdmission implements ChannelLogger.
func (f ChannelLoggerFunc) LogAdmission(event ChannelLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopChannelLogger struct{}

func (noopChannelLogger) LogAdmission(ChannelLogEvent) {}

// WithChannelLogger attaches a guard logger to the channel.
func WithChannelLogger(logger ChannelLogger) Option {
	return func(cfg *channelConfig) {
		if logger == nil {
			cfg.logger = noopChannelLogger{}
			return
		}
		cfg.logger = logger
	}
}
