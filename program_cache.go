package priv

// ProgramCache stores compiled admission programs keyed by rule strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache on the channel.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *channelConfig) {
		cfg.programCache = cache
	}
}
