package seq2seq

import (
	"go.uber.org/zap"
)

type options struct {
	logger *zap.Logger
}

// Option configures model construction.
type Option func(*options)

// WithLogger sets the logger used for construction-time messages.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
