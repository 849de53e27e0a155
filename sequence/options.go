package sequence

import (
	"log/slog"

	"github.com/kevinxiao27/lseq/lseq"
)

type Option func(*options)

type options struct {
	cfg    lseq.Config
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		cfg:    lseq.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
}

// WithConfig sets the identifier allocation config.
func WithConfig(cfg lseq.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger attaches a logger; nil keeps the discarding default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
