package presentation

import (
	"log/slog"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
)

type options struct {
	media  string
	logger *slog.Logger
}

// Option configures a WidthSync or a Layout.
type Option func(*options)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMediaElement sets the element name to follow. The default is "image".
func WithMediaElement(name string) Option {
	return func(o *options) {
		o.media = name
	}
}

func newOptions(opts []Option) options {
	o := options{media: domain.NameImage, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
