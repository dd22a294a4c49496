package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/config"
	"github.com/aretw0/easel/pkg/resize"
	"github.com/aretw0/easel/pkg/schema"
	"github.com/aretw0/easel/pkg/session"
)

// EditorOptions translates cfg into editor options. Options given in extra
// are applied last.
func EditorOptions(cfg *config.Config, logger *slog.Logger, extra ...easel.Option) ([]easel.Option, error) {
	s, err := LoadSchema(cfg)
	if err != nil {
		return nil, err
	}
	opts := []easel.Option{
		easel.WithLogger(logger),
		easel.WithSchema(s),
		easel.WithMediaElement(cfg.Media.Element),
		easel.WithAcceptedTypes(cfg.Media.AcceptedTypes...),
		easel.WithResizeOptions(
			resize.WithLimits(cfg.Resize.MinWidth, cfg.Resize.MaxWidth),
			resize.WithUnit(resize.Unit(cfg.Resize.Unit)),
			resize.WithStrict(cfg.Resize.Strict),
		),
	}
	return append(opts, extra...), nil
}

// NewFactory returns a session factory building editors from cfg. The schema
// file is read once, here, so a broken file fails fast.
func NewFactory(cfg *config.Config, logger *slog.Logger, extra ...easel.Option) (session.Factory, error) {
	if _, err := LoadSchema(cfg); err != nil {
		return nil, err
	}
	return func(ctx context.Context, id string) (*easel.Editor, error) {
		opts, err := EditorOptions(cfg, logger.With("session_id", id), extra...)
		if err != nil {
			return nil, err
		}
		return easel.New(opts...)
	}, nil
}

// LoadSchema builds the default schema and applies the definitions in
// media.schema_file on top of it.
func LoadSchema(cfg *config.Config) (*schema.Schema, error) {
	s := schema.NewDefault(cfg.Media.Element)
	if cfg.Media.SchemaFile == "" {
		return s, nil
	}
	f, err := os.Open(cfg.Media.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()
	defs, err := schema.LoadDefinitions(f)
	if err != nil {
		return nil, err
	}
	if err := defs.Apply(s); err != nil {
		return nil, fmt.Errorf("schema file %s: %w", cfg.Media.SchemaFile, err)
	}
	return s, nil
}
