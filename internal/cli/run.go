package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/config"
	"github.com/aretw0/easel/internal/presentation/tui"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/observability"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ScenarioPath string
	ConfigPath   string
	Debug        bool
	Quiet        bool
	Out          io.Writer
}

// Execute plays a scenario file and prints every step.
func Execute(opts RunOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg, opts.Debug, opts.Quiet)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.ScenarioPath)
	if err != nil {
		return fmt.Errorf("failed to open scenario: %w", err)
	}
	sc, err := LoadScenario(f)
	f.Close()
	if err != nil {
		return err
	}
	sc.Dir = filepath.Dir(opts.ScenarioPath)

	reg := memory.NewRegistry(memory.WithIDGenerator(sequentialIDs("u")))
	edOpts, err := EditorOptions(cfg, logger,
		easel.WithUploadRegistry(reg),
		easel.WithLifecycleHooks(observability.LogHooks(logger)),
	)
	if err != nil {
		return err
	}
	ed, err := easel.New(edOpts...)
	if err != nil {
		return err
	}

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()
	defer ed.Close(ctx)

	p := tui.NewPrinter(opts.Out)
	if !opts.Quiet {
		p.Banner(strings.TrimSpace(easel.Version))
	}
	err = sc.Play(ctx, ed, reg, func(r StepResult) {
		if opts.Quiet && r.Err == nil {
			return
		}
		p.Step(r.Index, r.Op, r.Detail, r.Err)
		p.Document(r.Data)
	})
	if err != nil {
		return err
	}
	if !opts.Quiet {
		printSystemMessage(opts.Out, "Scenario finished after %d steps.", len(sc.Steps))
	}
	return nil
}

// sequentialIDs numbers transfers so scenarios can refer to them.
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}
