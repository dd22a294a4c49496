package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/config"
	"github.com/aretw0/easel/internal/eventloop"
	"github.com/aretw0/easel/pkg/adapters/file"
	httpAdapter "github.com/aretw0/easel/pkg/adapters/http"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/adapters/redis"
	"github.com/aretw0/easel/pkg/observability"
	"github.com/aretw0/easel/pkg/persistence/middleware"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/session"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	ConfigPath string
	Addr       string
	Debug      bool
	// External leaves transfers to an outside uploader that reports back
	// through the /transfers routes instead of storing files locally.
	External bool
}

// Serve runs the HTTP server until SIGINT or SIGTERM.
func Serve(opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	logger, err := createLogger(cfg, opts.Debug, false)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	loop := eventloop.New(eventloop.WithLogger(logger))
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(context.Background()) }()

	metricsRegistry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(metricsRegistry)
	if err != nil {
		return err
	}
	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))

	var (
		ledger      ports.TransferLedger
		managerOpts = []session.Option{session.WithEventLoop(loop), session.WithLogger(logger)}
	)
	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
		rl := redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix+"transfer:"))
		defer rl.Close()
		ledger = rl
		managerOpts = append(managerOpts, session.WithLocker(redis.NewLocker(client, cfg.Redis.Prefix)))
		logger.Info("using redis", "addr", cfg.Redis.Addr)
	} else {
		ledger = file.NewLedger("")
	}

	if ledger, err = wrapLedger(cfg, ledger); err != nil {
		return err
	}

	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithTransferLedger(ledger),
		httpAdapter.WithMetricsHandler(observability.Handler(metricsRegistry)),
		httpAdapter.WithMaxUploadBytes(cfg.Upload.MaxBytes),
	}

	var registry ports.UploadRegistry
	if opts.External {
		mem := memory.NewRegistry()
		registry = mem
		handlerOpts = append(handlerOpts, httpAdapter.WithTransferDriver(mem))
	} else {
		fr := file.NewRegistry(cfg.Upload.Dir, loop,
			file.WithLogger(logger),
			file.WithMaxBytes(cfg.Upload.MaxBytes),
		)
		registry = fr
		defer fr.Wait()
	}

	factory, err := NewFactory(cfg, logger,
		easel.WithUploadRegistry(registry),
		easel.WithTransferLedger(ledger),
		easel.WithLifecycleHooks(hooks),
	)
	if err != nil {
		return err
	}
	manager := session.NewManager(factory, managerOpts...)

	mux := http.NewServeMux()
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Upload.Dir))))
	mux.Handle("/", httpAdapter.NewHandler(manager, handlerOpts...))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting easel server", "addr", srv.Addr, "uploads", cfg.Upload.Dir, "external", opts.External)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sigCtx.Done():
		logger.Info("shutting down", "signal", fmt.Sprint(sigCtx.Signal()))
	}

	// Give outstanding requests a deadline for completion.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown did not complete", "err", err)
		_ = srv.Close()
	}
	manager.CloseAll(ctx)
	loop.Close()
	<-loopDone
	logger.Info("easel server stopped")
	return nil
}

// wrapLedger applies the redaction and encryption settings of cfg.
func wrapLedger(cfg *config.Config, ledger ports.TransferLedger) (ports.TransferLedger, error) {
	var mws []middleware.Middleware
	if len(cfg.Ledger.RedactPatterns) > 0 {
		redact, err := middleware.NewRedactMiddleware(cfg.Ledger.RedactPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	key, err := cfg.LedgerKey()
	if err != nil {
		return nil, err
	}
	if key != nil {
		encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, encrypt)
	}
	return middleware.Chain(ledger, mws...), nil
}
