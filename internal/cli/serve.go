package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/learning-beast/internal/api"
	"github.com/rcliao/learning-beast/internal/logging"
	"github.com/rcliao/learning-beast/internal/session"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Load the catalog and serve sessions over HTTP until SIGINT or SIGTERM.",
		Run:   runServe,
	}

	cmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.address)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if addr != "" {
		cfg.Server.Address = addr
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		exitErr("init logger", err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		exitErr("open catalog", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := session.NewStore(session.StoreOptions{
		TTL:    cfg.Session.TTL(),
		Shards: cfg.Session.Shards,
	})
	metrics := session.NewMetrics(reg, store)
	engine := session.NewEngine(c, store, logger, metrics)
	janitor := session.NewJanitor(store, cfg.Session.SweepInterval, logger, metrics)

	srv := &http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewRouter(engine, logger, api.Options{
			AllowedOrigins:     cfg.Server.AllowedOrigins,
			StartRatePerMinute: cfg.Server.StartRatePerMinute,
			Gatherer:           reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return janitor.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.Int("questions", len(c.Questions())),
			zap.Int("nodes", len(c.Nodes())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		exitErr("serve", err)
	}
}
