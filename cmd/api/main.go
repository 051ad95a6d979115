package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/melih/unbound-panel/internal/adapters/docker"
	"github.com/melih/unbound-panel/internal/adapters/filesystem"
	"github.com/melih/unbound-panel/internal/adapters/http"
	"github.com/melih/unbound-panel/internal/adapters/metrics"
	"github.com/melih/unbound-panel/internal/adapters/probe"
	"github.com/melih/unbound-panel/internal/config"
	"github.com/melih/unbound-panel/internal/core/ports"
)

const version = "0.3.0"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "unbound-panel",
		Short:         "Control panel backend for an Unbound DNS-over-TLS container",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", "panel.toml", "location of the config file, defaults are used if it does not exist")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Fatal("unbound-panel failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("unknown log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(lvl)

	// 1. Adapters
	store := filesystem.NewStore(cfg.ConfigPath, cfg.BackupPath, log.WithField("component", "config"))
	if _, err := store.EnsureBackup(ctx); err != nil {
		log.WithError(err).Warn("initial backup failed")
	}

	// A missing Docker socket is not fatal: the panel still serves and edits
	// the config, it just cannot restart the resolver.
	var resolver ports.ResolverService
	dockerAdapter, err := docker.NewAdapter(docker.Options{
		ContainerName: cfg.ContainerName,
		StatusCommand: cfg.StatusCommand,
		StatsCommand:  cfg.StatsCommand,
		Log:           log.WithField("component", "docker"),
	})
	if err != nil {
		log.WithError(err).Error("docker connection failed")
	} else {
		resolver = dockerAdapter
	}

	var prober ports.Prober
	if p := probe.NewTCP(cfg.ProbeAddress, cfg.ProbeTimeout.Duration); p != nil {
		prober = p
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 2. HTTP handlers
	handler := http.NewPanelHandler(http.HandlerOptions{
		Store:    store,
		Resolver: resolver,
		Prober:   prober,
		Metrics:  metrics.New(reg),
		Log:      log.WithField("component", "http"),
	})

	// 3. Fiber
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.WriterLevel(logrus.DebugLevel)}))

	handler.Routes(app)
	app.Get("/metrics", http.MetricsHandler(reg))

	// 4. Serve until the context is cancelled
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Listen, "version": version}).Info("unbound panel starting")
		errc <- app.Listen(cfg.Listen)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("unbound panel stopping")
	return app.Shutdown()
}
