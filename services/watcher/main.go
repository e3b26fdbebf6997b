package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/config"
	"github.com/zerotwo/solar-watcher/services/watcher/internal/db"
	httpserver "github.com/zerotwo/solar-watcher/services/watcher/internal/http"
	"github.com/zerotwo/solar-watcher/services/watcher/internal/ingest"
	"github.com/zerotwo/solar-watcher/services/watcher/internal/inverter"
	"github.com/zerotwo/solar-watcher/services/watcher/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to an INI config file (default: "+config.DefaultFiles[0]+" or ./"+config.DefaultFiles[1]+")")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("watcher failed: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return err
	}
	defer logging.Close(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := db.New(cfg.DatabaseURL, logger.WithField("component", "store"), db.WithMaxConns(cfg.MaxConns))
	defer store.Close()

	schemaCtx, schemaCancel := context.WithTimeout(ctx, 30*time.Second)
	err = store.EnsureSchema(schemaCtx)
	schemaCancel()
	if err != nil {
		return err
	}

	client := inverter.NewClient(cfg.SolarHost, cfg.SolarUser, cfg.SolarPassword, cfg.RequestTimeout, logger.WithField("component", "inverter"))
	loop := ingest.New(client, store, logger.WithField("component", "ingest"), ingest.Options{
		Interval:         cfg.Interval,
		PricePerKWhCents: cfg.PricePerKWhCents,
		ChartDays:        cfg.ChartDays,
		ChartWidth:       cfg.ChartWidth,
		ChartHeight:      cfg.ChartHeight,
	})
	srv := httpserver.New(cfg.ListenAddr(), loop, store, logger.WithField("component", "http"), nil)

	logger.WithFields(logrus.Fields{
		"inverter": cfg.SolarHost,
		"interval": cfg.Interval,
		"addr":     cfg.ListenAddr(),
	}).Info("solar watcher starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("solar watcher stopped")
	return nil
}
