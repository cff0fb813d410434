package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/leakradar/internal/app"
	"github.com/sawpanic/leakradar/internal/config"
	httpserver "github.com/sawpanic/leakradar/internal/interfaces/http"
	"github.com/sawpanic/leakradar/internal/snapshot"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule",
		Long:  "Daemon mode: executes a full pass on the configured cron expression, serves /metrics, and reloads the yaml config between passes when the file changes.",
		RunE:  runSchedule,
	}
	cmd.Flags().String("cron", "", "Override the configured cron expression")
	return cmd
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := setupFromFlags(cmd)
	if err != nil {
		return err
	}

	spec := cfg.Schedule
	if override, _ := cmd.Flags().GetString("cron"); override != "" {
		spec = override
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cache := snapshot.New(cfg.RedisAddr)
	defer cache.Close()

	// Config is reloaded between passes, never mid-pass: the pointer swaps
	// atomically and each pass reads it once.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	configPath, _ := cmd.Flags().GetString("config")
	watcher := watchConfig(configPath, &current)
	if watcher != nil {
		defer watcher.Close()
	}

	server := httpserver.NewServer(cfg.ListenAddr)
	go server.Start()
	defer server.Shutdown(context.Background())

	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		cfg := current.Load()
		pipeline := app.NewPipeline(cfg, store, app.WithCache(cache), app.WithCodeSHA(buildSHA))
		if _, err := pipeline.Run(cmd.Context()); err != nil {
			log.Error().Err(err).Msg("scheduled pass failed")
		}
	})
	if err != nil {
		return err
	}

	log.Info().Str("cron", spec).Msg("scheduler started")
	c.Start()
	defer c.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("scheduler shutting down")
	return nil
}

// watchConfig swaps in a freshly validated config whenever the yaml file
// changes. A config that fails to load keeps the previous one active.
func watchConfig(path string, current *atomic.Pointer[config.Config]) *fsnotify.Watcher {
	if path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("config watch unavailable")
		return nil
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Warn().Err(err).Msg("config watch unavailable")
		watcher.Close()
		return nil
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := config.Load(path)
				if err != nil {
					log.Warn().Err(err).Msg("config reload rejected")
					continue
				}
				current.Store(cfg)
				log.Info().Str("config_sha", cfg.Hash()).Msg("config reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("config watch error")
			}
		}
	}()
	return watcher
}
