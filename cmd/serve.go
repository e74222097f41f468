package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/quotegrep/quotegrep/pkg/analytics"
	"github.com/quotegrep/quotegrep/pkg/api"
	"github.com/quotegrep/quotegrep/pkg/log"
	"github.com/quotegrep/quotegrep/pkg/notify"
	"github.com/quotegrep/quotegrep/pkg/quotes"
	"github.com/quotegrep/quotegrep/pkg/realtime"
	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override the listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the listen port",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("host"), c.Int("port"))
		},
	}
}

func serve(ctx context.Context, configPath, hostOverride string, portOverride int) error {
	logger := log.ForComponent("serve")

	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return err
	}
	if hostOverride != "" {
		cfg.Server.Host = hostOverride
	}
	if portOverride != 0 {
		cfg.Server.Port = portOverride
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	// Warm-up is best effort; the pool still serves on demand if it fails
	warmupCtx, warmupCancel := context.WithTimeout(ctx, cfg.Pool.ConnectTimeout.Duration)
	if err := st.Warmup(warmupCtx); err != nil {
		logger.Warnf("database warm-up failed: %v", err)
	}
	warmupCancel()

	compiler := quotes.NewCompiler(cfg.Channels)
	executor := quotes.NewExecutor(st, compiler, quotes.ExecutorConfig{
		AcquireTimeout:    cfg.Timeouts.Acquire.Duration,
		DataQueryTimeout:  cfg.Timeouts.DataQuery.Duration,
		CountQueryTimeout: cfg.Timeouts.CountQuery.Duration,
	})
	notifier := notify.NewDiscord(cfg.DiscordWebhookURL)
	hub := realtime.NewHub(32)
	recorder := analytics.NewRecorder(st.DB())

	server := api.NewServer(executor, st, recorder, notifier, hub)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	handler := api.GzipMiddleware(
		api.SecurityMiddleware(
			api.RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)(
				api.CorsMiddleware(mux))))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Watch the config file so channel and webhook changes apply without a
	// restart.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("creating config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("closing config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("watching config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
	}

	reload := func() {
		newCfg, err := loadConfigOrDefault(configPath)
		if err != nil {
			logger.Errorf("reloading config: %v", err)
			return
		}
		compiler.SetChannels(newCfg.Channels)
		notifier.SetWebhookURL(newCfg.DiscordWebhookURL)
		server.InvalidateGamesCache()
		logger.Infof("configuration reloaded: %d channels", len(newCfg.Channels))
	}

	// Nil channels block forever in select, which is exactly what we want
	// when the watcher could not be created.
	var watchEvents <-chan fsnotify.Event
	var watchErrors <-chan error
	if watcher != nil {
		watchEvents = watcher.Events
		watchErrors = watcher.Errors
	}

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Infof("received SIGHUP, reloading configuration")
				reload()
			case syscall.SIGINT, syscall.SIGTERM:
				logger.Infof("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		case event := <-watchEvents:
			// Editors often replace files atomically, so rename and remove
			// count as changes too.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						logger.Warnf("config file removed, keeping current configuration")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						logger.Warnf("re-watching config file: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}
				logger.Infof("config file changed (%s), reloading", event.Op)
				reload()
			}
		case err := <-watchErrors:
			logger.Warnf("config file watcher error: %v", err)
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	}
}
