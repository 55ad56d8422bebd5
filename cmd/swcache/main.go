// Command swcache is an offline-capable caching proxy: it serves an origin
// through the swcache strategy engine and keeps the cache version in step
// with its configuration file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdslog "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unkn0wn-root/swcache"
	asynchook "github.com/unkn0wn-root/swcache/hooks/async"
	promhook "github.com/unkn0wn-root/swcache/hooks/prometheus"
	sloghook "github.com/unkn0wn-root/swcache/hooks/slog"
	"github.com/unkn0wn-root/swcache/internal/config"
	"github.com/unkn0wn-root/swcache/internal/proxy"
)

var (
	configFlag    string
	envPrefixFlag string
	hostFlag      string
)

func init() {
	flag.StringVar(&configFlag, "config", "", "YAML config file (watched for version changes)")
	flag.StringVar(&envPrefixFlag, "env-prefix", "SWCACHE", "Environment variable prefix for overrides")
	flag.StringVar(&hostFlag, "host", "", "Host header sent to the origin (defaults to the origin host)")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "swcache:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(envPrefixFlag, configFlag)
	cfg, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	log, flush, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer flush()

	st, versions, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	cd, err := buildCodec(cfg.Cache.Codec, cfg.Cache.MaxEntryBytes)
	if err != nil {
		return err
	}

	var metrics *promhook.Hooks
	if cfg.Metrics.Enabled {
		metrics = promhook.New(nil)
	}
	events := asynchook.New(sloghook.New(stdslog.Default(), sloghook.Options{ServedEvery: 100}), 1, 1024)
	defer events.Close()

	reg, err := swcache.New(swcache.Options{
		Store:               st,
		Codec:               cd,
		Logger:              log,
		Hooks:               fanout{metrics, events},
		Versions:            versions,
		ManualActivation:    cfg.Cache.Activation == "manual",
		PrecacheConcurrency: cfg.Cache.PrecacheConcurrency,
		MaxBodyBytes:        int64(cfg.Cache.MaxEntryBytes),
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := reg.Close(closeCtx); err != nil {
			log.Error("close failed", swcache.Fields{"err": err})
		}
	}()

	wc, err := workerConfig(cfg)
	if err != nil {
		return err
	}
	// a failed install leaves the proxy serving straight from the network;
	// the next config change retries
	if _, err := reg.Register(ctx, wc); err != nil {
		log.Error("initial install failed", swcache.Fields{"version": wc.Version, "err": err})
	}

	if loader.Path() != "" {
		w, err := loader.Watch(ctx, reregister(ctx, reg, log, cfg), func(err error) {
			log.Warn("config reload failed", swcache.Fields{"err": err})
		})
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	origin, _ := cfg.OriginURL()
	handler := newRouter(reg, proxy.New(proxy.Config{
		Origin:    origin,
		Host:      hostFlag,
		Transport: reg,
		Logger:    log,
		Version: func() string {
			if w := reg.Active(); w != nil {
				return w.Version()
			}
			return ""
		},
	}), cfg.Metrics.Path, metricsHandler(cfg.Metrics.Enabled, metrics))

	srv := &http.Server{
		Addr:              cfg.Listen.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("proxying", swcache.Fields{"addr": srv.Addr, "origin": cfg.Origin, "version": cfg.Cache.Version})

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func metricsHandler(enabled bool, h *promhook.Hooks) http.Handler {
	if !enabled {
		return nil
	}
	return h.Handler()
}

// reregister installs the reloaded version when the deployment changed.
// Origin and backend changes need a restart.
func reregister(ctx context.Context, reg *swcache.Registration, log swcache.Logger, initial config.Config) func(config.Config) {
	return func(cfg config.Config) {
		if cfg.Origin != initial.Origin || cfg.Store.Backend != initial.Store.Backend {
			log.Warn("origin or store changed; restart to apply", nil)
		}
		cfg.Origin = initial.Origin
		wc, err := workerConfig(cfg)
		if err != nil {
			log.Warn("invalid reloaded config", swcache.Fields{"err": err})
			return
		}
		if _, err := reg.Register(ctx, wc); err != nil {
			log.Error("install failed", swcache.Fields{"version": wc.Version, "err": err})
		}
	}
}
