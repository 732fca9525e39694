package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/slatedash/slate/internal/admin"
	"github.com/slatedash/slate/internal/cache"
	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/feeds"
	"github.com/slatedash/slate/internal/hub"
	"github.com/slatedash/slate/internal/metrics"
	"github.com/slatedash/slate/internal/middleware"
	"github.com/slatedash/slate/internal/render"
	"github.com/slatedash/slate/internal/server"
	"github.com/slatedash/slate/internal/state"
	"github.com/slatedash/slate/internal/status"
	"github.com/slatedash/slate/internal/watch"
	"github.com/slatedash/slate/internal/widget"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Slate starting...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d top-level component(s), %d theme(s)", len(cfg.Components), len(cfg.ThemeNames()))
	if cfg.RateLimit.Enabled {
		log.Printf("  [feature] Rate limiting enabled (%d req/min, burst %d)", cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
	}
	if cfg.Server.Password != "" {
		log.Printf("  [feature] Dashboard password protection enabled")
	}
	log.Printf("  [feature] Response caching enabled (%d entries, TTL %ds)", cfg.Cache.MaxEntries, cfg.Cache.TTLSec)
	log.Printf("  [feature] Status checking every %ds (timeout %ds)", cfg.StatusCheck.IntervalSec, cfg.StatusCheck.TimeoutSec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	store := state.NewStore(cfg.Server.StateFile)
	responseCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTLSec)
	responseCache.OnHit(m.RecordCacheHit)
	responseCache.OnMiss(m.RecordCacheMiss)

	checker := status.NewChecker(cfg.StatusCheck, m)
	go checker.Run(ctx)

	h := hub.NewHub()
	go h.Run()

	newSession := func(cfg *config.Config) (*render.Session, *feeds.Registry) {
		fr := feeds.NewRegistry(cfg.Services, responseCache, nil)
		env := &widget.Env{
			State:   store,
			Feeds:   fr,
			Status:  checker,
			Metrics: m,
			Themes:  cfg.ThemeNames(),
		}
		session := render.NewSession(cfg, widget.NewLoader(env), store, checker)
		session.OnFragment(h.BroadcastFragment)
		return session, fr
	}

	session, feedRegistry := newSession(cfg)
	session.Render()
	srv := server.NewHandler(cfg, session, feedRegistry, store, checker, m, h)

	// Hot reload: swap the config, session and feed registry, tear
	// down the old widgets and tell connected browsers to refresh.
	var reloadMu sync.Mutex
	reloadFunc := func() error {
		reloadMu.Lock()
		defer reloadMu.Unlock()

		newCfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		checker.Reset()
		next, nextFeeds := newSession(newCfg)
		next.Render()

		old := session
		session = next
		srv.Swap(newCfg, next, nextFeeds)
		old.Close()

		h.BroadcastReload()
		log.Printf("Configuration reloaded successfully")
		return nil
	}

	router := mux.NewRouter()
	srv.RegisterRoutes(router)

	adminHandler := admin.NewHandler(m, checker, func() admin.Stats {
		c, f, ws := srv.Stats()
		return admin.Stats{Components: c, Fragments: f, WSClients: ws}
	}, reloadFunc)
	adminHandler.RegisterRoutes(router)

	// Watch the config file so edits apply without a restart.
	watcher := watch.NewConfig(*configPath, func() {
		if err := reloadFunc(); err != nil {
			log.Printf("Config reload failed: %v", err)
		}
	})
	go watcher.Run(ctx)

	// Build middleware chain (applied in reverse order)
	var handler http.Handler = router
	handler = middleware.Logging(m)(handler)
	handler = middleware.RequestID(handler)
	if cfg.RateLimit.Enabled {
		handler = middleware.RateLimit(cfg.RateLimit)(handler)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
		IdleTimeout:  120 * time.Second,
	}

	// Signal handling: SIGINT/SIGTERM for shutdown, SIGHUP for config reload
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Printf("Received SIGHUP, reloading configuration...")
				if err := reloadFunc(); err != nil {
					log.Printf("Config reload failed: %v", err)
				}
			case syscall.SIGINT, syscall.SIGTERM:
				log.Printf("Shutting down gracefully...")
				cancel()
				reloadMu.Lock()
				session.Close()
				reloadMu.Unlock()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)
				return
			}
		}
	}()

	log.Printf("Slate listening on %s", cfg.Server.ListenAddr)
	log.Printf("  GET  http://localhost%s/", cfg.Server.ListenAddr)
	log.Printf("  GET  http://localhost%s/api/fragments", cfg.Server.ListenAddr)
	log.Printf("  GET  http://localhost%s/api/status", cfg.Server.ListenAddr)
	log.Printf("  GET  http://localhost%s/health", cfg.Server.ListenAddr)
	log.Printf("  GET  http://localhost%s/metrics", cfg.Server.ListenAddr)
	log.Printf("  POST http://localhost%s/admin/reload", cfg.Server.ListenAddr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
