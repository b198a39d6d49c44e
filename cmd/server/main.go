package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"map18xx.dev/internal/config"
	"map18xx.dev/internal/session"
	"map18xx.dev/internal/tiles"
	"map18xx.dev/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to map18xx.yaml (optional)")
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*addr) != "" {
		cfg.Server.Addr = *addr
	}

	cat, err := tiles.Load(cfg.TileDefsDir)
	if err != nil {
		logger.Fatalf("load tile definitions: %v", err)
	}
	logger.Printf("tile definitions: %d (digest %s)", len(cat.Defs), cat.Digest)

	ctx, cancel := signalContext()
	defer cancel()

	// Optional: read-model index (the log documents stay authoritative).
	idx, err := openRuntimeIndex(cfg, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalog(ctx, "tiledefs", cat); err != nil {
			logger.Printf("index backend: upsert catalog: %v", err)
		}
	}

	store := session.NewStore(cfg, cat, idx, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("close sessions: %v", err)
		}
	}()

	mux := newMux(store, idx, ws.NewServer(store, cfg.Server.MaxQueue, logger), envBool("MAP18XX_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()))
	if envBool("MAP18XX_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (MAP18XX_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
