package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/seumatch/seumatch/internal/cache"
	"github.com/seumatch/seumatch/internal/config"
	"github.com/seumatch/seumatch/internal/http/router"
	"github.com/seumatch/seumatch/internal/identity/firebase"
	"github.com/seumatch/seumatch/internal/mail"
	"github.com/seumatch/seumatch/internal/metrics"
	"github.com/seumatch/seumatch/internal/observability/logger"
	"github.com/seumatch/seumatch/internal/push"
	"github.com/seumatch/seumatch/internal/session"
	"github.com/seumatch/seumatch/internal/theme"
)

func main() {
	// .env primero, si existe
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "seumatch",
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	if err := metrics.Register(nil); err != nil {
		lg.Fatal("metrics registration failed", logger.Err(err))
	}

	// Cache local (memory | redis)
	ttl, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
	cacheClient, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: ttl,
	})
	if err != nil {
		lg.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = cacheClient.Close() }()

	userData := cache.NewUserData(cacheClient)
	tabSync := cache.NewTabSync(cacheClient)
	_ = tabSync.Acquire(context.Background(), 24*time.Hour)

	// Proveedor de identidad externo
	provider := firebase.New(firebase.Config{
		APIKey:       cfg.Auth.Provider.APIKey,
		BaseURL:      cfg.Auth.Provider.BaseURL,
		TokenBaseURL: cfg.Auth.Provider.TokenBaseURL,
	})

	manager := session.NewManager(provider, session.Options{
		DomainSuffix: cfg.Auth.DomainSuffix,
		ResolveWait:  cfg.ResolveWaitDuration(),
		Userinfo:     session.NewUserinfoClient(cfg.UserinfoTimeoutDuration()),
		Cache:        userData,
		Sync:         tabSync,
	})
	defer manager.Close()

	// Push
	registrar := push.NewFCM(push.Config{
		Enabled:  cfg.Push.Enabled,
		VapidKey: cfg.Push.VapidKey,
		BaseURL:  cfg.Push.BaseURL,
		APIKey:   cfg.Push.APIKey,
		Project:  "seumatch",
	})

	// Theme
	themes := theme.NewStore(cacheClient, theme.Theme(cfg.Theme.Default))

	// Contact mailer (opcional)
	var contact *mail.ContactMailer
	if cfg.SMTP.Host != "" && cfg.SMTP.ContactTo != "" {
		sender := mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.User, cfg.SMTP.Pass)
		sender.TLSMode = cfg.SMTP.TLS
		contact = mail.NewContactMailer(sender, cfg.SMTP.ContactTo)
	}

	handler := router.New(router.Deps{
		Manager:     manager,
		Cache:       cacheClient,
		Themes:      themes,
		Registrar:   registrar,
		Deliverer:   registrar,
		Contact:     contact,
		ThemeCookie: cfg.Theme.CookieName,
		Secure:      cfg.Auth.Session.Secure,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("server listening", logger.String("addr", cfg.Server.Addr))
		var err error
		if cfg.Server.Autocert.Enabled {
			m := &autocert.Manager{
				Prompt:     autocert.AcceptTOS,
				HostPolicy: autocert.HostWhitelist(cfg.Server.Autocert.Hosts...),
				Cache:      autocert.DirCache(cfg.Server.Autocert.CacheDir),
			}
			srv.TLSConfig = &tls.Config{GetCertificate: m.GetCertificate}
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = tabSync.Release(sctx)
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		lg.Fatal("server failed", logger.Err(err))
	}
}
