package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	accountsvc "orfin/internal/account/service"
	accountstore "orfin/internal/account/store"
	"orfin/internal/audit"
	categorysvc "orfin/internal/category/service"
	categorystore "orfin/internal/category/store"
	"orfin/internal/jwttoken"
	"orfin/internal/platform/config"
	"orfin/internal/platform/httpserver"
	"orfin/internal/platform/logger"
	"orfin/internal/platform/metrics"
	platformpg "orfin/internal/platform/postgres"
	profilesvc "orfin/internal/profile/service"
	profilestore "orfin/internal/profile/store"
	"orfin/internal/tenant"
	transport "orfin/internal/transport/http"
	usersvc "orfin/internal/user/service"
	userstore "orfin/internal/user/store"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		users      usersvc.Store
		profiles   profilesvc.Store
		categories categorysvc.Store
		accounts   accountsvc.Store
		events     audit.Store
	)

	if cfg.DatabaseURL != "" {
		db, err := platformpg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			return err
		}
		defer func() { _ = db.Close() }()
		if err := platformpg.Migrate(ctx, db); err != nil {
			log.Error("failed to migrate schema", "error", err)
			return err
		}
		users = userstore.NewPostgres(db)
		profiles = profilestore.NewPostgres(db)
		categories = categorystore.NewPostgres(db)
		accounts = accountstore.NewPostgres(db)
		events = audit.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		users = userstore.NewInMemory()
		profiles = profilestore.NewInMemory()
		categories = categorystore.NewInMemory()
		accounts = accountstore.NewInMemory()
		events = audit.NewInMemory()
		log.Info("using in-memory stores")
	}

	publisher := audit.NewPublisher(events, log)

	userService := usersvc.New(users,
		usersvc.WithLogger(log), usersvc.WithMetrics(m), usersvc.WithAudit(publisher))
	profileService := profilesvc.New(profiles,
		profilesvc.WithLogger(log), profilesvc.WithMetrics(m), profilesvc.WithAudit(publisher))
	categoryService := categorysvc.New(categories,
		categorysvc.WithLogger(log), categorysvc.WithMetrics(m), categorysvc.WithAudit(publisher))
	accountService := accountsvc.New(accounts,
		accountsvc.WithLogger(log), accountsvc.WithMetrics(m), accountsvc.WithAudit(publisher))

	tokens := jwttoken.New(cfg.JWTSigningKey, "orfin")
	resolver := tenant.NewResolver(profiles)

	handler := transport.NewHandler(userService, profileService, categoryService, accountService,
		tokens, resolver, log)
	server := httpserver.New(cfg, handler.Router())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		return err
	}
	return nil
}
