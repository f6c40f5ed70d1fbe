package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/honestybar/internal/config"
	"github.com/Skotchmaster/honestybar/internal/filestore"
	"github.com/Skotchmaster/honestybar/internal/httpserver"
	"github.com/Skotchmaster/honestybar/internal/logging"
	loggingmw "github.com/Skotchmaster/honestybar/internal/middleware/logging"
	"github.com/Skotchmaster/honestybar/internal/repo"
	"github.com/Skotchmaster/honestybar/internal/service"
	"github.com/Skotchmaster/honestybar/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	fs := filestore.New(cfg.DataDir)
	userRepo := repo.NewUserRepo(fs)
	productRepo := repo.NewProductRepo(fs)
	cartRepo := repo.NewCartRepo(fs)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := userRepo.Init(ctx); err != nil {
		log.Fatalf("init users store: %v", err)
	}
	if err := productRepo.Init(ctx); err != nil {
		log.Fatalf("init products store: %v", err)
	}
	if err := cartRepo.Init(ctx); err != nil {
		log.Fatalf("init carts store: %v", err)
	}

	issuer := tokens.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	userSvc := &service.UserService{Repo: userRepo, Issuer: issuer, BcryptCost: cfg.BcryptCost}

	created, err := userSvc.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}
	if created {
		logger.Info("bootstrap admin created", "name", cfg.AdminName)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		UserHandler:    &httpserver.UserHTTP{Svc: userSvc},
		ProductHandler: &httpserver.ProductHTTP{Svc: &service.CatalogService{Repo: productRepo}},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: cartRepo, Products: productRepo}},
		Issuer:         issuer,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "data_dir", fs.Dir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
