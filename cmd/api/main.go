package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"profilevault/internal/config"
	"profilevault/internal/database"
	"profilevault/internal/domain/asset"
	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/imaging"
	jwtsvc "profilevault/internal/pkg/jwt"
	"profilevault/internal/pkg/storage"
)

func main() {
	config.LoadDotEnv()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	authCfg, err := config.LoadAuthRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}
	storageCfg, err := config.LoadStorageConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db, &user.User{}, &asset.Asset{}, &asset.Version{}); err != nil {
		log.Fatal(err)
	}

	store, err := storage.NewLocalStore(storageCfg.Root)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	generator := imaging.NewGenerator(storageCfg.ImagingOptions())

	userRepo := user.NewRepository(db)
	assetRepo := asset.NewRepository(db)
	assetService := asset.NewService(assetRepo, userRepo, store, generator, *storageCfg)

	r := newRouter(routerDeps{
		tokens:         jwtsvc.New(authCfg.JWTSecret, authCfg.JWTAccessTTL),
		users:          userRepo,
		assets:         assetService,
		maxUploadBytes: storageCfg.MaxUploadBytes,
		sessionCookie:  authCfg.SessionCookie,
		corsOrigins:    strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ","),
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server_start addr=%s env=%s storage_root=%s", addr, authCfg.AppEnv, store.Root())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server_shutdown error=%q", err)
	}
}
