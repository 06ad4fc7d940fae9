package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"storyhub/internal/api"
	"storyhub/internal/auth"
	"storyhub/internal/bookmark"
	"storyhub/internal/comment"
	"storyhub/internal/config"
	"storyhub/internal/live"
	"storyhub/internal/logging"
	"storyhub/internal/story"
	"storyhub/internal/upload"
	"storyhub/internal/user"
	"storyhub/pkg/database"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to optional YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := logging.Init(logging.Config{Level: cfg.Log.Level, Dev: cfg.Log.Dev})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	if err := run(cfg, sugar); err != nil {
		sugar.Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	if cfg.UsingDefaultSecret() {
		log.Warn("JWT_SECRET not set; signing tokens with the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	log.Infow("database ready", "path", cfg.DatabasePath)

	policy, err := auth.NewPolicy(cfg.OwnershipPolicy)
	if err != nil {
		return err
	}
	log.Infow("ownership policy", "mode", policy.Mode())

	users := user.NewService(user.NewRepo(db))
	if err := bootstrap(ctx, cfg, db, users, log); err != nil {
		return err
	}

	hub := live.NewHub(log.Named("live"))
	go hub.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	srv := api.New(api.Deps{
		Users:     users,
		Stories:   story.NewRepo(db),
		Comments:  comment.NewRepo(db),
		Bookmarks: bookmark.NewRepo(db),
		Issuer:    auth.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL),
		Policy:    policy,
		Uploads:   upload.NewStore(cfg.UploadDir, cfg.UploadMaxBytes),
		Hub:       hub,
		Logger:    log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("HTTP API listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http server shutdown failed", "error", err)
	}
	log.Info("goodbye")
	return nil
}

// bootstrap creates the configured admin account and, when a seed file is
// present, loads its stories under that account.
func bootstrap(ctx context.Context, cfg *config.Config, db *sqlx.DB, users *user.Service, log *zap.SugaredLogger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Info("no admin account configured; skipping admin bootstrap and seeding")
		return nil
	}
	admin, created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	log.Infow("admin account ready", "email", admin.Email, "created", created)

	if cfg.SeedFile == "" {
		return nil
	}
	if _, err := os.Stat(cfg.SeedFile); err != nil {
		log.Infow("seed file not found; skip seeding", "path", cfg.SeedFile)
		return nil
	}
	list, err := database.LoadStoriesFromJSON(cfg.SeedFile)
	if err != nil {
		return err
	}
	n, err := database.SeedStories(ctx, db, admin.ID, list)
	if err != nil {
		return err
	}
	log.Infow("seeded stories", "inserted", n, "path", cfg.SeedFile)
	return nil
}
