package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/fcm"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/notification"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken"
	pushtokenrepo "github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken/repo"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/router"
	userrepo "github.com/ovaphlow/pitchfork/service-push-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-push-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-push-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-push-go")

	cfg, err := config.FromEnv()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	key, err := fcm.ParsePrivateKey(cfg.FirebasePrivateKey)
	if err != nil {
		sugar.Fatalf("firebase private key: %v", err)
	}
	tokens, err := fcm.NewTokenProvider(fcm.ProviderConfig{
		ClientEmail: cfg.FirebaseClientEmail,
		Key:         key,
		TokenURL:    cfg.OAuthTokenURL,
		Logger:      sugar.Named("fcm"),
	})
	if err != nil {
		sugar.Fatalf("token provider: %v", err)
	}
	sender, err := fcm.NewClient(fcm.ClientConfig{
		ProjectID: cfg.FirebaseProjectID,
		BaseURL:   cfg.FCMBaseURL,
		Tokens:    tokens,
		Logger:    sugar.Named("fcm"),
	})
	if err != nil {
		sugar.Fatalf("fcm client: %v", err)
	}

	var secret *auth.SecretChecker
	if cfg.WebhookSecretHash != "" {
		if secret, err = auth.NewSecretChecker(cfg.WebhookSecretHash); err != nil {
			sugar.Fatalf("webhook secret: %v", err)
		}
	} else {
		sugar.Warn("WEBHOOK_SECRET_HASH not set; webhook and prune routes are unauthenticated")
	}

	// init db
	dbCfg := database.ConfigFromEnv()
	db, err := database.Connect(dbCfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	pushTokens := pushtokenrepo.NewPushTokenRepo(db)
	if dbCfg.EnsureSchema {
		if err := pushTokens.EnsureTable(context.Background()); err != nil {
			sugar.Fatalf("ensure push token table: %v", err)
		}
	}
	users := userrepo.NewUserRepo(db)

	notifySvc := notification.NewService(pushTokens, users, sender, notification.Options{
		AndroidChannel: cfg.AndroidChannel,
		DefaultBody:    cfg.DefaultBody,
	}, sugar.Named("notification"))
	tokenSvc := pushtoken.NewService(pushTokens, cfg.TokenRetention, nil, sugar.Named("pushtoken"))
	verifier := auth.NewUserVerifier(cfg.AuthJWTSecret, cfg.AuthAudience, nil)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// mount http server
	handler := router.RegisterRoutes(sugar, router.Handlers{
		Notification: notification.NewHandler(notifySvc, sugar.Named("notification")),
		PushToken:    pushtoken.NewHandler(tokenSvc, verifier, sugar.Named("pushtoken")),
		Secret:       secret,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("service is running", "addr", cfg.HTTPAddr)

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
