// Command prune deletes inactive push tokens older than the retention
// window and exits. Meant to run from cron.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken"
	pushtokenrepo "github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken/repo"
	"github.com/ovaphlow/pitchfork/service-push-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-push-go/pkg/utilities"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load if present")
	retention := pflag.Duration("retention", 0, "keep inactive tokens newer than this (default PUSH_TOKEN_RETENTION or 168h)")
	timeout := pflag.Duration("timeout", 30*time.Second, "abort the prune after this long")
	pflag.Parse()

	_ = godotenv.Load(*envFile)

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	window := *retention
	if window <= 0 {
		if window, err = config.RetentionFromEnv(); err != nil {
			sugar.Fatalf("config: %v", err)
		}
	}

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := pushtoken.NewService(pushtokenrepo.NewPushTokenRepo(db), window, nil, sugar.Named("pushtoken"))
	n, err := svc.Prune(ctx)
	if err != nil {
		sugar.Errorf("prune failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("removed %d inactive push tokens\n", n)
}
