// sessioncheck is a smoke tool for the session lifecycle against a running
// backend (real or stubapi): it attempts the silent-refresh bootstrap,
// optionally logs in, and prints the resulting session snapshot.
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/medidesk/dashboard/internal/api"
	"github.com/medidesk/dashboard/internal/broadcast"
	"github.com/medidesk/dashboard/internal/config"
	"github.com/medidesk/dashboard/internal/session"
	"github.com/medidesk/dashboard/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	role := flag.String("role", "doctor", "login role: admin or doctor")
	email := flag.String("email", "", "login email (skip to test bootstrap only)")
	password := flag.String("password", "", "login password")
	mfaCode := flag.String("mfa", "", "mfa code for the second login submission")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := session.NewStore()
	client := api.NewClient(cfg.APIBaseURL, store, logger)
	client.SetTimeout(cfg.APITimeout)

	mgr := session.NewManager(store, client, buildBus(ctx, cfg, logger), nil, logger)
	defer mgr.Close()

	fmt.Println("[1] bootstrap (silent refresh)...")
	mgr.Bootstrap(ctx)
	fmt.Printf("    bootstrap state: %v\n", mgr.BootstrapState())

	snap := mgr.Snapshot()
	if snap.State != session.AuthAuthenticated && *email != "" {
		fmt.Printf("[2] logging in as %s...\n", *role)
		var mfaRequired bool
		var err error
		switch *role {
		case "admin":
			mfaRequired, err = mgr.LoginAdmin(ctx, *email, *password, *mfaCode)
		default:
			mfaRequired, err = mgr.LoginDoctor(ctx, *email, *password, *mfaCode)
		}
		if err != nil {
			logger.Error("login failed", "error", err)
			os.Exit(1)
		}
		if mfaRequired {
			fmt.Println("    mfa required: re-run with -mfa <code>")
			os.Exit(2)
		}
	}

	waitForProfile(mgr, 10*time.Second)
	printSnapshot(mgr.Snapshot())
}

func buildBus(ctx context.Context, cfg *config.Config, logger *logging.Logger) broadcast.Bus {
	if cfg.RedisAddr == "" {
		return broadcast.NewNoopBus(logger)
	}
	options := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; cross-instance logout disabled", "error", err)
		return broadcast.NewNoopBus(logger)
	}
	return broadcast.NewRedisBus(client, cfg.BroadcastChannel, logger)
}

func waitForProfile(mgr *session.Manager, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !mgr.Snapshot().Loading {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func printSnapshot(snap session.Snapshot) {
	view := map[string]any{
		"state":               snap.State.String(),
		"bootstrap_attempted": snap.BootstrapAttempted,
		"loading":             snap.Loading,
		"error":               snap.Error,
	}
	if snap.Claims != nil {
		view["role"] = snap.Claims.Role
		view["name"] = snap.Claims.Name
		if snap.Claims.SubjectID != nil {
			view["subject_id"] = *snap.Claims.SubjectID
		}
		if snap.Claims.ClinicID != nil {
			view["clinic_id"] = *snap.Claims.ClinicID
		}
	}
	if snap.Profile != nil {
		if snap.Profile.Doctor != nil {
			view["doctor"] = snap.Profile.Doctor
		}
		if snap.Profile.Clinic != nil {
			view["clinic"] = snap.Profile.Clinic
		}
		if snap.Profile.Admin != nil {
			view["admin"] = snap.Profile.Admin
		}
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	fmt.Println(string(out))
}
