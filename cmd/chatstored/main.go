package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"chatstore/internal/app"
	"chatstore/pkg/config"
	"chatstore/pkg/groupmeta"
	"chatstore/pkg/logger"
)

// version is set via ldflags during release builds.
var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseFlags()
	cfgPath := config.ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, _, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// explicit flags win over env/config
	addr := cfg.Addr()
	if flags.Set["addr"] {
		addr = flags.Addr
	}

	logger.InitWithLevel(cfg.Logging.Level)

	if cfg.Session.OwnIdentity == "" {
		log.Fatal("session.own_identity is required (or set CHATSTORE_OWN_IDENTITY)")
	}
	if cfg.Session.ProviderURL == "" {
		log.Fatal("session.provider_url is required (or set CHATSTORE_PROVIDER_URL)")
	}
	session := groupmeta.NewHTTPSession(cfg.Session.OwnIdentity, cfg.Session.ProviderURL)

	a := app.New(cfg, addr, version, session)

	ctx, cancel := context.WithCancel(context.Background())
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("signal_received", "signal", s.String())
		cancel()
	}()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
