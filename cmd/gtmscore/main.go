package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gtmscore/gtmscore/internal/api"
	"github.com/gtmscore/gtmscore/internal/config"
	"github.com/gtmscore/gtmscore/internal/email"
	"github.com/gtmscore/gtmscore/internal/events"
	"github.com/gtmscore/gtmscore/internal/health"
	"github.com/gtmscore/gtmscore/internal/report"
	"github.com/gtmscore/gtmscore/internal/scoring"
	"github.com/gtmscore/gtmscore/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "config/config.yaml", "Configuration file path")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("gtmscore version %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	log.Printf("Starting gtmscore v%s (commit: %s, built: %s)", version, commit, date)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Metric bundles are loaded once and validated before the gateway
	// accepts any traffic. A malformed table must stop the process.
	bundles := scoring.DefaultBundles()
	if cfg.Scoring.BundlesPath != "" {
		bundles, err = scoring.LoadBundles(cfg.Scoring.BundlesPath)
		if err != nil {
			log.Fatalf("Failed to load metric bundles: %v", err)
		}
	}
	engine := scoring.NewEngine(bundles)

	submissionStore, err := store.NewFileStore(cfg.StoreConfig())
	if err != nil {
		log.Fatalf("Failed to initialize submission store: %v", err)
	}

	renderer := report.NewRenderer(cfg.Renderer())

	checker := health.NewHealthChecker()
	checker.Register(health.CheckFunc{CheckName: "store", Fn: submissionStore.Ping})

	var notifier api.Notifier
	if cfg.Email.Host != "" {
		svc, err := email.NewService(cfg.EmailService())
		if err != nil {
			log.Fatalf("Failed to initialize email service: %v", err)
		}
		checker.Register(health.CheckFunc{CheckName: "email", Fn: svc.Ping})
		notifier = svc
	} else {
		log.Printf("No SMTP host configured, submission notifications disabled")
	}

	var publisher api.EventPublisher
	if len(cfg.Events.Brokers) > 0 {
		kafkaPub, err := events.NewKafkaPublisher(cfg.Kafka())
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
		defer kafkaPub.Close()
		checker.Register(health.CheckFunc{CheckName: "kafka", Fn: kafkaPub.Ping})
		publisher = kafkaPub
	} else {
		log.Printf("No Kafka brokers configured, submission events disabled")
	}

	gateway := api.NewGateway(cfg.Gateway(), engine, submissionStore, renderer, notifier, publisher, checker)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gateway.Start()
	}()

	waitForShutdown(gateway, errCh)
}

func waitForShutdown(gateway *api.Gateway, errCh chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Gateway failed: %v", err)
	case <-sigChan:
		log.Println("Shutdown signal received, stopping services...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		log.Printf("Error during gateway shutdown: %v", err)
	}

	log.Println("gtmscore stopped")
}
