package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexfinity/hosting-gateway/internal/config"
	"github.com/nexfinity/hosting-gateway/internal/db"
	"github.com/nexfinity/hosting-gateway/internal/http"
	"github.com/nexfinity/hosting-gateway/internal/mail"
	"github.com/nexfinity/hosting-gateway/internal/repository"
	"github.com/nexfinity/hosting-gateway/internal/service"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

func main() {
	log.Println("Starting Hosting Gateway...")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	pool, err := db.NewPool(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Initialize repositories
	accountRepo := repository.NewHostingAccountRepository(pool)
	promotionRepo := repository.NewPromotionRepository(pool)

	// Initialize upstream clients
	panelClient := upstream.NewPanelClient(cfg.Panel.BaseURL, cfg.Panel.APIKey)
	registrarClient := upstream.NewRegistrarClient(
		cfg.Registrar.BaseURL,
		cfg.Registrar.APIUser,
		cfg.Registrar.APIKey,
		cfg.Registrar.ClientIP,
	)
	resellerClient := upstream.NewResellerClient(
		cfg.Reseller.APIBaseURL,
		cfg.Reseller.PanelBaseURL,
		cfg.Reseller.APIUser,
		cfg.Reseller.APIKey,
	)

	// Notifications are optional: without SMTP config no mailer is wired
	// and deploy notifications fall through to the webhook only.
	notify := service.NewNotificationFanout(
		nil,
		upstream.NewDiscordClient(),
		cfg.Notify.DefaultEmail,
		cfg.Notify.DiscordWebhook,
	)
	if cfg.SMTP.Host != "" {
		mailer := mail.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.FromName)
		notify = service.NewNotificationFanout(
			mailer,
			upstream.NewDiscordClient(),
			cfg.Notify.DefaultEmail,
			cfg.Notify.DiscordWebhook,
		)
	}

	// Initialize services
	resolver := service.NewUserResolutionService(panelClient)
	deployService := service.NewDeployService(resolver, panelClient, notify, cfg.Panel.DefaultAllocation)
	domainService := service.NewDomainService(registrarClient)
	hostingService := service.NewHostingService(resellerClient, accountRepo)
	vistaService := service.NewVistaService(cfg.VistaPanel.BaseURL)
	promotionService := service.NewPromotionService(promotionRepo)
	catalogService := service.NewCatalogService(promotionService)

	// Initialize HTTP server
	server := http.NewServer(cfg, deployService, domainService, hostingService, vistaService, promotionService, catalogService)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("Server starting on %s", addr)
		if err := server.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server exited")
}
