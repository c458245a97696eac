// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/sendramp/sendramp-backend/internal/config"
	"github.com/sendramp/sendramp-backend/internal/db"
	"github.com/sendramp/sendramp-backend/internal/handler"
	"github.com/sendramp/sendramp-backend/internal/queue"
	"github.com/sendramp/sendramp-backend/internal/repository"
	"github.com/sendramp/sendramp-backend/internal/warmup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("configuration error:", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	recipientRepo := &repository.RecipientRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}
	warmupRepo := &repository.WarmupRepository{DB: conn}
	emailLogRepo := &repository.EmailLogRepository{DB: conn}

	warmupController := warmup.NewController(warmupRepo, warmup.NewHealthEvaluator(emailLogRepo))

	publisher, err := queue.NewPublisher(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to queue:", err)
	}
	defer publisher.Close()

	campaignHandler := &handler.CampaignHandler{
		Campaigns:  campaignRepo,
		Recipients: recipientRepo,
		Publisher:  publisher,
	}
	warmupHandler := &handler.WarmupHandler{Controller: warmupController}
	webhookHandler := &handler.WebhookHandler{Logs: emailLogRepo, Contacts: contactRepo}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignHandler.CreateCampaign)
	r.Get("/campaigns", campaignHandler.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaign)
	r.Post("/campaigns/{id}/recipients", campaignHandler.AddRecipients)
	r.Post("/campaigns/{id}/schedule", campaignHandler.ScheduleCampaign)
	r.Post("/campaigns/{id}/send", campaignHandler.SendCampaign)
	r.Post("/campaigns/{id}/pause", campaignHandler.PauseCampaign)

	// Warmup admin routes
	r.Get("/warmup", warmupHandler.Status)
	r.Get("/warmup/schedule", warmupHandler.Schedule)
	r.Post("/warmup/start", warmupHandler.Start)
	r.Post("/warmup/pause", warmupHandler.Pause)
	r.Post("/warmup/resume", warmupHandler.Resume)
	r.Post("/warmup/advance", warmupHandler.Advance)

	// Provider webhook
	r.Post("/webhooks/postmark", webhookHandler.HandlePostmark)

	log.Println("server running on", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}
