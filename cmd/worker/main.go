// cmd/worker/main.go
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/sendramp/sendramp-backend/internal/config"
	"github.com/sendramp/sendramp-backend/internal/db"
	"github.com/sendramp/sendramp-backend/internal/postmark"
	"github.com/sendramp/sendramp-backend/internal/queue"
	"github.com/sendramp/sendramp-backend/internal/repository"
	"github.com/sendramp/sendramp-backend/internal/service"
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

	dispatcher := &service.BatchDispatcher{
		Client:     postmark.NewClient(cfg.PostmarkAPIURL, cfg.PostmarkToken),
		Recipients: recipientRepo,
		Cfg:        cfg,
	}

	scheduler := &service.CampaignScheduler{
		Campaigns:  campaignRepo,
		Recipients: recipientRepo,
		Contacts:   contactRepo,
		Dispatcher: dispatcher,
		Warmup:     warmupController,
		BatchSize:  cfg.BatchSize,
	}

	// Send-now jobs drain a campaign continuously.
	consumer, err := queue.NewConsumer(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to queue:", err)
	}
	defer consumer.Close()

	go func() {
		err := consumer.Consume(func(job queue.SendJob) error {
			result, err := scheduler.ProcessCampaign(context.Background(), job.CampaignID)
			if err != nil {
				return err
			}
			log.Printf("drained campaign %d: %d batches, %d sent, %d failed (warmup limited: %v)",
				job.CampaignID, result.Batches, result.Sent, result.Failed, result.WarmupLimited)
			return nil
		})
		if err != nil {
			log.Fatal("queue consumer stopped:", err)
		}
	}()

	// The periodic tick advances every eligible campaign by one batch.
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() { tick(scheduler) }); err != nil {
		log.Fatal("failed to register dispatch tick:", err)
	}

	log.Println("worker running")
	c.Run()
}

func tick(scheduler *service.CampaignScheduler) {
	ctx := context.Background()

	campaigns, err := scheduler.GetCampaignsToProcess(ctx)
	if err != nil {
		log.Println("tick: failed to select campaigns:", err)
		return
	}

	for _, campaign := range campaigns {
		for {
			step, err := scheduler.ProcessCampaignBatch(ctx, campaign.ID)
			if err != nil {
				log.Printf("tick: campaign %d batch failed: %v", campaign.ID, err)
				break
			}
			if step.Sent > 0 || step.Failed > 0 {
				log.Printf("tick: campaign %d: %d sent, %d failed", campaign.ID, step.Sent, step.Failed)
			}
			if step.WarmupLimited || step.Skipped || !step.HasMore {
				break
			}
		}
	}
}
