// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sendramp/sendramp-backend/internal/model"
	"github.com/sendramp/sendramp-backend/internal/repository"
)

// SendJobPublisher is the queue side the handler needs for "send now".
type SendJobPublisher interface {
	PublishSendJob(campaignID int) error
}

// CampaignHandler holds the dependencies for campaign-related HTTP handlers
type CampaignHandler struct {
	Campaigns  repository.CampaignRepositoryInterface
	Recipients repository.RecipientRepositoryInterface
	Publisher  SendJobPublisher
}

func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string     `json:"name"`
		Subject     string     `json:"subject"`
		HTMLBody    string     `json:"html_body"`
		TextBody    string     `json:"text_body"`
		PreviewText string     `json:"preview_text"`
		FromName    string     `json:"from_name"`
		FromEmail   string     `json:"from_email"`
		ReplyTo     string     `json:"reply_to"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Subject == "" {
		http.Error(w, "name and subject are required", http.StatusBadRequest)
		return
	}

	campaign := &model.Campaign{
		Name:        body.Name,
		Status:      model.CampaignStatusDraft,
		Subject:     body.Subject,
		HTMLBody:    body.HTMLBody,
		TextBody:    body.TextBody,
		PreviewText: body.PreviewText,
		FromName:    body.FromName,
		FromEmail:   body.FromEmail,
		ReplyTo:     body.ReplyTo,
		ScheduledAt: body.ScheduledAt,
	}
	if body.ScheduledAt != nil {
		campaign.Status = model.CampaignStatusScheduled
	}

	if err := h.Campaigns.Create(r.Context(), campaign); err != nil {
		http.Error(w, "failed to create campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := h.Campaigns.List(r.Context(), offset, pageSize, status)
	if err != nil {
		http.Error(w, "failed to fetch campaigns: "+err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	writeJSON(w, http.StatusOK, map[string]any{
		"data": campaigns,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}

func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	campaign, err := h.Campaigns.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	stats, err := h.Campaigns.Stats(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to fetch campaign stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": campaign,
		"stats":    stats,
	})
}

func (h *CampaignHandler) AddRecipients(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		Recipients []struct {
			Email     string            `json:"email"`
			Variables map[string]string `json:"variables"`
		} `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	recipients := make([]model.CampaignRecipient, 0, len(body.Recipients))
	for _, rec := range body.Recipients {
		if rec.Email == "" {
			continue
		}
		recipients = append(recipients, model.CampaignRecipient{
			Email:     rec.Email,
			Variables: rec.Variables,
		})
	}

	inserted, err := h.Recipients.CreateBatch(r.Context(), id, recipients)
	if err != nil {
		http.Error(w, "failed to add recipients: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"received": len(body.Recipients),
		"added":    inserted,
	})
}

func (h *CampaignHandler) ScheduleCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ScheduledAt.IsZero() {
		http.Error(w, "scheduled_at is required", http.StatusBadRequest)
		return
	}

	if err := h.Campaigns.Schedule(r.Context(), id, body.ScheduledAt); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": model.CampaignStatusScheduled})
}

// SendCampaign starts sending immediately and hands the campaign to the
// worker's drain loop via the queue.
func (h *CampaignHandler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	if err := h.Campaigns.StartSending(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if err := h.Publisher.PublishSendJob(id); err != nil {
		// The periodic tick will still drain the campaign; the immediate
		// path just could not be queued.
		log.Println("failed to publish send job:", err)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "status": model.CampaignStatusSending})
}

func (h *CampaignHandler) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	if err := h.Campaigns.UpdateStatus(r.Context(), id, model.CampaignStatusPaused); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": model.CampaignStatusPaused})
}

func campaignID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
