// internal/handler/webhook_handler.go
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sendramp/sendramp-backend/internal/repository"
)

// WebhookHandler records provider delivery events onto email_logs so the
// health evaluator sees opens, bounces and complaints.
type WebhookHandler struct {
	Logs     repository.EmailLogRepositoryInterface
	Contacts repository.ContactRepositoryInterface
}

// postmarkEvent is the loose shape shared by Postmark's webhook payloads;
// only the fields this service consumes are decoded.
type postmarkEvent struct {
	RecordType  string     `json:"RecordType"`
	MessageID   string     `json:"MessageID"`
	Recipient   string     `json:"Recipient"`
	Email       string     `json:"Email"`
	DeliveredAt *time.Time `json:"DeliveredAt"`
	BouncedAt   *time.Time `json:"BouncedAt"`
	ReceivedAt  *time.Time `json:"ReceivedAt"`
}

func (e postmarkEvent) occurredAt() time.Time {
	for _, t := range []*time.Time{e.DeliveredAt, e.BouncedAt, e.ReceivedAt} {
		if t != nil && !t.IsZero() {
			return *t
		}
	}
	return time.Now()
}

func (e postmarkEvent) address() string {
	if e.Recipient != "" {
		return e.Recipient
	}
	return e.Email
}

func (h *WebhookHandler) HandlePostmark(w http.ResponseWriter, r *http.Request) {
	var event postmarkEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid webhook payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if event.MessageID == "" {
		http.Error(w, "missing MessageID", http.StatusBadRequest)
		return
	}

	var logEvent string
	switch event.RecordType {
	case "Delivery":
		logEvent = repository.EventDelivered
	case "Open":
		logEvent = repository.EventOpened
	case "Click":
		logEvent = repository.EventClicked
	case "Bounce":
		logEvent = repository.EventBounced
	case "SpamComplaint":
		logEvent = repository.EventComplained
	default:
		// Unknown record types are acknowledged so the provider stops
		// retrying them.
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.Logs.MarkEvent(r.Context(), event.MessageID, logEvent, event.occurredAt()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if event.RecordType == "SpamComplaint" && event.address() != "" {
		if err := h.Contacts.Suppress(r.Context(), event.address(), "spam complaint"); err != nil {
			log.Println("failed to suppress complaining contact:", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}
