// internal/postmark/client.go
package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxBatchSize is Postmark's hard cap on messages per batch call.
const MaxBatchSize = 500

// Per-recipient error codes the dispatcher maps to suppression actions.
// Every other non-zero code is a generic per-recipient failure.
const (
	CodeSuccess           = 0
	CodeInvalidEmail      = 300 // malformed/invalid address
	CodeInactiveRecipient = 406 // previously hard-bounced, provider refuses to send
)

// Message is one email in a batch request.
type Message struct {
	From          string            `json:"From"`
	To            string            `json:"To"`
	Subject       string            `json:"Subject"`
	HTMLBody      string            `json:"HtmlBody,omitempty"`
	TextBody      string            `json:"TextBody,omitempty"`
	ReplyTo       string            `json:"ReplyTo,omitempty"`
	MessageStream string            `json:"MessageStream,omitempty"`
	TrackOpens    bool              `json:"TrackOpens"`
	TrackLinks    string            `json:"TrackLinks,omitempty"`
	Metadata      map[string]string `json:"Metadata,omitempty"`
}

// Result is one element of the batch response, index-aligned to the request.
type Result struct {
	To          string    `json:"To"`
	SubmittedAt time.Time `json:"SubmittedAt"`
	MessageID   string    `json:"MessageID"`
	ErrorCode   int       `json:"ErrorCode"`
	Message     string    `json:"Message"`
}

// Accepted reports whether the provider took the message.
func (r Result) Accepted() bool {
	return r.ErrorCode == CodeSuccess
}

// APIError is a whole-call failure: non-2xx status, no per-recipient results.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postmark: HTTP %d (code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a batch-send client. The timeout bounds the whole call;
// a timed-out batch is reported as a transport error and every recipient in
// it stays eligible to be marked failed by the caller.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SendBatch submits up to MaxBatchSize messages in one API call and returns
// the index-aligned per-recipient results.
func (c *Client) SendBatch(ctx context.Context, messages []Message) ([]Result, error) {
	if len(messages) == 0 {
		return nil, nil
	}
	if len(messages) > MaxBatchSize {
		return nil, fmt.Errorf("postmark: batch of %d exceeds the %d message limit", len(messages), MaxBatchSize)
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var decoded struct {
			ErrorCode int    `json:"ErrorCode"`
			Message   string `json:"Message"`
		}
		if err := json.Unmarshal(payload, &decoded); err == nil {
			apiErr.ErrorCode = decoded.ErrorCode
			apiErr.Message = decoded.Message
		} else {
			apiErr.Message = string(payload)
		}
		return nil, apiErr
	}

	var results []Result
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("postmark: decoding batch response: %w", err)
	}
	if len(results) != len(messages) {
		return nil, fmt.Errorf("postmark: got %d results for %d messages", len(results), len(messages))
	}
	return results, nil
}
