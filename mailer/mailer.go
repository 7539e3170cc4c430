// Package mailer sends transactional template emails.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"caintamart/utils"
)

var ErrDelivery = errors.New("email delivery failed")

// Receipt is what a sender reports back for an accepted email.
type Receipt struct {
	ID     string    `json:"id"`
	Status int       `json:"status"`
	SentAt time.Time `json:"sentAt"`
}

type Sender interface {
	SendTemplateEmail(ctx context.Context, serviceID, templateID string, params map[string]string) (Receipt, error)
}

// HTTPSender posts to an EmailJS-compatible send endpoint.
type HTTPSender struct {
	endpoint  string
	publicKey string
	client    *http.Client
}

func NewHTTPSender(endpoint, publicKey string, client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSender{endpoint: endpoint, publicKey: publicKey, client: client}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (s *HTTPSender) SendTemplateEmail(ctx context.Context, serviceID, templateID string, params map[string]string) (Receipt, error) {
	body, err := json.Marshal(sendRequest{
		ServiceID:      serviceID,
		TemplateID:     templateID,
		UserID:         s.publicKey,
		TemplateParams: params,
	})
	if err != nil {
		return Receipt{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode/100 != 2 {
		return Receipt{Status: resp.StatusCode}, fmt.Errorf("%w: %d %s", ErrDelivery, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return Receipt{ID: utils.GetUUID(), Status: resp.StatusCode, SentAt: time.Now()}, nil
}

// Sent is one email captured by a LogSender.
type Sent struct {
	ServiceID  string
	TemplateID string
	Params     map[string]string
}

// LogSender writes emails to the log instead of delivering them. It is
// used when no endpoint is configured.
type LogSender struct {
	mu   sync.Mutex
	sent []Sent
}

func (s *LogSender) SendTemplateEmail(_ context.Context, serviceID, templateID string, params map[string]string) (Receipt, error) {
	s.mu.Lock()
	s.sent = append(s.sent, Sent{ServiceID: serviceID, TemplateID: templateID, Params: params})
	s.mu.Unlock()
	log.Printf("[mailer] %s to %s (params: %d)", templateID, params["to_email"], len(params))
	return Receipt{ID: utils.GetUUID(), Status: http.StatusOK, SentAt: time.Now()}, nil
}

// Sent returns every email captured so far.
func (s *LogSender) Sent() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.sent...)
}

// New picks the HTTP sender when endpoint is set.
func New(endpoint, publicKey string) Sender {
	if endpoint == "" {
		log.Println("[mailer] EMAIL_ENDPOINT not set; emails will only be logged")
		return &LogSender{}
	}
	return NewHTTPSender(endpoint, publicKey, nil)
}
