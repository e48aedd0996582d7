package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendSender implements Sender using the Resend HTTP API.
type ResendSender struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

type resendEmail struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{
		apiKey:   apiKey,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *ResendSender) Send(ctx context.Context, email *Email) (string, error) {
	payload := resendEmail{
		From:    email.From,
		To:      email.To,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		HTML:    email.HTMLBody,
		Text:    email.TextBody,
		Headers: email.Headers,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", ErrSendFailed("resend", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", ErrSendFailed("resend", err)
	}

	var result resendResponse
	_ = json.Unmarshal(body, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := result.Message
		if msg == "" {
			msg = string(body)
		}
		return "", ErrSendFailed("resend", fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	return result.ID, nil
}
