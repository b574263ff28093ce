package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

const (
	webhookTimeout      = 10 * time.Second
	webhookColorGreen   = 0x2ecc71
	webhookMaxErrorBody = 512
)

type webhookEmbed struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Footer      webhookFooter `json:"footer"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

// WebhookDeliverer 以 Discord 兼容的 embed 格式投递，target 为 webhook 地址
type WebhookDeliverer struct {
	Client *http.Client
}

func NewWebhookDeliverer() *WebhookDeliverer {
	return &WebhookDeliverer{Client: &http.Client{Timeout: webhookTimeout}}
}

func (w *WebhookDeliverer) Deliver(ctx context.Context, target string, opp collector.Opportunity) error {
	payload := webhookPayload{Embeds: []webhookEmbed{{
		Title:       "🎯 " + opp.Title,
		URL:         opp.Link,
		Description: describe(opp),
		Color:       webhookColorGreen,
		Footer:      webhookFooter{Text: "Apply now!"},
	}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, webhookMaxErrorBody))
		return fmt.Errorf("webhook: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
