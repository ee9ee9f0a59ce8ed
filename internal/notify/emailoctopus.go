package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/fiftyclub/alerter/internal/scorer"
)

// DefaultBaseURL is the EmailOctopus v1.6 API root.
const DefaultBaseURL = "https://emailoctopus.com/api/1.6"

// Sender identifies the From line on outbound campaigns.
type Sender struct {
	Name  string
	Email string
}

// EmailOctopus is the Mailer backed by the EmailOctopus campaign API.
// Delivery is all-or-nothing per campaign: the API accepts a send for
// the whole list, so the result counts are aggregate.
type EmailOctopus struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	listID     string
	sender     Sender
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewEmailOctopus creates an EmailOctopus client for one list.
func NewEmailOctopus(baseURL, apiKey, listID string, sender Sender, logger *slog.Logger) *EmailOctopus {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailOctopus{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		listID:     listID,
		sender:     sender,
		limiter:    rate.NewLimiter(rate.Limit(2), 3),
		logger:     logger,
	}
}

// SendToList creates a campaign for the alerts and sends it to the full
// list. With zero subscribers no campaign is created and the zero result
// tells the caller nothing was delivered.
func (c *EmailOctopus) SendToList(ctx context.Context, alerts []scorer.PerformanceRecord) (SendResult, error) {
	count, err := c.subscriberCount(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("subscriber count: %w", err)
	}
	if count == 0 {
		c.logger.Info("Subscriber list is empty, skipping campaign")
		return SendResult{}, nil
	}

	campaignID, err := c.createCampaign(ctx, alerts)
	if err != nil {
		return SendResult{Attempted: count, Failed: count}, fmt.Errorf("create campaign: %w", err)
	}
	if err := c.sendCampaign(ctx, campaignID); err != nil {
		return SendResult{Attempted: count, Failed: count}, fmt.Errorf("send campaign %s: %w", campaignID, err)
	}

	c.logger.Info("Campaign accepted", "campaign_id", campaignID, "subscribers", count)
	return SendResult{Attempted: count, Succeeded: count}, nil
}

// subscriberCount queries the list endpoint for the current subscribed
// count.
func (c *EmailOctopus) subscriberCount(ctx context.Context) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	u := fmt.Sprintf("%s/lists/%s?api_key=%s", c.baseURL, c.listID, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("list endpoint returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var list struct {
		Counts struct {
			Subscribed int `json:"subscribed"`
		} `json:"counts"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return 0, fmt.Errorf("decode list response: %w", err)
	}
	return list.Counts.Subscribed, nil
}

// createCampaign builds the campaign content and returns the new
// campaign's ID.
func (c *EmailOctopus) createCampaign(ctx context.Context, alerts []scorer.PerformanceRecord) (string, error) {
	latest := headline(alerts)

	payload := map[string]any{
		"api_key": c.apiKey,
		"name": fmt.Sprintf("NBA50 Alert - %s %dpts - %s",
			latest.Player, latest.Points, time.Now().Format(scorer.DateLayout)),
		"subject": buildSubject(latest),
		"from": map[string]string{
			"name":          c.sender.Name,
			"email_address": c.sender.Email,
		},
		"content": map[string]string{
			"html":       buildHTML(alerts),
			"plain_text": buildPlainText(alerts),
		},
	}

	body, err := c.post(ctx, "/campaigns", payload)
	if err != nil {
		return "", err
	}

	var campaign struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &campaign); err != nil {
		return "", fmt.Errorf("decode campaign response: %w", err)
	}
	if campaign.ID == "" {
		return "", fmt.Errorf("campaign response missing id: %s", truncate(body, 200))
	}
	return campaign.ID, nil
}

// sendCampaign triggers delivery of an existing campaign to the list.
func (c *EmailOctopus) sendCampaign(ctx context.Context, campaignID string) error {
	payload := map[string]any{
		"api_key": c.apiKey,
		"list_id": c.listID,
	}
	_, err := c.post(ctx, "/campaigns/"+campaignID+"/send", payload)
	return err
}

// post performs a rate-limited JSON POST to an EmailOctopus endpoint.
func (c *EmailOctopus) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("EmailOctopus %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
