// Package notify delivers flag reports to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/quotegrep/quotegrep/pkg/log"
)

// FlagReport is a user report that a search result is wrong or mistimed.
type FlagReport struct {
	SearchTerm string  `json:"searchTerm"`
	Channel    string  `json:"channel"`
	VideoID    string  `json:"videoId"`
	VideoTitle string  `json:"videoTitle"`
	Quote      string  `json:"quote"`
	Timestamp  float64 `json:"timestamp"`
	Feedback   string  `json:"feedback"`
	PageURL    string  `json:"pageUrl"`
}

// VideoURL returns the timestamped watch link for the flagged quote, or ""
// when no video id is present.
func (r FlagReport) VideoURL() string {
	if r.VideoID == "" {
		return ""
	}
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", r.VideoID, int(r.Timestamp))
}

// Discord posts flag reports to a webhook. The webhook URL is swappable at
// runtime for configuration reloads; an empty URL disables delivery.
type Discord struct {
	mu         sync.RWMutex
	webhookURL string
	client     *http.Client
	logger     *log.Logger
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     log.ForComponent("notify"),
	}
}

// SetWebhookURL replaces the webhook destination.
func (d *Discord) SetWebhookURL(url string) {
	d.mu.Lock()
	d.webhookURL = url
	d.mu.Unlock()
}

// Enabled reports whether a webhook destination is configured.
func (d *Discord) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.webhookURL != ""
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// SendFlag delivers one flag report. Returns an error when no webhook is
// configured or Discord rejects the payload.
func (d *Discord) SendFlag(ctx context.Context, report FlagReport) error {
	d.mu.RLock()
	url := d.webhookURL
	d.mu.RUnlock()

	if url == "" {
		return fmt.Errorf("no webhook configured")
	}

	payload := webhookPayload{
		Embeds: []embed{{
			Title: "Quote Flagged",
			Color: 0xE74C3C,
			Fields: []embedField{
				{Name: "Search Term", Value: orNA(report.SearchTerm), Inline: true},
				{Name: "Channel", Value: orNA(report.Channel), Inline: true},
				{Name: "Video Title", Value: orNA(report.VideoTitle)},
				{Name: "Quote", Value: orNA(report.Quote)},
				{Name: "Timestamp", Value: fmt.Sprintf("%.1fs", report.Timestamp), Inline: true},
				{Name: "Video", Value: orNA(report.VideoURL())},
				{Name: "Feedback", Value: orNA(report.Feedback)},
				{Name: "Page URL", Value: orNA(report.PageURL)},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			d.logger.Warnf("closing webhook response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	d.logger.Debugf("delivered flag report for %q", report.SearchTerm)
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
