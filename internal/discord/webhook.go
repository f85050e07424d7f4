package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Embed is a Discord message embed
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField is a name/value row of an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedImage is an embed image reference
type EmbedImage struct {
	URL string `json:"url"`
}

// Webhook posts messages to a channel webhook; an empty URL disables it
type Webhook struct {
	URL    string
	client *http.Client
}

// NewWebhook creates a webhook sender
func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, client: &http.Client{Timeout: 5 * time.Second}}
}

// Send posts the embeds
func (w *Webhook) Send(ctx context.Context, content string, embeds ...Embed) error {
	if w == nil || w.URL == "" {
		return nil
	}
	body, err := json.Marshal(map[string]any{"content": content, "embeds": embeds})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
