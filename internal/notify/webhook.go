package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Webhook posts JSON to the notification address. Slack and Discord get their
// native message shape; anything else gets the full Message.
type Webhook struct {
	Client *http.Client
}

func NewWebhook() *Webhook {
	return &Webhook{Client: &http.Client{Timeout: 10 * time.Second}}
}

type slackPayload struct {
	Text string `json:"text"`
}

type discordPayload struct {
	Content string `json:"content"`
}

func (w *Webhook) Send(ctx context.Context, to domain.Notification, msg Message) error {
	if to.Address == "" {
		return fmt.Errorf("%s: empty webhook url", to.Type)
	}
	var payload any
	switch to.Type {
	case domain.ChannelSlack:
		payload = slackPayload{Text: "*" + msg.Title + "*\n" + msg.Text}
	case domain.ChannelDiscord:
		payload = discordPayload{Content: "**" + msg.Title + "**\n" + msg.Text}
	default:
		payload = msg
	}
	return postJSON(ctx, w.Client, to.Address, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("post %s: non-2xx status %d", req.URL.Host, resp.StatusCode)
	}
	return nil
}
