package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"DesignCatalog/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// maxMessageLength is Telegram's limit for one text message.
	maxMessageLength = 4096
)

// Notifier sends run digests to a Telegram chat via the Bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. An empty apiBase
// targets the public Bot API.
func NewNotifier(botToken, chatID, apiBase string) *Notifier {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  strings.TrimRight(apiBase, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// PublishDigest posts the digest as plain text. Digests longer than one
// message are split on blank lines and sent in order.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	parts := splitMessage(strings.TrimSpace(digest), maxMessageLength)
	for i, part := range parts {
		if err := n.send(ctx, part); err != nil {
			return fmt.Errorf("send part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var decoded apiResponse
	if jsonErr := json.Unmarshal(body, &decoded); jsonErr == nil && !decoded.OK && decoded.Description != "" {
		return fmt.Errorf("telegram error %d: %s", decoded.ErrorCode, decoded.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit runes, preferring
// paragraph then line boundaries. Empty text yields no chunks.
func splitMessage(text string, limit int) []string {
	var parts []string
	for text != "" {
		runes := []rune(text)
		if len(runes) <= limit {
			parts = append(parts, text)
			break
		}
		head := string(runes[:limit])
		cut := strings.LastIndex(head, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(head, "\n")
		}
		if cut <= 0 {
			cut = len(head)
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	return parts
}
