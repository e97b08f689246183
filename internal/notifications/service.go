package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mashup/internal/config"
	"mashup/internal/textutil"
)

const userAgent = "mashup/0.1.0"

// Completion summarizes a finished mashup for notification purposes.
type Completion struct {
	Artist    string
	ItemsUsed int
	Requested int
	Duration  time.Duration
	Recipient string
}

// Service defines the notification surface exposed to the CLI and server.
type Service interface {
	NotifyMashupCompleted(ctx context.Context, c Completion) error
	NotifyMashupFailed(ctx context.Context, artist string, err error) error
	NotifyServerStarted(ctx context.Context, bind string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyMashupCompleted(ctx context.Context, c Completion) error {
	artist := textutil.DisplayArtist(c.Artist)
	message := fmt.Sprintf("🎵 %s mashup ready: %d clips, %s", artist, c.ItemsUsed, c.Duration.Round(time.Second))
	tags := []string{"mashup", "completed"}
	if c.Requested > c.ItemsUsed {
		message = fmt.Sprintf("%s (%d of %d requested)", message, c.ItemsUsed, c.Requested)
		tags = append(tags, "shortfall")
	}
	if recipient := strings.TrimSpace(c.Recipient); recipient != "" {
		message = fmt.Sprintf("%s\nSent to: %s", message, recipient)
	}
	return n.send(ctx, payload{
		title:   "Mashup - Complete",
		message: message,
		tags:    tags,
	})
}

func (n *ntfyService) NotifyMashupFailed(ctx context.Context, artist string, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ Mashup failed for ")
	builder.WriteString(textutil.DisplayArtist(artist))
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Mashup - Error",
		message:  builder.String(),
		tags:     []string{"mashup", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyServerStarted(ctx context.Context, bind string) error {
	return n.send(ctx, payload{
		title:    "Mashup - Server Started",
		message:  fmt.Sprintf("Accepting mashup requests on %s", strings.TrimSpace(bind)),
		tags:     []string{"mashup", "server"},
		priority: "low",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Mashup - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"mashup", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyMashupCompleted(context.Context, Completion) error { return nil }
func (noopService) NotifyMashupFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyServerStarted(context.Context, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
