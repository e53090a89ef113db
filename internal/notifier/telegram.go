package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/utils"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier posts messages to one chat through the Bot API.
type TelegramNotifier struct {
	Token   string
	ChatID  string
	Retries int
	Delay   time.Duration

	// APIBase defaults to the public Bot API.
	APIBase string
	Client  *http.Client
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates a notifier for chatID that tries each message up to retries times.
func NewTelegramNotifier(token, chatID string, retries int, delay time.Duration) *TelegramNotifier {
	return &TelegramNotifier{
		Token:   token,
		ChatID:  chatID,
		Retries: retries,
		Delay:   delay,
		APIBase: telegramAPI,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts message once. Errors never contain the request URL, which carries the bot token.
func (t *TelegramNotifier) Send(ctx context.Context, message string) error {
	base := t.APIBase
	if base == "" {
		base = telegramAPI
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{
		"chat_id": {t.ChatID},
		"text":    {message},
	}
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram request: %w", redact(err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", redact(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed: %s", resp.Status)
	}
	return nil
}

// redact drops the URL that net/http attaches to transport errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}

// SendWithRetry tries Send up to Retries times, waiting Delay between attempts.
// It stops early when ctx is done.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, message string) error {
	log := utils.Component("notifier")
	attempts := max(t.Retries, 1)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = t.Send(ctx, message); err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", i).Int("attempts", attempts).Msg("telegram send failed")
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.Delay):
		}
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", attempts, err)
}
