package messenger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tartampluch/go-wishes/internal/config"
)

// Webhook posts the greeting as multipart/form-data to an HTTP gateway
// (a WhatsApp Business relay, a Twilio function, ...). Fields: phone,
// caption and the image file part.
type Webhook struct {
	URL    string
	Token  string
	Client *http.Client
}

// NewWebhook returns a webhook transport with the default HTTP timeout.
func NewWebhook(url, token string) *Webhook {
	return &Webhook{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// Name implements Messenger.
func (w *Webhook) Name() string { return config.MessengerWebhook }

// Send implements Messenger. Any non-2xx response is a failure.
func (w *Webhook) Send(ctx context.Context, phone, imagePath, caption string) error {
	body, contentType, err := buildForm(phone, imagePath, caption)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, body)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrWebhookRequest, err)
	}
	req.Header.Set(config.HeaderContentType, contentType)
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	if w.Token != "" {
		req.Header.Set(config.HeaderAuthorization, config.BearerPrefix+w.Token)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrWebhookRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, config.ErrorBodySnippet))
		return fmt.Errorf("%s: %d %s", config.ErrWebhookStatus, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	slog.Info(config.MsgMessageSent,
		config.LogKeyComponent, config.CompMessenger,
		config.LogKeyTransport, config.MessengerWebhook,
		config.LogKeyPhone, phone,
		config.LogKeyStatus, resp.StatusCode)
	return nil
}

func buildForm(phone, imagePath, caption string) (*bytes.Buffer, string, error) {
	img, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", config.ErrImageRead, err)
	}
	defer func() { _ = img.Close() }()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField(config.FormFieldPhone, phone); err != nil {
		return nil, "", err
	}
	if err := form.WriteField(config.FormFieldCaption, caption); err != nil {
		return nil, "", err
	}
	part, err := form.CreateFormFile(config.FormFieldImage, filepath.Base(imagePath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, img); err != nil {
		return nil, "", fmt.Errorf("%s: %w", config.ErrImageRead, err)
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &buf, form.FormDataContentType(), nil
}
