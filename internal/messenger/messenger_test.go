package messenger_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/messenger"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

var fakePNG = []byte("\x89PNG\r\n\x1a\nnot-really-an-image")

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "birthday_Ann.png")
	require.NoError(t, os.WriteFile(path, fakePNG, 0o600))
	return path
}

// -----------------------------------------------------------------------------
// New
// -----------------------------------------------------------------------------

func TestNew_SelectsTransport(t *testing.T) {
	tests := []struct {
		name     string
		settings config.MessengerSettings
		want     string
		wantErr  bool
	}{
		{"Default", config.MessengerSettings{}, config.MessengerDryRun, false},
		{"Webhook", config.MessengerSettings{Kind: "webhook", WebhookURL: "https://x"}, config.MessengerWebhook, false},
		{"Webhook without URL", config.MessengerSettings{Kind: "webhook"}, "", true},
		{"SMTP", config.MessengerSettings{Kind: "SMTP", SMTPHost: "mail", Gateway: "mms.example"}, config.MessengerSMTP, false},
		{"SMTP without gateway", config.MessengerSettings{Kind: "smtp", SMTPHost: "mail"}, "", true},
		{"iMessage", config.MessengerSettings{Kind: "imessage"}, config.MessengerIMessage, false},
		{"Unknown", config.MessengerSettings{Kind: "pigeon"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := messenger.New(tt.settings, "secret")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Name())
		})
	}

	_, err := messenger.New(config.MessengerSettings{Kind: "pigeon"}, "")
	assert.ErrorIs(t, err, messenger.ErrUnknownKind)
}

func TestKinds_AreAllAccepted(t *testing.T) {
	s := config.MessengerSettings{WebhookURL: "https://x", SMTPHost: "mail", Gateway: "mms.example"}
	for _, kind := range messenger.Kinds() {
		s.Kind = kind
		m, err := messenger.New(s, "")
		require.NoError(t, err, kind)
		assert.Equal(t, kind, m.Name())
	}
}

func TestDryRun_HonoursCancellation(t *testing.T) {
	assert.NoError(t, messenger.DryRun{}.Send(context.Background(), "1", "x.png", "hi"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, messenger.DryRun{}.Send(ctx, "1", "x.png", "hi"), context.Canceled)
}

// -----------------------------------------------------------------------------
// Webhook
// -----------------------------------------------------------------------------

func TestWebhook_PostsMultipartForm(t *testing.T) {
	var (
		gotPhone, gotCaption, gotAuth, gotFile string
		gotImage                               []byte
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPhone = r.FormValue("phone")
		gotCaption = r.FormValue("caption")
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		gotFile = hdr.Filename
		gotImage, _ = io.ReadAll(f)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	hook := messenger.NewWebhook(ts.URL, "tok3n")
	err := hook.Send(context.Background(), "+33 6 12", writeImage(t), "Happy Birthday Ann!\nLine 2")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok3n", gotAuth)
	assert.Equal(t, "+33 6 12", gotPhone)
	assert.Equal(t, "Happy Birthday Ann!\nLine 2", gotCaption)
	assert.Equal(t, "birthday_Ann.png", gotFile)
	assert.Equal(t, fakePNG, gotImage)
}

func TestWebhook_Failures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	err := messenger.NewWebhook(ts.URL, "").Send(context.Background(), "1", writeImage(t), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")

	err = messenger.NewWebhook(ts.URL, "").Send(context.Background(), "1", filepath.Join(t.TempDir(), "missing.png"), "hi")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// -----------------------------------------------------------------------------
// SMTP
// -----------------------------------------------------------------------------

type smtpBackend struct {
	mu       sync.Mutex
	from     string
	to       []string
	messages [][]byte
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{backend: b}, nil
}

type smtpSession struct {
	backend *smtpBackend
}

func (s *smtpSession) Reset()        {}
func (s *smtpSession) Logout() error { return nil }

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.from = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.to = append(s.backend.to, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.messages = append(s.backend.messages, data)
	return nil
}

func startSMTP(t *testing.T) (*smtpBackend, string, int) {
	t.Helper()
	be := &smtpBackend{}
	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	addr := l.Addr().(*net.TCPAddr)
	return be, addr.IP.String(), addr.Port
}

func TestSMTP_Recipient(t *testing.T) {
	m := &messenger.SMTP{Gateway: "@mms.example.net"}

	to, err := m.Recipient("+1 (555) 010-0199")
	require.NoError(t, err)
	assert.Equal(t, "15550100199@mms.example.net", to)

	_, err = m.Recipient("n/a")
	assert.Error(t, err)
}

func TestSMTP_SendsCaptionAndAttachment(t *testing.T) {
	be, host, port := startSMTP(t)
	m := &messenger.SMTP{
		Host:     host,
		Port:     port,
		Security: config.SMTPSecurityNone,
		From:     "wishes@example.org",
		Gateway:  "mms.example.net",
	}

	caption := "🎉 Happy Birthday Ann! 🎂\nWishing you a fantastic day"
	require.NoError(t, m.Send(context.Background(), "+1 555 0100", writeImage(t), caption))

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Equal(t, "wishes@example.org", be.from)
	assert.Equal(t, []string{"15550100@mms.example.net"}, be.to)
	require.Len(t, be.messages, 1)

	msg, err := mail.ReadMessage(bytes.NewReader(be.messages[0]))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "🎉 Happy Birthday Ann! 🎂", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	parts := multipart.NewReader(msg.Body, params["boundary"])

	text, err := parts.NextPart()
	require.NoError(t, err)
	body, _ := io.ReadAll(text)
	assert.Equal(t, strings.ReplaceAll(caption, "\n", "\r\n")+"\r\n", string(body))

	attachment, err := parts.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "birthday_Ann.png", attachment.FileName())
	raw, _ := io.ReadAll(attachment)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(raw), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, fakePNG, decoded)
}

func TestSMTP_DialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	m := &messenger.SMTP{Host: "127.0.0.1", Port: port, Security: config.SMTPSecurityNone, From: "a@b", Gateway: "g"}
	err = m.Send(context.Background(), "1", writeImage(t), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSMTPDial)
}

// -----------------------------------------------------------------------------
// iMessage
// -----------------------------------------------------------------------------

func TestIMessage_PassesArgumentsToScript(t *testing.T) {
	var gotArgs []string
	m := &messenger.IMessage{
		Run: func(_ context.Context, lines, args []string) (string, error) {
			assert.Contains(t, strings.Join(lines, "\n"), "POSIX file imagePath")
			gotArgs = args
			return "", nil
		},
	}

	img := writeImage(t)
	require.NoError(t, m.Send(context.Background(), " +33 6 12 ", img, "hi"))
	assert.Equal(t, []string{"+33 6 12", "hi", img, config.DefaultIMessageService}, gotArgs)
}

func TestIMessage_Errors(t *testing.T) {
	m := &messenger.IMessage{
		Run: func(context.Context, []string, []string) (string, error) {
			return "", errors.New("execution error: Messages got an error")
		},
	}
	err := m.Send(context.Background(), "+1", writeImage(t), "hi")
	assert.ErrorContains(t, err, "Messages got an error")

	assert.Error(t, m.Send(context.Background(), "  ", writeImage(t), "hi"))
}
