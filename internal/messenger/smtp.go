package messenger

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/tartampluch/go-wishes/internal/config"
)

// SMTP mails the greeting to a carrier's email-to-MMS gateway, addressing
// "<phone digits>@<Gateway>".
type SMTP struct {
	Host string
	Port int

	// Security is "tls" (implicit TLS), "starttls" (default) or "none".
	Security string

	User     string
	Password string
	From     string
	Gateway  string
}

// Name implements Messenger.
func (m *SMTP) Name() string { return config.MessengerSMTP }

// Recipient returns the gateway address for phone.
func (m *SMTP) Recipient(phone string) (string, error) {
	num := digits(phone)
	if num == "" {
		return "", fmt.Errorf("%s: %q", config.ErrPhoneDigits, phone)
	}
	return num + "@" + strings.TrimPrefix(m.Gateway, "@"), nil
}

// Send implements Messenger.
func (m *SMTP) Send(ctx context.Context, phone, imagePath, caption string) error {
	to, err := m.Recipient(phone)
	if err != nil {
		return err
	}
	from := m.From
	if from == "" {
		from = m.User
	}

	msg, err := buildMIME(from, to, imagePath, caption)
	if err != nil {
		return err
	}

	client, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(from, nil); err != nil {
		return fmt.Errorf("%s: MAIL FROM: %w", config.ErrSMTPSend, err)
	}
	if err := client.Rcpt(to, nil); err != nil {
		return fmt.Errorf("%s: RCPT TO %q: %w", config.ErrSMTPSend, to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: DATA: %w", config.ErrSMTPSend, err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("%s: %w", config.ErrSMTPSend, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrSMTPSend, err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("%s: QUIT: %w", config.ErrSMTPSend, err)
	}

	slog.Info(config.MsgMessageSent,
		config.LogKeyComponent, config.CompMessenger,
		config.LogKeyTransport, config.MessengerSMTP,
		config.LogKeyPhone, phone)
	return nil
}

func (m *SMTP) connect(ctx context.Context) (*smtp.Client, error) {
	port := m.Port
	if port == 0 {
		port = config.DefaultSMTPPort
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(port))
	tlsConfig := &tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSMTPDial, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(config.HTTPTimeout))
	}

	security := strings.ToLower(m.Security)
	if security == config.SMTPSecurityTLS {
		conn = tls.Client(conn, tlsConfig)
	}

	client := smtp.NewClient(conn)
	if security == "" || security == config.SMTPSecuritySTARTTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: STARTTLS: %w", config.ErrSMTPDial, err)
		}
	}

	if m.User != "" {
		auth := sasl.NewPlainClient("", m.User, m.Password)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: %w", config.ErrSMTPAuth, err)
		}
	}
	return client, nil
}

// buildMIME assembles a multipart/mixed message: the caption as text/plain
// followed by the image as a base64 attachment.
func buildMIME(from, to, imagePath, caption string) ([]byte, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrImageRead, err)
	}
	if from == "" {
		return nil, errors.New(config.ErrSMTPFromEmpty)
	}

	var body bytes.Buffer
	parts := multipart.NewWriter(&body)

	text := textproto.MIMEHeader{}
	text.Set(config.HeaderContentType, config.MimeTextPlain)
	text.Set(config.HeaderTransferEncoding, "8bit")
	tw, err := parts.CreatePart(text)
	if err != nil {
		return nil, err
	}
	_, _ = tw.Write([]byte(strings.ReplaceAll(caption, "\n", "\r\n") + "\r\n"))

	name := filepath.Base(imagePath)
	attach := textproto.MIMEHeader{}
	attach.Set(config.HeaderContentType, mime.FormatMediaType(config.MimeImagePNG, map[string]string{"name": name}))
	attach.Set(config.HeaderTransferEncoding, "base64")
	attach.Set(config.HeaderDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	aw, err := parts.CreatePart(attach)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(img)
	for len(encoded) > config.Base64LineLength {
		_, _ = aw.Write([]byte(encoded[:config.Base64LineLength] + "\r\n"))
		encoded = encoded[config.Base64LineLength:]
	}
	_, _ = aw.Write([]byte(encoded + "\r\n"))

	if err := parts.Close(); err != nil {
		return nil, err
	}

	subject := strings.SplitN(caption, "\n", 2)[0]
	domain := from[strings.LastIndex(from, "@")+1:]

	var msg bytes.Buffer
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + time.Now().Format(time.RFC1123Z),
		"Message-ID: <" + uuid.NewString() + "@" + domain + ">",
		"MIME-Version: 1.0",
		config.HeaderContentType + ": multipart/mixed; boundary=" + strconv.Quote(parts.Boundary()),
	}
	msg.WriteString(strings.Join(headers, "\r\n"))
	msg.WriteString("\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
