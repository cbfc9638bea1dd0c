package messenger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tartampluch/go-wishes/internal/config"
)

// ScriptRunner executes an AppleScript given as lines, passing args as argv.
type ScriptRunner func(ctx context.Context, lines, args []string) (string, error)

// IMessage sends through the macOS Messages app via osascript.
type IMessage struct {
	// Service is the Messages account type, "iMessage" by default ("SMS"
	// routes through a paired iPhone).
	Service string

	// Run defaults to osascript; tests swap it.
	Run ScriptRunner
}

// Name implements Messenger.
func (m *IMessage) Name() string { return config.MessengerIMessage }

var sendScript = []string{
	`on run argv`,
	`set targetHandle to item 1 of argv`,
	`set bodyText to item 2 of argv`,
	`set imagePath to item 3 of argv`,
	`set desiredService to item 4 of argv`,
	`tell application "Messages"`,
	`set targetAccount to first account whose service type is desiredService`,
	`set targetParticipant to participant targetHandle of targetAccount`,
	`send bodyText to targetParticipant`,
	`send (POSIX file imagePath) to targetParticipant`,
	`end tell`,
	`end run`,
}

// Send implements Messenger. The image path must be absolute for the POSIX
// file coercion.
func (m *IMessage) Send(ctx context.Context, phone, imagePath, caption string) error {
	handle := strings.TrimSpace(phone)
	if handle == "" {
		return errors.New(config.ErrPhoneEmpty)
	}
	abs, err := filepath.Abs(imagePath)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrImageRead, err)
	}
	service := m.Service
	if service == "" {
		service = config.DefaultIMessageService
	}

	run := m.Run
	if run == nil {
		run = runAppleScript
	}
	if _, err := run(ctx, sendScript, []string{handle, caption, abs, service}); err != nil {
		return fmt.Errorf("%s %q: %w", config.ErrIMessageSend, handle, err)
	}

	slog.Info(config.MsgMessageSent,
		config.LogKeyComponent, config.CompMessenger,
		config.LogKeyTransport, config.MessengerIMessage,
		config.LogKeyPhone, handle)
	return nil
}

func runAppleScript(ctx context.Context, lines, args []string) (string, error) {
	cmdArgs := make([]string, 0, len(lines)*2+len(args))
	for _, line := range lines {
		cmdArgs = append(cmdArgs, "-e", line)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, config.OsascriptPath, cmdArgs...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(out.String()))
	}
	return strings.TrimSpace(out.String()), nil
}
