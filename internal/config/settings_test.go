package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/zalando/go-keyring"
)

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

func TestLoadSettings_FirstRunCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s, used, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, config.DefaultHorizonDays, s.HorizonDays)
	assert.Equal(t, config.DefaultSendDelay, s.SendDelay)
	assert.Equal(t, config.MessengerDryRun, s.Messenger.Kind)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())

	// Reloading the generated file gives the same settings.
	again, _, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestLoadSettings_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
contacts_path: /data/contacts.csv
horizon_days: 7
send_delay: 2s
server_port: "9000"
messenger:
  kind: Webhook
  webhook_url: https://gateway.example/send
reminder:
  enabled: true
  value: 3
  unit: h
`), 0o600))

	s, _, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/contacts.csv", s.ContactsPath)
	assert.Equal(t, 7, s.HorizonDays)
	assert.Equal(t, 2*time.Second, s.SendDelay)
	assert.Equal(t, "9000", s.ServerPort)
	assert.Equal(t, config.MessengerWebhook, s.Messenger.Kind, "kind is normalized to lower case")
	assert.Equal(t, config.DefaultSchedule, s.Schedule, "unset fields keep their default")
	assert.Equal(t, "-PT3H", s.Reminder.Trigger())
}

func TestLoadSettings_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon_days: 7\n"), 0o600))

	t.Setenv("GOWISHES_HORIZON_DAYS", "3")
	t.Setenv("GOWISHES_CONTACTS", "/env/contacts.csv")
	t.Setenv("GOWISHES_MESSENGER_KIND", "smtp")
	t.Setenv("GOWISHES_MESSENGER_SECRET", "s3cret")
	t.Setenv("GOWISHES_SEND_DELAY", "750ms")

	s, _, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.HorizonDays)
	assert.Equal(t, "/env/contacts.csv", s.ContactsPath)
	assert.Equal(t, config.MessengerSMTP, s.Messenger.Kind)
	assert.Equal(t, "s3cret", s.Messenger.Secret)
	assert.Equal(t, 750*time.Millisecond, s.SendDelay)
}

func TestLoadSettings_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("horizon_days: [oops"), 0o600))
	_, _, err := config.LoadSettings(bad)
	assert.ErrorContains(t, err, config.ErrSettingsParse)

	port := filepath.Join(dir, "port.yaml")
	require.NoError(t, os.WriteFile(port, []byte("server_port: \"70000\"\n"), 0o600))
	_, _, err = config.LoadSettings(port)
	assert.EqualError(t, err, config.ErrPortRange)
}

func TestSave_SecretIsNeverWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	s := config.DefaultSettings()
	s.Messenger.Secret = "top-secret"
	require.NoError(t, s.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "top-secret")
}

func TestNormalize_RestoresDefaults(t *testing.T) {
	s := config.Settings{
		ContactsPath: "  /tmp/c.csv ",
		HorizonDays:  -4,
		SendDelay:    -time.Second,
		Messenger:    config.MessengerSettings{Kind: " IMessage "},
	}
	s.Normalize()

	assert.Equal(t, "/tmp/c.csv", s.ContactsPath)
	assert.Equal(t, config.DefaultHorizonDays, s.HorizonDays)
	assert.Zero(t, s.SendDelay)
	assert.Equal(t, config.DefaultPort, s.ServerPort)
	assert.Equal(t, config.MessengerIMessage, s.Messenger.Kind)
	assert.Equal(t, config.DefaultFontSize, s.FontSize)
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, config.ValidatePort("18080"))
	assert.EqualError(t, config.ValidatePort(""), config.ErrPortRequired)
	assert.EqualError(t, config.ValidatePort("http"), config.ErrPortNumber)
	assert.EqualError(t, config.ValidatePort("0"), config.ErrPortRange)
}

// -----------------------------------------------------------------------------
// Reminder
// -----------------------------------------------------------------------------

func TestReminder_Trigger(t *testing.T) {
	tests := []struct {
		name     string
		reminder config.Reminder
		want     string
	}{
		{"Disabled", config.Reminder{Enabled: false, Value: 1}, ""},
		{"Zero value", config.Reminder{Enabled: true, Value: 0}, ""},
		{"1 day before", config.Reminder{Enabled: true, Value: 1, Unit: config.UnitDays, Direction: config.DirBefore}, "-P1D"},
		{"2 hours after", config.Reminder{Enabled: true, Value: 2, Unit: config.UnitHours, Direction: config.DirAfter}, "PT2H"},
		{"30 minutes before", config.Reminder{Enabled: true, Value: 30, Unit: config.UnitMinutes, Direction: config.DirBefore}, "-PT30M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reminder.Trigger())
		})
	}
}

// -----------------------------------------------------------------------------
// Secrets
// -----------------------------------------------------------------------------

func TestMessengerSecrets_Keyring(t *testing.T) {
	keyring.MockInit()

	m := config.MessengerSettings{Kind: config.MessengerWebhook}
	secret, err := m.ResolveSecret()
	require.NoError(t, err)
	assert.Empty(t, secret, "a missing entry is not an error")

	require.NoError(t, m.StoreSecret("tok3n"))
	secret, err = m.ResolveSecret()
	require.NoError(t, err)
	assert.Equal(t, "tok3n", secret)

	m.Secret = "from-env"
	secret, err = m.ResolveSecret()
	require.NoError(t, err)
	assert.Equal(t, "from-env", secret)

	m.Secret = ""
	require.NoError(t, m.DeleteSecret())
	require.NoError(t, m.DeleteSecret())
	secret, err = m.ResolveSecret()
	require.NoError(t, err)
	assert.Empty(t, secret)
}

func TestMessengerSecrets_Accounts(t *testing.T) {
	assert.Equal(t, config.SecretWebhookToken, config.MessengerSettings{Kind: config.MessengerWebhook}.SecretAccount())
	assert.Equal(t, config.SecretSMTPPrefix+"me", config.MessengerSettings{Kind: config.MessengerSMTP, SMTPUser: "me"}.SecretAccount())
	assert.Empty(t, config.MessengerSettings{Kind: config.MessengerSMTP}.SecretAccount())
	assert.Empty(t, config.MessengerSettings{Kind: config.MessengerDryRun}.SecretAccount())

	assert.Error(t, config.MessengerSettings{Kind: config.MessengerDryRun}.StoreSecret("x"))
}

func TestImportPassword(t *testing.T) {
	keyring.MockInit()
	t.Setenv(config.EnvImportPassword, "")

	p, err := config.ImportPassword("ann")
	require.NoError(t, err)
	assert.Empty(t, p)

	require.NoError(t, config.StoreImportPassword("ann", "dav-pass"))
	p, err = config.ImportPassword("ann")
	require.NoError(t, err)
	assert.Equal(t, "dav-pass", p)

	t.Setenv(config.EnvImportPassword, "from-env")
	p, err = config.ImportPassword("ann")
	require.NoError(t, err)
	assert.Equal(t, "from-env", p)

	assert.Error(t, config.StoreImportPassword("", "x"))
}
