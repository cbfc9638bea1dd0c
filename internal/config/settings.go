package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Reminder describes the alarm attached to each calendar event.
type Reminder struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Value     int    `yaml:"value" env:"VALUE"`
	Unit      string `yaml:"unit" env:"UNIT"`           // d, h or m
	Direction string `yaml:"direction" env:"DIRECTION"` // before or after
}

// Trigger renders the reminder as an ISO 8601 duration relative to the
// start of the day ("-P1D" for one day before). Disabled reminders, or a
// zero value, give an empty trigger.
func (r Reminder) Trigger() string {
	if !r.Enabled || r.Value <= 0 {
		return ""
	}

	sign := ISOPeriodPrefix
	if r.Direction != DirAfter {
		sign = ISONegativePrefix
	}

	switch r.Unit {
	case UnitHours:
		return fmt.Sprintf("%s%s%d%s", sign, ISOTimePrefix, r.Value, ISOHour)
	case UnitMinutes:
		return fmt.Sprintf("%s%s%d%s", sign, ISOTimePrefix, r.Value, ISOMinute)
	default:
		return fmt.Sprintf("%s%d%s", sign, r.Value, ISODay)
	}
}

// MessengerSettings selects and configures the outbound transport. Secrets
// are kept in the OS keyring, or in GOWISHES_MESSENGER_SECRET for headless
// hosts, never in the YAML file.
type MessengerSettings struct {
	Kind string `yaml:"kind" env:"KIND"`

	WebhookURL string `yaml:"webhook_url,omitempty" env:"WEBHOOK_URL"`

	SMTPHost     string `yaml:"smtp_host,omitempty" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port,omitempty" env:"SMTP_PORT"`
	SMTPSecurity string `yaml:"smtp_security,omitempty" env:"SMTP_SECURITY"`
	SMTPUser     string `yaml:"smtp_user,omitempty" env:"SMTP_USER"`
	SMTPFrom     string `yaml:"smtp_from,omitempty" env:"SMTP_FROM"`
	Gateway      string `yaml:"gateway,omitempty" env:"GATEWAY"`

	IMessageService string `yaml:"imessage_service,omitempty" env:"IMESSAGE_SERVICE"`

	Secret string `yaml:"-" env:"SECRET"`
}

// Settings is the user configuration persisted in config.yaml.
type Settings struct {
	ContactsPath string `yaml:"contacts_path" env:"CONTACTS"`
	TemplatesDir string `yaml:"templates_dir" env:"TEMPLATES"`
	// Template pins one cake file name; empty picks one at random.
	Template   string `yaml:"template,omitempty" env:"TEMPLATE"`
	OutputDir  string `yaml:"output_dir" env:"OUTPUT_DIR"`
	KeepImages bool   `yaml:"keep_images" env:"KEEP_IMAGES"`

	FontPath string  `yaml:"font_path,omitempty" env:"FONT"`
	FontSize float64 `yaml:"font_size" env:"FONT_SIZE"`

	// GreetingFormat and CaptionFormat override the translated texts. The
	// contact name replaces {name}.
	GreetingFormat string `yaml:"greeting_format,omitempty" env:"GREETING"`
	CaptionFormat  string `yaml:"caption_format,omitempty" env:"CAPTION"`
	Language       string `yaml:"language" env:"LANGUAGE"`

	HorizonDays int           `yaml:"horizon_days" env:"HORIZON_DAYS"`
	SendDelay   time.Duration `yaml:"send_delay" env:"SEND_DELAY"`
	Schedule    string        `yaml:"schedule" env:"SCHEDULE"`
	ServerPort  string        `yaml:"server_port" env:"PORT"`
	HistoryPath string        `yaml:"history_path" env:"HISTORY"`

	Reminder  Reminder          `yaml:"reminder" envPrefix:"REMINDER_"`
	Messenger MessengerSettings `yaml:"messenger" envPrefix:"MESSENGER_"`
}

// DefaultSettings places every file under the user's configuration and cache
// directories. Empty strings are returned for paths that cannot be resolved.
func DefaultSettings() Settings {
	dataDir := appDir(os.UserConfigDir)
	cacheDir := appDir(os.UserCacheDir)

	return Settings{
		ContactsPath: joinIf(dataDir, DefaultContactsFile),
		TemplatesDir: joinIf(dataDir, DefaultTemplatesDir),
		OutputDir:    joinIf(cacheDir, DefaultOutputDir),
		FontSize:     DefaultFontSize,
		Language:     DefaultLanguage,
		HorizonDays:  DefaultHorizonDays,
		SendDelay:    DefaultSendDelay,
		Schedule:     DefaultSchedule,
		ServerPort:   DefaultPort,
		HistoryPath:  joinIf(dataDir, DefaultHistoryFile),
		Reminder: Reminder{
			Value:     DefaultReminderValue,
			Unit:      UnitDays,
			Direction: DirBefore,
		},
		Messenger: MessengerSettings{
			Kind:            MessengerDryRun,
			SMTPPort:        DefaultSMTPPort,
			SMTPSecurity:    SMTPSecuritySTARTTLS,
			IMessageService: DefaultIMessageService,
		},
	}
}

// DefaultSettingsPath returns <user config dir>/go-wishes/config.yaml.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppDirName, SettingsFileName), nil
}

// LoadSettings reads path (the default location when empty), creating it
// with defaults on first run, then applies GOWISHES_* environment overrides.
func LoadSettings(path string) (Settings, string, error) {
	if path == "" {
		p, err := DefaultSettingsPath()
		if err != nil {
			return Settings{}, "", err
		}
		path = p
	}

	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.Save(path); err != nil {
			return Settings{}, path, err
		}
	case err != nil:
		return Settings{}, path, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, path, fmt.Errorf("%s: %w", ErrSettingsParse, err)
		}
	}

	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return Settings{}, path, fmt.Errorf("%s: %w", ErrSettingsEnv, err)
	}

	s.Normalize()
	if err := s.Validate(); err != nil {
		return Settings{}, path, err
	}
	return s, path, nil
}

// Normalize trims text fields and restores defaults for zero values.
func (s *Settings) Normalize() {
	def := DefaultSettings()

	s.ContactsPath = expandHome(strings.TrimSpace(s.ContactsPath))
	s.TemplatesDir = expandHome(strings.TrimSpace(s.TemplatesDir))
	s.OutputDir = expandHome(strings.TrimSpace(s.OutputDir))
	s.FontPath = expandHome(strings.TrimSpace(s.FontPath))
	s.HistoryPath = expandHome(strings.TrimSpace(s.HistoryPath))
	s.Template = strings.TrimSpace(s.Template)
	s.Language = strings.TrimSpace(s.Language)
	s.Schedule = strings.TrimSpace(s.Schedule)
	s.ServerPort = strings.TrimSpace(s.ServerPort)
	s.Messenger.Kind = strings.ToLower(strings.TrimSpace(s.Messenger.Kind))
	s.Messenger.SMTPSecurity = strings.ToLower(strings.TrimSpace(s.Messenger.SMTPSecurity))

	if s.ContactsPath == "" {
		s.ContactsPath = def.ContactsPath
	}
	if s.TemplatesDir == "" {
		s.TemplatesDir = def.TemplatesDir
	}
	if s.OutputDir == "" {
		s.OutputDir = def.OutputDir
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.HorizonDays < 0 {
		s.HorizonDays = DefaultHorizonDays
	}
	if s.SendDelay < 0 {
		s.SendDelay = 0
	}
	if s.Schedule == "" {
		s.Schedule = DefaultSchedule
	}
	if s.ServerPort == "" {
		s.ServerPort = DefaultPort
	}
	if s.Messenger.Kind == "" {
		s.Messenger.Kind = MessengerDryRun
	}
	if s.Messenger.SMTPPort <= 0 {
		s.Messenger.SMTPPort = DefaultSMTPPort
	}
	if s.Reminder.Unit == "" {
		s.Reminder.Unit = UnitDays
	}
	if s.Reminder.Direction == "" {
		s.Reminder.Direction = DirBefore
	}
}

// Validate reports settings that no component could work with.
func (s Settings) Validate() error {
	if err := ValidatePort(s.ServerPort); err != nil {
		return err
	}
	if s.ContactsPath == "" {
		return errors.New(ErrContactsPathEmpty)
	}
	return nil
}

// ValidatePort checks that port is a number in 1..65535.
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// Save writes the settings to path atomically with owner-only permissions.
func (s Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}

	tmp, err := os.CreateTemp(dir, SettingsTempPattern)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Chmod(FilePermUserRW); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	return nil
}

func appDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppDirName)
}

func joinIf(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

func expandHome(path string) string {
	if path != HomePrefix && !strings.HasPrefix(path, HomePrefix+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, HomePrefix))
}
