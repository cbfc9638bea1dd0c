package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Version is injected via -ldflags.
var Version = "dev"

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Wishes/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Wishes"
	AppID             = "com.github.tartampluch.go-wishes"
	AppDirName        = "go-wishes"
	CmdName           = "go-wishes"
	KeyringService    = "com.github.tartampluch.go-wishes"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	IconFile          = "icon.png"
	IconSize          = 256
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs, settings and the contact table.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1

	SettingsFileName    = "config.yaml"
	SettingsTempPattern = ".config-*.yaml.tmp"
	StoreTempPattern    = ".contacts-*.csv.tmp"
	HomePrefix          = "~"
)

// -----------------------------------------------------------------------------
// CLI Flags & Output
// -----------------------------------------------------------------------------

const (
	FlagConfig     = "config"
	FlagDebug      = "debug"
	FlagDescConfig = "Path to config.yaml (default: user config directory)"
	FlagDescDebug  = "Enable debug logging"

	MsgVersionOutput  = "%s version %s (%s/%s)\n"
	MsgAddedOutput    = "Added %s (%s)\n"
	MsgUpdatedOutput  = "Updated %d contact(s)\n"
	MsgDeletedOutput  = "Deleted %d contact(s)\n"
	MsgImportedOutput = "Imported %d new, %d already known, %d skipped\n"
	MsgSecretStored   = "Secret stored in the keyring"
	MsgSecretDeleted  = "Secret removed from the keyring"

	// TabPadding separates tabwriter columns.
	TabPadding = 2
)

// -----------------------------------------------------------------------------
// Environment
// -----------------------------------------------------------------------------

const (
	// EnvPrefix is prepended to every variable read by caarlos0/env.
	EnvPrefix = "GOWISHES_"

	EnvImportPassword = "GOWISHES_IMPORT_PASSWORD"
)

// -----------------------------------------------------------------------------
// Keyring Accounts
// -----------------------------------------------------------------------------

const (
	SecretWebhookToken = "webhook-token"
	SecretSMTPPrefix   = "smtp:"
	SecretImportPrefix = "import:"
)

// -----------------------------------------------------------------------------
// UI Windows & Layout
// -----------------------------------------------------------------------------

const (
	MainWinWidth        = 720
	MainWinHeight       = 480
	SettingsWindowWidth = 600
	DialogWidth         = 380
	LayoutColumnsDouble = 2

	ColWidthName     = 220
	ColWidthPhone    = 180
	ColWidthBirthday = 110
	ColWidthDate     = 150
	ColWidthStatus   = 260

	TablePlaceholder    = "Cell Content"
	BirthdayPlaceholder = "5-Mar"
	PlaceholderURL      = "https://..."
	ExtCSV              = ".csv"

	// Sorting Indicators
	SortIconAsc  = " ▲"
	SortIconDesc = " ▼"

	HistoryListLimit      = 200
	DateTimeFormatDisplay = "2006-01-02 15:04"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle       = "win_title"
	TKeyWinSettings    = "win_settings_title"
	TKeyTabToday       = "tab_today"
	TKeyTabContacts    = "tab_contacts"
	TKeyTabUpcoming    = "tab_upcoming"
	TKeyTabHistory     = "tab_history"
	TKeyMenuShow       = "menu_show"
	TKeyMenuSend       = "menu_send"
	TKeyMenuSettings   = "menu_settings"
	TKeyMenuRefresh    = "menu_refresh"
	TKeyTrayStatus     = "tray_status"      // Requires Count > 0
	TKeyTrayStatusZero = "tray_status_zero" // Explicit key for 0
	TKeyNotifError     = "notif_error"

	// Column Headers
	TKeyColName     = "col_name"
	TKeyColPhone    = "col_phone"
	TKeyColBirthday = "col_birthday"
	TKeyColDays     = "col_days"
	TKeyColStatus   = "col_status"
	TKeyColDate     = "col_date"

	// Buttons
	TKeyBtnAdd     = "btn_add"
	TKeyBtnEdit    = "btn_edit"
	TKeyBtnDelete  = "btn_delete"
	TKeyBtnSend    = "btn_send"
	TKeyBtnSkip    = "btn_skip"
	TKeyBtnSave    = "btn_save"
	TKeyBtnCancel  = "btn_cancel"
	TKeyBtnBrowse  = "btn_browse"
	TKeyBtnRefresh = "btn_refresh"

	// Main window
	TKeyLblSearch      = "lbl_search"
	TKeyLblHorizon     = "lbl_horizon"
	TKeyLblTemplate    = "lbl_template"
	TKeyTemplateRandom = "template_random"
	TKeyLblName        = "lbl_name"
	TKeyLblPhone       = "lbl_phone"
	TKeyLblBirthday    = "lbl_birthday"
	TKeyHelpBirthday   = "help_birthday"
	TKeyDlgAdd         = "dlg_add_title"
	TKeyDlgEdit        = "dlg_edit_title"
	TKeyDlgDeleteTitle = "dlg_delete_title"
	TKeyDlgDelete      = "dlg_delete"      // Requires Name
	TKeyUpcomingStatus = "upcoming_status" // Requires Count, Days
	TKeySendProgress   = "send_progress"   // Requires Done, Total
	TKeySendDone       = "send_done"       // Requires Sent, Failed
	TKeySendNone       = "send_none"
	TKeyStatusSkipped  = "status_skipped" // Requires Name

	// Validation Errors (UI)
	TKeyErrNameReq   = "err_name_required"
	TKeyErrPhoneReq  = "err_phone_required"
	TKeyErrBirthday  = "err_birthday_invalid"
	TKeyErrHorizon   = "err_horizon"
	TKeyErrPortReq   = "err_port_required"
	TKeyErrPortNum   = "err_port_number"
	TKeyErrPortRange = "err_port_range"

	// Settings window
	TKeyLblGeneral    = "lbl_general"
	TKeyLblLanguage   = "lbl_language"
	TKeyHelpLanguage  = "help_language"
	TKeyLblContacts   = "lbl_contacts_file"
	TKeyLblTemplates  = "lbl_templates_dir"
	TKeyLblPort       = "lbl_server_port"
	TKeyHelpPort      = "help_port"
	TKeyLblDelay      = "lbl_send_delay"
	TKeyLblSeconds    = "lbl_seconds_suffix"
	TKeyLblMessenger  = "lbl_messenger"
	TKeyLblTransport  = "lbl_transport"
	TKeyLblWebhookURL = "lbl_webhook_url"
	TKeyLblToken      = "lbl_token"
	TKeyLblSMTPHost   = "lbl_smtp_host"
	TKeyLblSMTPUser   = "lbl_smtp_user"
	TKeyLblSMTPFrom   = "lbl_smtp_from"
	TKeyLblGateway    = "lbl_gateway"
	TKeyLblPass       = "lbl_pass"
	TKeyLblNotif      = "lbl_notifications"
	TKeyLblEnableRem  = "lbl_enable_reminders"
	TKeyUnitDays      = "unit_days"
	TKeyUnitHours     = "unit_hours"
	TKeyUnitMinutes   = "unit_minutes"
	TKeyDirBefore     = "dir_before"
	TKeyDirAfter      = "dir_after"
	TKeyLblStartDay   = "lbl_start_of_day"
	TKeyLblFooter     = "lbl_footer"

	// Texts sent or published
	TKeyGreeting     = "greeting"      // Requires Name
	TKeyCaption      = "caption"       // Requires Name
	TKeyEvtSummary   = "event_summary" // Requires Name
	TKeyDaysToday    = "days_today"
	TKeyDaysTomorrow = "days_tomorrow"
	TKeyDaysUntil    = "days_until" // Requires Count
)

// Template data keys.
const (
	TDataCount  = "Count"
	TDataName   = "Name"
	TDataDays   = "Days"
	TDataDone   = "Done"
	TDataTotal  = "Total"
	TDataSent   = "Sent"
	TDataFailed = "Failed"
)

// Embedded locale files are named active.<lang>.json.
const (
	LocalesDir   = "locales"
	LocalePrefix = "active."
	LocaleSuffix = ".json"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultPort          = "18080"
	DefaultLanguage      = "en"
	DefaultHorizonDays   = 30
	DefaultSendDelay     = 5 * time.Second
	DefaultSchedule      = "0 9 * * *"
	DefaultReminderValue = 1
	DefaultFontSize      = 60.0
	MinFontSize          = 12.0

	DefaultContactsFile = "contacts.csv"
	DefaultTemplatesDir = "cakes"
	DefaultOutputDir    = "cards"
	DefaultHistoryFile  = "history.db"

	// FeedRefreshSchedule rebuilds the feed just after midnight, when every
	// days-until value changes.
	FeedRefreshSchedule = "1 0 * * *"
	WatchDebounce       = 500 * time.Millisecond

	// DayCheckInterval is how often the GUI checks for a date change.
	DayCheckInterval = time.Minute

	// NamePlaceholder is replaced by the contact name in user formats.
	NamePlaceholder = "{name}"

	UIDSalt = "go-wishes-v1-" // Salt for deterministic UID generation
)

// ISO8601 Duration Components for Reminders
const (
	ISOPeriodPrefix   = "P"
	ISONegativePrefix = "-P"
	ISOTimePrefix     = "T"
	ISODay            = "D"
	ISOHour           = "H"
	ISOMinute         = "M"
)

// -----------------------------------------------------------------------------
// Reminder Units & Directions
// -----------------------------------------------------------------------------

const (
	UnitDays    = "d"
	UnitHours   = "h"
	UnitMinutes = "m"
	DirBefore   = "before"
	DirAfter    = "after"
)

// -----------------------------------------------------------------------------
// Contact Table
// -----------------------------------------------------------------------------

const (
	ColumnName     = "name"
	ColumnPhone    = "phone"
	ColumnBirthday = "birthday"
)

// -----------------------------------------------------------------------------
// Greeting Images
// -----------------------------------------------------------------------------

const (
	FormatImageName  = "birthday_%s_%x.png"
	FallbackFileName = "contact"
	CardHashLength   = 4

	PlainTemplateWidth  = 800
	PlainTemplateHeight = 600

	// FontBaseWidth is the template width DefaultFontSize is tuned for.
	FontBaseWidth = 800.0
	FontDPI       = 72
	OutlineWidth  = 2
)

// TemplateExtensions lists the cake image formats that can be decoded.
var TemplateExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// -----------------------------------------------------------------------------
// Messengers
// -----------------------------------------------------------------------------

const (
	MessengerDryRun   = "dryrun"
	MessengerWebhook  = "webhook"
	MessengerSMTP     = "smtp"
	MessengerIMessage = "imessage"

	DefaultSMTPPort      = 587
	SMTPSecurityNone     = "none"
	SMTPSecuritySTARTTLS = "starttls"
	SMTPSecurityTLS      = "tls"
	Base64LineLength     = 76

	DefaultIMessageService = "iMessage"
	OsascriptPath          = "/usr/bin/osascript"

	FormFieldPhone   = "phone"
	FormFieldCaption = "caption"
	FormFieldImage   = "image"
	BearerPrefix     = "Bearer "
	ErrorBodySnippet = 512
)

// -----------------------------------------------------------------------------
// History Ledger
// -----------------------------------------------------------------------------

const (
	SQLiteDriver  = "sqlite"
	SQLitePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	MemoryDSN     = ":memory:"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Wishes//Engine//EN"
	ICalCalName   = "Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gowishes"

	// iCal Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRRule       = "RRULE"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	RRuleYearly = "FREQ=YEARLY"
	// RRuleYearlyLastOfFeb keeps 29 Feb birthdays on 28 Feb in common years.
	RRuleYearlyLastOfFeb = "FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=-1"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// Date layouts used for parsing vCard BDAY fields
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// Year-less layouts are parsed with a leap year prepended.
	DateFormatYear = "2006"
	LeapYearText   = "2000"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s|%s"
	FormatUID       = "%x@%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteCalendar       = "/birthdays.ics"
	RouteUpcoming       = "/upcoming.json"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType      = "Content-Type"
	HeaderCacheControl     = "Cache-Control"
	HeaderETag             = "ETag"
	HeaderLastModified     = "Last-Modified"
	HeaderRetryAfter       = "Retry-After"
	HeaderAllow            = "Allow"
	HeaderXContentType     = "X-Content-Type-Options"
	HeaderUserAgent        = "User-Agent"
	HeaderIfNoneMatch      = "If-None-Match"
	HeaderIfModifiedSince  = "If-Modified-Since"
	HeaderAuthorization    = "Authorization"
	HeaderDisposition      = "Content-Disposition"
	HeaderTransferEncoding = "Content-Transfer-Encoding"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeTextPlain       = "text/plain; charset=utf-8"
	MimeImagePNG        = "image/png"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	// Application
	ErrAppFailed        = "application failed unexpectedly"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create directory"
	ErrTrayNotSupported = "system tray not supported on this platform/driver"
	ErrIconRender       = "failed to draw application icon"
	ErrReload           = "failed to reload contacts"
	ErrWatch            = "contacts file watcher stopped"
	ErrSortColumn       = "unknown sort column"
	ErrSecretEmpty      = "secret is empty"
	ErrHistoryDisabled  = "history is disabled (history_path is empty)"

	// Settings & keyring
	ErrConfigDir         = "could not determine user config dir"
	ErrSettingsRead      = "failed to read settings"
	ErrSettingsParse     = "failed to parse settings"
	ErrSettingsEnv       = "failed to apply environment overrides"
	ErrSettingsWrite     = "failed to write settings"
	ErrContactsPathEmpty = "configuration error: contacts path is empty"
	ErrKeyringRead       = "failed to read secret from keyring"
	ErrKeyringWrite      = "failed to write secret to keyring"
	ErrNoSecretNeeded    = "the selected messenger needs no secret"
	ErrImportUserEmpty   = "import user is empty"
	ErrPortRequired      = "server port is required"
	ErrPortNumber        = "server port must be a number"
	ErrPortRange         = "server port must be between 1 and 65535"

	// Contacts
	ErrStoreNoHeader   = "contacts file has no header row"
	ErrStoreColumn     = "contacts file is missing column"
	ErrStoreWrite      = "failed to write contacts file"
	ErrContactBirthday = "invalid birthday for"
	ErrContactSave     = "failed to save contact"
	ErrContactDelete   = "failed to delete contact"
	ErrWatchStart      = "failed to watch contacts file"

	// Import
	ErrImportOpen        = "failed to open address book"
	ErrImportSourceEmpty = "import source is empty"
	ErrFetcherMissing    = "internal error: network fetcher is not initialized"
	ErrFetchRequest      = "failed to build request"
	ErrFetchNetwork      = "network error"
	ErrFetchStatus       = "unexpected HTTP status"
	ErrFetchTooLarge     = "address book exceeds the size limit"
	ErrInvalidURL        = "invalid URL structure"
	ErrProtocol          = "unsupported protocol scheme (http/https only)"
	ErrDateParse         = "unable to parse date"

	// Greeting
	ErrFontLoad      = "failed to load font"
	ErrTemplateDir   = "failed to list templates"
	ErrTemplateLoad  = "failed to load template"
	ErrTemplateEmpty = "template image is empty"
	ErrImageWrite    = "failed to write greeting image"
	ErrImageRead     = "failed to read greeting image"

	// Messengers
	ErrWebhookURLEmpty = "configuration error: webhook URL is empty"
	ErrWebhookRequest  = "webhook request failed"
	ErrWebhookStatus   = "webhook rejected the message"
	ErrSMTPIncomplete  = "configuration error: SMTP host and gateway are required"
	ErrSMTPFromEmpty   = "configuration error: SMTP sender is empty"
	ErrSMTPDial        = "failed to connect to SMTP server"
	ErrSMTPAuth        = "SMTP authentication failed"
	ErrSMTPSend        = "SMTP delivery failed"
	ErrPhoneEmpty      = "phone number is empty"
	ErrPhoneDigits     = "phone number has no digits"
	ErrIMessageSend    = "Messages.app could not send to"

	// History
	ErrHistoryPathEmpty = "history path is empty"
	ErrHistoryOpen      = "failed to open history database"
	ErrHistoryMigrate   = "failed to create history schema"
	ErrHistoryRead      = "failed to read history"
	ErrHistoryWrite     = "failed to record history"
	ErrHistoryList      = "failed to list history"

	// Calendar, server & scheduling
	ErrICalEncode     = "failed to encode iCalendar data"
	ErrEncodeUpcoming = "failed to encode upcoming birthdays"
	ErrFeedRefresh    = "failed to refresh calendar feed"
	ErrServerMissing  = "internal error: feed server is not configured"
	ErrServerStartup  = "server startup failed"
	ErrServerShutdown = "server shutdown failed"
	ErrWriteResp      = "failed to write response body"
	ErrSchedule       = "invalid schedule"

	// Locales
	ErrLocalesAccess = "failed to access embedded locales"
	ErrLocaleLoad    = "failed to load locale file"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackSummary = "Birthday: %s"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	// Application
	MsgAppStarting  = "Starting application"
	MsgAppStop      = "Application stopped gracefully"
	MsgCtxCancel    = "Context cancelled, shutting down UI"
	MsgLogWarning   = "Warning: %s at %s: %v\n"
	MsgOpenWindow   = "Opening main window"
	MsgSorted       = "Contacts sorted"
	MsgSendStarted  = "Sending wishes"
	MsgSendFinished = "Wishes sent"

	MsgContactSaved   = "Contact saved"
	MsgContactDeleted = "Contact deleted"

	MsgSettingsOpen  = "Opening settings window"
	MsgSettingsFocus = "Settings window already open, focusing"
	MsgSettingsSave  = "Settings saved"

	// Background worker
	MsgWorkerStart    = "Background worker started"
	MsgWorkerStop     = "Background worker stopping"
	MsgDayChanged     = "Date changed, refreshing views"
	MsgManualRefresh  = "Manual refresh requested"
	MsgWatcherRestart = "Contacts file changed in settings, restarting watcher"

	// Contacts store & watcher
	MsgStoreLoaded       = "Contacts loaded"
	MsgStoreMissing      = "Contacts file not found, starting empty"
	MsgContactAdded      = "Contact added"
	MsgUpdateDuplicates  = "Update matched several identical rows"
	MsgWatchStarted      = "Watching contacts file"
	MsgWatchStopped      = "Contacts watcher stopped"
	MsgWatchReloaded     = "Contacts file changed, reloaded"
	MsgWatchReloadFailed = "Contacts file changed but could not be reloaded"
	MsgWatchError        = "Contacts watcher error"

	// Engine
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping invalid date format"
	MsgImportDone     = "Address book imported"
	MsgGenSuccess     = "Calendar generation successful"
	MsgCalendarEmpty  = "No valid birthdays, serving an empty calendar"
	MsgFetchStart     = "Downloading address book"
	MsgFetchOK        = "Address book downloaded"
	MsgFetchBadStatus = "Address book server answered with an error"

	// Greeting & sending
	MsgImageRendered     = "Greeting image rendered"
	MsgPlainBackground   = "No cake template available, using the plain background"
	MsgDryRunSend        = "Dry run: message not sent"
	MsgMessageSent       = "Message sent"
	MsgQueueItemDone     = "Greeting delivered"
	MsgQueueItemFailed   = "Greeting failed"
	MsgQueueDone         = "Send run finished"
	MsgLedgerUnavailable = "History ledger unavailable"
	MsgSecretUnavailable = "Messenger secret unavailable"
	MsgNobodyToday       = "No birthdays today"

	// Daemon
	MsgDaemonStarted      = "Scheduler started"
	MsgDaemonStopped      = "Scheduler stopped"
	MsgScheduledRun       = "Scheduled run"
	MsgScheduledRunFailed = "Scheduled run failed"

	// Server
	MsgServerListen = "HTTP server listening"
	MsgServerStop   = "Shutting down HTTP server..."
	MsgCacheUpdated = "Feed cache updated"

	// Locales
	MsgLocaleSkip    = "Skipping non-locale file"
	MsgLocaleBadName = "Skipping malformed locale filename"
	MsgLocaleLoaded  = "Locale loaded successfully"
	MsgTransMissing  = "Missing translation key"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyTotal     = "total"
	LogKeyFound     = "birthdays_found"
	LogKeyToday     = "birthdays_today"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeySortCol   = "sort_column"
	LogKeySortAsc   = "sort_asc"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyPhone     = "phone"
	LogKeyCaption   = "caption"
	LogKeyTransport = "transport"
	LogKeySkipped   = "skipped"
	LogKeySent      = "sent"
	LogKeyFailed    = "failed"
	LogKeySchedule  = "schedule"
	LogKeyCommand   = "command"
	LogKeyInterval  = "interval"
	LogKeyDate      = "date"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI        = "ui"
	CompUISet     = "ui_settings"
	CompEngine    = "engine"
	CompImporter  = "importer"
	CompServer    = "server"
	CompFetcher   = "fetcher"
	CompStore     = "store"
	CompWatcher   = "watcher"
	CompGreeting  = "greeting"
	CompMessenger = "messenger"
	CompOutbox    = "outbox"
	CompDaemon    = "daemon"
	CompCron      = "cron"
	CompWorker    = "worker"
	CompMain      = "main"
	CompI18n      = "i18n"
)
