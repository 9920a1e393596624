package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Birthday-Bot/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Birthday Bot"
	AppID          = "com.github.rolandmarg.birthday-bot"
	KeyringService = "com.github.rolandmarg.birthday-bot"
	LogFileName    = "app.log"
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
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagConfig       = "config"
	FlagDebug        = "debug"
	FlagDaemon       = "daemon"
	FlagDryRun       = "dry-run"
	FlagYes          = "yes"
	FlagDescConfig   = "Path to the YAML configuration file"
	FlagDescDebug    = "Enable debug logging"
	FlagDescDaemon   = "Keep running and fire the daily/monthly tasks on schedule"
	FlagDescDryRun   = "Report what the sync would change without writing to the calendar"
	FlagDescYes      = "Confirm bulk deletion without prompting"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceKindCSV   = "csv"
	SourceKindVCard = "vcard"

	ChannelKindConsole = "console"
	ChannelKindWebhook = "webhook"

	DefaultLanguage   = "en"
	DefaultTimezone   = "Local"
	DefaultDailyAt    = "09:00"
	DefaultStateKey   = "last_run"
	DefaultLeapYear   = 2000 // Leap year fallback for dates like --02-29
	DefaultSendLimit  = 4    // Concurrent recipient sends per channel
	DefaultServerPort = "18080"

	EnvWebhookToken = "BIRTHDAY_BOT_WEBHOOK_TOKEN"
	EnvConfigPath   = "BIRTHDAY_BOT_CONFIG"
	KeyringUser     = "webhook"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Birthday Bot//Sync//EN"
	ICalCalName = "Birthdays"
	ICalScale   = "GREGORIAN"
	ICalMethod  = "PUBLISH"
	ICalDomain  = "birthdaybot"

	PropUID        = "UID"
	PropSummary    = "SUMMARY"
	PropDTStart    = "DTSTART"
	PropDTStamp    = "DTSTAMP"
	PropRRule      = "RRULE"
	PropDesc       = "DESCRIPTION"
	PropVersion    = "VERSION"
	PropProdid     = "PRODID"
	PropXWRCalName = "X-WR-CALNAME"
	PropCalScale   = "CALSCALE"
	PropMethod     = "METHOD"

	RRuleYearly = "FREQ=YEARLY"

	// StubVCalendar is the minimal valid iCalendar object used for an empty mirror.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts used for persisted state and vCard BDAY fields.
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"
	DateFormatDayMonth  = "January 2"
	DateFormatClock     = "15:04"

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s@%s"
	UIDSalt         = "birthday-bot-v1-"

	// Event text
	FormatEventTitle = "%s's birthday"
	FormatBornYear   = "born %d"

	// File Extensions
	ExtICS   = ".ics"
	ExtCSV   = ".csv"
	ExtVCF   = ".vcf"
	ExtVCard = ".vcard"
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
	MaxHTTPResponseSize = 32 * 1024 * 1024 // 32MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	LocalhostBindAddr   = "127.0.0.1"
	AddrSeparator       = ":"

	WebhookRetryInitial  = 500 * time.Millisecond
	WebhookRetryMaxTries = 3
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAuthorization   = "Authorization"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	BearerPrefix = "Bearer "

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Cron Schedules
// -----------------------------------------------------------------------------

const (
	// FormatCronDaily expects minute and hour.
	FormatCronDaily = "%d %d * * *"
	// FormatCronMonthly fires on the first day of the month.
	FormatCronMonthly = "%d %d 1 * *"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrConfigRead     = "failed to read configuration file"
	ErrConfigParse    = "failed to parse configuration file"
	ErrTimezoneLoad   = "failed to load configured timezone"
	ErrSourceKind     = "configuration error: unsupported source kind"
	ErrChannelKind    = "configuration error: unsupported channel kind"
	ErrChannelDup     = "configuration error: channel kind listed more than once"
	ErrSourcePath     = "configuration error: source path is empty"
	ErrCalendarPath   = "configuration error: calendar path is empty"
	ErrDailyAt        = "configuration error: daily_at must be HH:MM"
	ErrInvalidURL     = "invalid URL structure"
	ErrProtocol       = "unsupported protocol scheme (http/https only)"
	ErrFetcherMissing = "internal error: network fetcher is not initialized"
	ErrDateParse      = "unable to parse date"
	ErrStateCorrupt   = "stored last-run value is corrupt"
	ErrStoreKeyEmpty  = "storage error: key is empty"
	ErrICalDecode     = "failed to decode iCalendar data"
	ErrICalEncode     = "failed to encode iCalendar data"
	ErrVCardParse     = "failed to parse vCard stream"
	ErrCSVParse       = "failed to parse CSV stream"
	ErrEventMissing   = "no event with the given id"
	ErrNoChannels     = "no notification channel is available"
	ErrWebhookStatus  = "webhook returned unexpected status"
	ErrWebhookNoURL   = "webhook URL is not configured"
	ErrFeedStat       = "failed to stat mirror calendar file"
	ErrFeedRefresh    = "failed to refresh feed from mirror calendar"
	ErrServerStartup  = "server startup failed"
	ErrServerShutdown = "server shutdown failed"
	ErrPortRequired   = "server port is required"
	ErrWriteResp      = "failed to write response body"
	ErrLogFile        = "failed to open log file"
	ErrCacheDir       = "could not determine user cache dir"
	ErrCreateDir      = "could not create app cache dir"
	ErrAppFailed      = "application failed unexpectedly"
	ErrLocalesAccess  = "failed to access embedded locales"
	ErrLocaleLoad     = "failed to load locale file"
	ErrPurgeDenied    = "bulk deletion requires explicit confirmation (--yes)"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgSyncStarted     = "Synchronization started"
	MsgSyncFinished    = "Synchronization finished"
	MsgRecordSkipped   = "Record already has a calendar event"
	MsgRecordAdded     = "Calendar event created"
	MsgCreateFailed    = "Calendar event creation failed"
	MsgRowSkipped      = "Skipping unparseable row cell pair"
	MsgCardSkipped     = "Skipping malformed vCard"
	MsgDateSkipped     = "Skipping invalid date format"
	MsgStateMissing    = "No last run recorded, treating as first run"
	MsgStateCorrupt    = "Stored last-run value unreadable, treating as first run"
	MsgStateFlushed    = "Last run persisted"
	MsgStateFlushFail  = "Failed to persist last run, value remains stale"
	MsgMissedDays      = "Catching up missed days"
	MsgDailyStart      = "Daily task started"
	MsgDailyDone       = "Daily task finished"
	MsgMonthlyStart    = "Monthly task started"
	MsgMonthlyDone     = "Monthly task finished"
	MsgChannelSkipped  = "Channel unavailable, skipping"
	MsgSendFailed      = "Channel send failed"
	MsgNotified        = "Notification dispatched"
	MsgDaemonStart     = "Scheduler started"
	MsgDaemonStop      = "Scheduler stopping due to context cancellation"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgFeedUpdated     = "Calendar feed updated"
	MsgPurged          = "Birthday events deleted"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgKeyringMiss     = "Webhook token not found in keyring"
	MsgSourceFetch     = "Fetching remote source"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgDryRun          = "Dry run: target calendar left untouched"
	MsgBirthdaysToday  = "Birthdays found for day"
	MsgNoBirthdays     = "No birthdays for day, nothing to send"
	MsgCatchUpComplete = "Missed day processed"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyKind      = "kind"
	LogKeyValue     = "value"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDate      = "date"
	LogKeyDay       = "day"
	LogKeyChannel   = "channel"
	LogKeyRecipient = "recipient"
	LogKeyAdded     = "added"
	LogKeySkipped   = "skipped"
	LogKeyErrors    = "errors"
	LogKeyMissed    = "missed_days"
	LogKeyLastRun   = "last_run"
	LogKeyDuration  = "duration_ms"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyStats     = "stats"
	LogKeySchedule  = "schedule"

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
	CompMain     = "main"
	CompConfig   = "config"
	CompSource   = "source"
	CompCalendar = "calendar"
	CompStore    = "store"
	CompTracker  = "tracker"
	CompEngine   = "engine"
	CompNotify   = "notify"
	CompTask     = "task"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompI18n     = "i18n"
)
