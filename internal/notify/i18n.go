package notify

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translation keys for notification messages.
const (
	tKeyToday         = "birthday_today"
	tKeyTodayAge      = "birthday_today_age"
	tKeyBelated       = "birthday_belated"
	tKeyMonthlyHeader = "monthly_header"
	tKeyMonthlyLine   = "monthly_line"
	tKeyMonthlyEmpty  = "monthly_empty"
)

// Formatter renders localized notification text.
type Formatter struct {
	localizer *i18n.Localizer
}

// NewFormatter loads the embedded locale bundle and selects lang, falling
// back to English for missing translations.
func NewFormatter(lang string) *Formatter {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyFile, name,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	return &Formatter{
		localizer: i18n.NewLocalizer(bundle, lang, config.DefaultLanguage),
	}
}

// TodayLine renders the message for a birthday happening today.
// Age 0 means the birth year is unknown.
func (f *Formatter) TodayLine(name string, age int) string {
	if age > 0 {
		return f.msg(tKeyTodayAge, map[string]any{"Name": name, "Age": age})
	}
	return f.msg(tKeyToday, map[string]any{"Name": name})
}

// BelatedLine renders the catch-up message for a missed day.
func (f *Formatter) BelatedLine(name, date string) string {
	return f.msg(tKeyBelated, map[string]any{"Name": name, "Date": date})
}

// MonthlyHeader renders the digest header for a month.
func (f *Formatter) MonthlyHeader(month string) string {
	return f.msg(tKeyMonthlyHeader, map[string]any{"Month": month})
}

// MonthlyLine renders one digest entry.
func (f *Formatter) MonthlyLine(name, date string) string {
	return f.msg(tKeyMonthlyLine, map[string]any{"Name": name, "Date": date})
}

// MonthlyEmpty renders the digest for a month without birthdays.
func (f *Formatter) MonthlyEmpty(month string) string {
	return f.msg(tKeyMonthlyEmpty, map[string]any{"Month": month})
}

// msg translates a key safely, returning the key itself when the
// translation is missing so a delivery never fails on localization.
func (f *Formatter) msg(key string, data map[string]any) string {
	out, err := f.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return out
}
