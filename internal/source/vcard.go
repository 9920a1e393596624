package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/parse"
)

// VCardSource reads records from a vCard contact stream. Cards without a
// parseable BDAY are skipped; a malformed card never aborts the scan, to
// maximize data recovery.
type VCardSource struct {
	Path    string
	User    string
	Pass    string
	Fetcher Fetcher
}

// NewVCardSource creates a reader for a local .vcf file or http(s) URL.
func NewVCardSource(cfg config.SourceConfig, f Fetcher) *VCardSource {
	return &VCardSource{
		Path:    cfg.Path,
		User:    cfg.User,
		Pass:    cfg.Pass,
		Fetcher: f,
	}
}

// Records implements Source.
func (s *VCardSource) Records(ctx context.Context) ([]parse.Record, error) {
	rc, err := openStream(ctx, s.Fetcher, s.Path, s.User, s.Pass)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	defer func() { _ = rc.Close() }()

	decoder := vcard.NewDecoder(rc)

	var records []parse.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgCardSkipped,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyError, err,
			)
			continue
		}

		bday := card.Get(vcard.FieldBirthday)
		if bday == nil || bday.Value == "" {
			continue
		}

		month, day, year, ok := parseBDAY(bday.Value)
		if !ok {
			slog.Debug(config.MsgDateSkipped,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyValue, bday.Value,
			)
			continue
		}

		// Name strategy: FN (formatted) > N (structured).
		name := ""
		if fn := card.Get(vcard.FieldFormattedName); fn != nil {
			name = fn.Value
		} else if n := card.Name(); n != nil {
			name = n.GivenName + " " + n.FamilyName
		}

		rec, ok := parse.NewRecord(name, month, day, year)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseBDAY handles the vCard date shapes: full dates and the truncated
// --MM-DD forms that omit the year.
func parseBDAY(value string) (month, day, year int, ok bool) {
	for _, layout := range []string{config.DateFormatFullDash, config.DateFormatFullBasic} {
		if t, err := time.Parse(layout, value); err == nil {
			return int(t.Month()), t.Day(), t.Year(), true
		}
	}
	for _, layout := range []string{config.DateFormatNoYearD, config.DateFormatNoYearB} {
		if t, err := time.Parse(layout, value); err == nil {
			return int(t.Month()), t.Day(), 0, true
		}
	}
	return 0, 0, 0, false
}
