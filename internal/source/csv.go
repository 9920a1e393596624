package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/parse"
)

// CSVSource reads spreadsheet-style rows where cells alternate between name
// and date text. Malformed cell pairs are skipped row by row; only a broken
// stream is an error.
type CSVSource struct {
	Path          string
	User          string
	Pass          string
	SkipHeaderRow bool
	Fetcher       Fetcher
}

// NewCSVSource creates a reader for a local file or http(s) URL.
func NewCSVSource(cfg config.SourceConfig, f Fetcher) *CSVSource {
	return &CSVSource{
		Path:          cfg.Path,
		User:          cfg.User,
		Pass:          cfg.Pass,
		SkipHeaderRow: cfg.SkipHeaderRow,
		Fetcher:       f,
	}
}

// Records implements Source.
func (s *CSVSource) Records(ctx context.Context) ([]parse.Record, error) {
	rc, err := openStream(ctx, s.Fetcher, s.Path, s.User, s.Pass)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	reader := csv.NewReader(rc)
	// Rows may hold a varying number of (name, date) pairs.
	reader.FieldsPerRecord = -1

	var records []parse.Record
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrCSVParse, err)
		}

		if first && s.SkipHeaderRow {
			first = false
			continue
		}
		first = false

		records = append(records, parse.ParseRow(row)...)
	}
	return records, nil
}
