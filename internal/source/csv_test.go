package source_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/source"
)

// stubFetcher serves a fixed body for any URL.
type stubFetcher struct {
	body string
	err  error

	lastURL  string
	lastUser string
	lastPass string
}

func (f *stubFetcher) Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error) {
	f.lastURL = url
	f.lastUser = user
	f.lastPass = pass
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCSVSource_Records(t *testing.T) {
	content := "John Doe,1990-05-15,Jane Smith,02-10\nAlyssa S.,May 22\n"
	path := writeTempFile(t, "birthdays.csv", content)

	src := source.NewCSVSource(config.SourceConfig{Kind: config.SourceKindCSV, Path: path}, nil)

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "John Doe", records[0].FullName())
	assert.Equal(t, 5, records[0].Month)
	assert.Equal(t, 15, records[0].Day)
	assert.Equal(t, 1990, records[0].Year)

	assert.Equal(t, "Jane Smith", records[1].FullName())
	assert.False(t, records[1].HasYear())

	assert.Equal(t, "Alyssa S", records[2].FullName(), "trailing punctuation is sanitized")
	assert.Equal(t, 5, records[2].Month)
	assert.Equal(t, 22, records[2].Day)
}

func TestCSVSource_SkipHeaderRow(t *testing.T) {
	content := "Name,Date\nJohn Doe,1990-05-15\n"
	path := writeTempFile(t, "birthdays.csv", content)

	src := source.NewCSVSource(config.SourceConfig{Path: path, SkipHeaderRow: true}, nil)

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "John Doe", records[0].FullName())
}

func TestCSVSource_SkipsMalformedPairs(t *testing.T) {
	content := "John Doe,1990-05-15,broken cell,not a date\nJane Smith,02-10\n"
	path := writeTempFile(t, "birthdays.csv", content)

	src := source.NewCSVSource(config.SourceConfig{Path: path}, nil)

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "John Doe", records[0].FullName())
	assert.Equal(t, "Jane Smith", records[1].FullName())
}

func TestCSVSource_EmptyFile(t *testing.T) {
	path := writeTempFile(t, "birthdays.csv", "")

	src := source.NewCSVSource(config.SourceConfig{Path: path}, nil)

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := source.NewCSVSource(config.SourceConfig{Path: filepath.Join(t.TempDir(), "absent.csv")}, nil)

	_, err := src.Records(context.Background())
	assert.Error(t, err)
}

func TestCSVSource_RemoteFetch(t *testing.T) {
	fetcher := &stubFetcher{body: "John Doe,1990-05-15\n"}
	src := source.NewCSVSource(config.SourceConfig{
		Path: "https://sheets.example.com/export.csv",
		User: "u",
		Pass: "p",
	}, fetcher)

	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "https://sheets.example.com/export.csv", fetcher.lastURL)
	assert.Equal(t, "u", fetcher.lastUser)
	assert.Equal(t, "p", fetcher.lastPass)
}

func TestCSVSource_ContextCancellation(t *testing.T) {
	path := writeTempFile(t, "birthdays.csv", "John Doe,1990-05-15\n")
	src := source.NewCSVSource(config.SourceConfig{Path: path}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Records(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
