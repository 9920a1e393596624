// Package source reads birthday records out of external collaborators:
// spreadsheet-style CSV rows or vCard contact files, local or remote.
package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/parse"
)

// Source is the read side of the sync: it yields the canonical records the
// engine reconciles against the target calendar.
type Source interface {
	Records(ctx context.Context) ([]parse.Record, error)
}

// Records is a fixed in-memory Source for tests and composition.
type Records []parse.Record

// Records implements Source.
func (r Records) Records(ctx context.Context) ([]parse.Record, error) {
	return r, nil
}

// openStream opens a local file or, for http(s) paths, fetches via f.
func openStream(ctx context.Context, f Fetcher, path, user, pass string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, config.SchemeHTTP+"://") || strings.HasPrefix(path, config.SchemeHTTPS+"://") {
		return f.Fetch(ctx, path, user, pass)
	}
	return os.Open(path)
}
