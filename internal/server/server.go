// Package server exposes the mirror calendar over localhost HTTP so a
// phone or desktop calendar app can subscribe to the synced birthdays.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// feedItem stores the rendered calendar and its metadata for HTTP caching.
type feedItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers

	// sourceTime is the mirror file mtime this snapshot was rendered from,
	// zero for snapshots pushed through Update.
	sourceTime time.Time
}

// FeedSource supplies the mirror calendar's current payload. ModTime exists
// so the server can detect staleness with a stat instead of a full read.
type FeedSource interface {
	Bytes() ([]byte, error)
	ModTime() (time.Time, error)
}

// FeedServer serves the ICS feed produced by the sync engine.
type FeedServer struct {
	// feed uses atomic.Pointer for lock-free reads: clients poll the feed
	// far more often than a sync refreshes it.
	feed atomic.Pointer[feedItem]
	Port string

	// Source, when set, lets requests re-render the feed after another
	// process rewrites the mirror file. Without it the server keeps
	// whatever Update pushed last.
	Source FeedSource

	// refreshMu serializes the slow re-render path only; request reads
	// stay on the atomic pointer.
	refreshMu sync.Mutex
}

// NewFeedServer creates a server bound to localhost on the given port.
func NewFeedServer(port string) *FeedServer {
	return &FeedServer{Port: port}
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return fmt.Errorf("%s", config.ErrPortRequired)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.handleFeedRequest)

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      mux,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served feed. The orchestrator calls it
// after every successful sync.
func (s *FeedServer) Update(data []byte) {
	s.store(data, time.Time{})
}

func (s *FeedServer) store(data []byte, sourceTime time.Time) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))
	lastMod := time.Now().UTC().Format(http.TimeFormat)

	// Atomic store: a concurrent reader sees either the old or the new
	// complete item, never a partial state.
	s.feed.Store(&feedItem{
		data:         data,
		etag:         etag,
		lastModified: lastMod,
		sourceTime:   sourceTime,
	})

	slog.Debug(config.MsgFeedUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// refresh re-renders the feed when the mirror file changed since the served
// snapshot was taken. The sync and daily tasks run in separate processes, so
// the mtime is the only signal the server gets that the mirror moved.
func (s *FeedServer) refresh() {
	if s.Source == nil {
		return
	}

	mtime, err := s.Source.ModTime()
	if err != nil {
		slog.Warn(config.ErrFeedStat,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
		return
	}
	if cur := s.feed.Load(); cur != nil && !mtime.After(cur.sourceTime) {
		return
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	// Re-check under the lock: a concurrent request may have re-rendered.
	if cur := s.feed.Load(); cur != nil && !mtime.After(cur.sourceTime) {
		return
	}

	data, err := s.Source.Bytes()
	if err != nil {
		slog.Error(config.ErrFeedRefresh,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
		return
	}
	s.store(data, mtime)
}

// handleFeedRequest serves the ICS content with HTTP caching support.
func (s *FeedServer) handleFeedRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	s.refresh()

	item := s.feed.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
