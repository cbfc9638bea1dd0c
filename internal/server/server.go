package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/engine"
)

// cacheItem stores one rendered document and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	contentType  string
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// feed is the pair of documents published together on every refresh.
type feed struct {
	calendar *cacheItem
	upcoming *cacheItem
}

// UpcomingEntry is the JSON shape of one upcoming birthday.
type UpcomingEntry struct {
	Name      string    `json:"name"`
	Birthday  string    `json:"birthday"`
	DaysUntil int       `json:"days_until"`
	Next      time.Time `json:"next"`
}

// FeedServer serves the birthday calendar and the upcoming list on localhost.
type FeedServer struct {
	// Both documents are swapped together so a client never sees a calendar
	// and an upcoming list from different refreshes.
	cache atomic.Pointer[feed]
	Port  string
}

// NewFeedServer creates a new instance of the server.
func NewFeedServer(port string) *FeedServer {
	return &FeedServer{
		Port: port,
	}
}

// Handler returns the routes served by the feed server.
func (s *FeedServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.handleCalendarRequest)
	mux.HandleFunc(config.RouteCalendar, s.handleCalendarRequest)
	mux.HandleFunc(config.RouteUpcoming, s.handleUpcomingRequest)
	return mux
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Update atomically replaces the served calendar and upcoming list.
func (s *FeedServer) Update(ics []byte, upcoming []engine.BirthdayWindow) error {
	entries := make([]UpcomingEntry, 0, len(upcoming))
	for _, w := range upcoming {
		entries = append(entries, UpcomingEntry{
			Name:      w.Contact.Name,
			Birthday:  w.DayMonth.String(),
			DaysUntil: w.DaysUntil,
			Next:      w.Next,
		})
	}
	body, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrEncodeUpcoming, err)
	}

	now := time.Now()
	next := &feed{
		calendar: newCacheItem(ics, config.MimeTextCalendar, now),
		upcoming: newCacheItem(body, config.MimeJSON, now),
	}
	s.cache.Store(next)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(ics),
		config.LogKeyETag, next.calendar.etag,
		config.LogKeyTotal, len(entries),
	)
	return nil
}

func newCacheItem(data []byte, contentType string, at time.Time) *cacheItem {
	hash := sha256.Sum256(data)
	return &cacheItem{
		data:         data,
		contentType:  contentType,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: at.UTC().Format(http.TimeFormat),
	}
}

func (s *FeedServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	var item *cacheItem
	if f := s.cache.Load(); f != nil {
		item = f.calendar
	}
	serveCached(w, r, item)
}

func (s *FeedServer) handleUpcomingRequest(w http.ResponseWriter, r *http.Request) {
	var item *cacheItem
	if f := s.cache.Load(); f != nil {
		item = f.upcoming
	}
	serveCached(w, r, item)
}

// serveCached writes item with HTTP caching support. A nil item means the
// first refresh has not completed yet.
func serveCached(w http.ResponseWriter, r *http.Request, item *cacheItem) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, item.contentType)
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
