package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/elonfeng/newsdesk/internal/feed"
	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// UserHeader carries the identity of the calling user.
const UserHeader = "X-User-ID"

// maxSearchers bounds the number of users whose search caches are kept.
const maxSearchers = 256

// Options configures the server. Host defaults to the loopback interface.
type Options struct {
	Host            string
	Port            int
	Search          feed.SearchOptions
	OfflineCategory news.Category
	OfflineLimit    int
	PerCategory     int
}

// Server provides the local HTTP API over the per-user stores.
type Server struct {
	registry *store.Registry
	fetcher  news.Fetcher
	opts     Options

	mu        sync.Mutex
	searchers *lru.Cache[string, *userSearcher]
}

// userSearcher is the searcher of one user and the session its history is
// bound to.
type userSearcher struct {
	session  uuid.UUID
	searcher *feed.Searcher
}

// New creates a new HTTP server.
func New(registry *store.Registry, fetcher news.Fetcher, opts Options) *Server {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.OfflineCategory == "" {
		opts.OfflineCategory = news.CategoryGeneral
	}
	if opts.OfflineLimit == 0 {
		opts.OfflineLimit = 20
	}
	if opts.PerCategory == 0 {
		opts.PerCategory = 10
	}
	searchers, _ := lru.NewWithEvict(maxSearchers, func(_ string, us *userSearcher) {
		us.searcher.Stop()
	})
	return &Server{
		registry:  registry,
		fetcher:   fetcher,
		opts:      opts,
		searchers: searchers,
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/bookmarks", s.handleBookmarks)
	mux.HandleFunc("/api/v1/offline", s.handleOffline)
	mux.HandleFunc("/api/v1/offline/refresh", s.handleOfflineRefresh)
	mux.HandleFunc("/api/v1/favorites", s.handleFavorites)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/search", s.handleSearch)
	mux.HandleFunc("/api/v1/yournews", s.handleYourNews)
	mux.HandleFunc("/api/v1/cleanup", s.handleCleanup)
	return mux
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("newsdesk server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.library(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		articles, err := lib.Bookmarks.GetAll(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeList(w, articles)
	case http.MethodPost:
		var a news.Article
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid article: " + err.Error()})
			return
		}
		if err := lib.Bookmarks.Save(ctx, a); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	case http.MethodDelete:
		if err := lib.RemoveBookmark(ctx, r.URL.Query().Get("link")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleOffline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lib, ok := s.library(w, r)
	if !ok {
		return
	}

	if link := r.URL.Query().Get("link"); link != "" {
		a, err := lib.Offline.Get(r.Context(), link)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	articles, err := lib.Offline.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, articles)
}

func (s *Server) handleOfflineRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	lib, ok := s.library(w, r)
	if !ok {
		return
	}

	category := s.opts.OfflineCategory
	if c := r.URL.Query().Get("category"); c != "" {
		parsed, err := news.ParseCategory(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		category = parsed
	}

	res, err := lib.RefreshOffline(r.Context(), s.fetcher, category, s.opts.OfflineLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.library(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodGet {
		categories, err := lib.Favorites.GetAll(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeList(w, categories)
		return
	}

	category, err := news.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := lib.Favorites.Save(ctx, category); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"category": string(category)})
	case http.MethodDelete:
		if err := lib.Favorites.Remove(ctx, category); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.library(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		entries, err := lib.History.GetAll(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeList(w, entries)
	case http.MethodDelete:
		var err error
		if keyword := r.URL.Query().Get("keyword"); keyword != "" {
			err = lib.History.Delete(ctx, keyword)
		} else {
			err = lib.History.Clear(ctx)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lib, ok := s.library(w, r)
	if !ok {
		return
	}

	articles, err := s.searcher(lib).Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, articles)
}

func (s *Server) handleYourNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lib, ok := s.library(w, r)
	if !ok {
		return
	}

	perCategory := s.opts.PerCategory
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		perCategory = n
	}

	articles, err := lib.YourNews(r.Context(), s.fetcher, perCategory)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, articles)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	lib, ok := s.library(w, r)
	if !ok {
		return
	}

	n, err := lib.Cleanup(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// library resolves the calling user's session, writing the error response
// itself when that fails.
func (s *Server) library(w http.ResponseWriter, r *http.Request) (*feed.Library, bool) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeError(w, store.ErrNotInitialized)
		return nil, false
	}
	session, err := s.registry.Login(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return feed.NewLibrary(session), true
}

// searcher returns the Searcher of the library's user, rebinding its history
// when the user got a new session since the last search.
func (s *Server) searcher(lib *feed.Library) *feed.Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := lib.Session.UserID
	if us, ok := s.searchers.Get(user); ok {
		if us.session != lib.Session.ID {
			us.searcher.SetHistory(lib.History)
			us.session = lib.Session.ID
		}
		return us.searcher
	}
	us := &userSearcher{
		session:  lib.Session.ID,
		searcher: feed.NewSearcher(s.fetcher, lib.History, s.opts.Search),
	}
	s.searchers.Add(user, us)
	return us.searcher
}

func statusOf(err error) int {
	switch store.KindOf(err) {
	case store.NotFound:
		return http.StatusNotFound
	case store.InvalidArticle, store.InvalidArgument, store.InvalidIdentity:
		return http.StatusBadRequest
	case store.MaxLimitReached:
		return http.StatusConflict
	case store.NotInitialized:
		return http.StatusUnauthorized
	}
	var fe *news.FetchError
	if errors.As(err, &fe) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeList[T any](w http.ResponseWriter, data []T) {
	if data == nil {
		data = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"count": len(data),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
