package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// IdentitySource reports the logged-in user and announces changes.
// An empty user id means nobody is logged in.
type IdentitySource interface {
	Current() string
	Subscribe(fn func(userID string)) (cancel func())
}

// Registry keeps at most one open Session per user id.
type Registry struct {
	dataDir string
	opts    []Option

	mu       sync.Mutex
	sessions map[string]*Session
	current  string
}

// NewRegistry creates a registry rooted at dataDir.
func NewRegistry(dataDir string, opts ...Option) *Registry {
	return &Registry{
		dataDir:  dataDir,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// DataDir returns the directory user stores live under.
func (r *Registry) DataDir() string {
	return r.dataDir
}

// Login returns the open session of userID, opening it if needed.
func (r *Registry) Login(ctx context.Context, userID string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newError(InvalidIdentity, "login", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok && s.Live() {
		return s, nil
	}
	s, err := Open(ctx, r.dataDir, userID, r.opts...)
	if err != nil {
		return nil, err
	}
	r.sessions[userID] = s
	slog.Info("User session started", "user", userID, "session", s.ID)
	return s, nil
}

// Get returns the open session of userID, or nil.
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// Current returns the session of the user reported by the followed
// IdentitySource, or nil.
func (r *Registry) Current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" {
		return nil
	}
	return r.sessions[r.current]
}

// Logout closes the session of userID. On-disk data is kept.
func (r *Registry) Logout(userID string) error {
	r.mu.Lock()
	s := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if s == nil {
		return nil
	}
	slog.Info("User session ended", "user", userID, "session", s.ID)
	return s.Close()
}

// DeleteAccount closes the session of userID and removes its data.
func (r *Registry) DeleteAccount(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return newError(InvalidIdentity, "delete account", nil)
	}
	if err := r.Logout(userID); err != nil {
		return fmt.Errorf("close store of %s: %w", userID, err)
	}
	if err := os.RemoveAll(UserDir(r.dataDir, userID)); err != nil {
		return fmt.Errorf("remove store of %s: %w", userID, err)
	}
	slog.Info("User data deleted", "user", userID)
	return nil
}

// Follow keeps the registry in step with src: the current user is logged in
// and a switch of user logs the previous one out. Open failures are logged
// and leave no current session, so dependent features degrade to no-ops.
func (r *Registry) Follow(ctx context.Context, src IdentitySource) (cancel func()) {
	r.switchTo(ctx, src.Current())
	return src.Subscribe(func(userID string) {
		r.switchTo(ctx, userID)
	})
}

func (r *Registry) switchTo(ctx context.Context, userID string) {
	r.mu.Lock()
	prev := r.current
	r.current = userID
	r.mu.Unlock()

	if prev != "" && prev != userID {
		if err := r.Logout(prev); err != nil {
			slog.Warn("Failed to close previous session", "user", prev, "error", err)
		}
	}
	if userID == "" {
		return
	}
	if _, err := r.Login(ctx, userID); err != nil {
		slog.Error("Failed to open user store", "user", userID, "error", err)
	}
}

// Close closes every open session.
func (r *Registry) Close() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.current = ""
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
