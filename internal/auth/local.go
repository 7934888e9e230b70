// Package auth provides the local identity provider used by the CLI and the
// daemon. It only remembers who is logged in; credentials are out of scope.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const currentUserFile = "current_user"

// ErrBlankUser is returned when logging in without a user id.
var ErrBlankUser = errors.New("user id must not be empty")

// Local persists the current user id in a file under the data directory and
// notifies subscribers when it changes.
type Local struct {
	path string

	mu        sync.Mutex
	current   string
	nextID    int
	listeners map[int]func(string)
}

// NewLocal loads the current user from dataDir, if any.
func NewLocal(dataDir string) (*Local, error) {
	l := &Local{
		path:      filepath.Join(dataDir, currentUserFile),
		listeners: make(map[int]func(string)),
	}
	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		l.current = strings.TrimSpace(string(data))
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read current user: %w", err)
	}
	return l, nil
}

// Current returns the logged-in user id, or "" if nobody is logged in.
func (l *Local) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Login makes userID the current user.
func (l *Local) Login(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrBlankUser
	}
	return l.set(userID)
}

// Logout clears the current user.
func (l *Local) Logout() error {
	return l.set("")
}

// Subscribe registers fn to be called with the new user id after every change.
func (l *Local) Subscribe(fn func(userID string)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

func (l *Local) set(userID string) error {
	l.mu.Lock()
	if l.current == userID {
		l.mu.Unlock()
		return nil
	}
	if err := l.persist(userID); err != nil {
		l.mu.Unlock()
		return err
	}
	l.current = userID
	listeners := make([]func(string), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(userID)
	}
	return nil
}

func (l *Local) persist(userID string) error {
	if userID == "" {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clear current user: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(userID+"\n"), 0o600); err != nil {
		return fmt.Errorf("write current user: %w", err)
	}
	return nil
}
