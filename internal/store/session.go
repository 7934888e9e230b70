// Package store is the per-user local persistence layer: one SQLite file per
// user identity holding article snapshots and the marker collections that
// reference them.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	fileName            = "newsdesk.db"
	defaultHistoryLimit = 20
)

// userNamespace seeds the name-based UUIDs used as per-user directory names.
var userNamespace = uuid.MustParse("6f2b1c8e-4d1a-5b3e-9a57-2c0d8e41f6a3")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for saved/searched timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithHistoryLimit caps the number of search history entries kept.
// Zero or less keeps everything.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.historyLimit = n }
}

// Session owns the storage handle of one user. All mutations go through
// Write, which admits one writer at a time.
//
// A nil *Session is valid: writes fail with NotInitialized and reads return
// empty results with NotInitialized.
type Session struct {
	ID     uuid.UUID
	UserID string
	Path   string

	db           atomic.Pointer[sqlx.DB]
	mu           sync.Mutex
	now          func() time.Time
	historyLimit int
}

// UserDir returns the directory holding userID's store under dataDir.
func UserDir(dataDir, userID string) string {
	id := uuid.NewSHA1(userNamespace, []byte(userID))
	return filepath.Join(dataDir, "users", id.String())
}

// Open opens or creates the store of userID, migrating it to the current
// schema. Failures other than a blank identity are StoreUnavailable.
func Open(ctx context.Context, dataDir, userID string, opts ...Option) (*Session, error) {
	const op = "open store"
	if strings.TrimSpace(userID) == "" {
		return nil, newError(InvalidIdentity, op, nil)
	}

	dir := UserDir(dataDir, userID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, newError(StoreUnavailable, op, err)
	}
	path := filepath.Join(dir, fileName)

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, newError(StoreUnavailable, op, fmt.Errorf("open sqlite %s: %w", path, err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, newError(StoreUnavailable, op, fmt.Errorf("ping %s: %w", path, err))
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, newError(StoreUnavailable, op, err)
	}

	s := &Session{
		ID:           uuid.New(),
		UserID:       userID,
		Path:         path,
		now:          time.Now,
		historyLimit: defaultHistoryLimit,
	}
	for _, o := range opts {
		o(s)
	}
	s.db.Store(db)

	slog.Debug("Store opened", "user", userID, "session", s.ID, "path", path)
	return s, nil
}

// Close releases the handle. Data stays on disk. Safe to call twice.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db.Swap(nil)
	if db == nil {
		return nil
	}
	slog.Debug("Store closed", "user", s.UserID, "session", s.ID)
	return db.Close()
}

// Live reports whether the session still holds an open handle.
func (s *Session) Live() bool {
	return s != nil && s.db.Load() != nil
}

func (s *Session) timestamp() int64 {
	return s.now().UTC().UnixNano()
}

type txKey struct{}

type openTx struct {
	session *Session
	tx      *sqlx.Tx
}

// Write runs fn in a transaction, committing only if fn returns nil. A Write
// made with a context handed out by an enclosing Write joins that transaction.
func (s *Session) Write(ctx context.Context, op string, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	if s == nil {
		return newError(NotInitialized, op, nil)
	}
	if cur, ok := ctx.Value(txKey{}).(*openTx); ok && cur.session == s {
		return convert(WriteFailed, op, fn(ctx, cur.tx))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db.Load()
	if db == nil {
		return newError(NotInitialized, op, nil)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return newError(WriteFailed, op, err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, &openTx{session: s, tx: tx}), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("Rollback failed", "op", op, "error", rbErr)
		}
		return convert(WriteFailed, op, err)
	}
	if err := tx.Commit(); err != nil {
		return newError(WriteFailed, op, err)
	}
	return nil
}

// Read runs fn against the database, or against the open transaction when
// called from inside a Write.
func (s *Session) Read(ctx context.Context, op string, fn func(ctx context.Context, q sqlx.QueryerContext) error) error {
	if s == nil {
		return newError(NotInitialized, op, nil)
	}
	if cur, ok := ctx.Value(txKey{}).(*openTx); ok && cur.session == s {
		return convert(ReadFailed, op, fn(ctx, cur.tx))
	}
	db := s.db.Load()
	if db == nil {
		return newError(NotInitialized, op, nil)
	}
	return convert(ReadFailed, op, fn(ctx, db))
}
