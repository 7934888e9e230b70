package store

import (
	"errors"
	"fmt"
)

// Kind classifies store failures.
type Kind int

const (
	Unknown Kind = iota
	NotInitialized
	InvalidIdentity
	StoreUnavailable
	InvalidArticle
	InvalidArgument
	NotFound
	MaxLimitReached
	WriteFailed
	ReadFailed
)

func (k Kind) String() string {
	switch k {
	case NotInitialized:
		return "store not initialized"
	case InvalidIdentity:
		return "invalid user identity"
	case StoreUnavailable:
		return "store unavailable"
	case InvalidArticle:
		return "article has no link"
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case MaxLimitReached:
		return "max limit reached"
	case WriteFailed:
		return "write failed"
	case ReadFailed:
		return "read failed"
	}
	return "unknown store error"
}

// Error is the only error type returned by this package. Engine errors are
// carried in Err and never returned bare.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by kind, so errors.Is(err, ErrNotFound) holds for any NotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotInitialized   = &Error{Kind: NotInitialized}
	ErrInvalidIdentity  = &Error{Kind: InvalidIdentity}
	ErrStoreUnavailable = &Error{Kind: StoreUnavailable}
	ErrInvalidArticle   = &Error{Kind: InvalidArticle}
	ErrInvalidArgument  = &Error{Kind: InvalidArgument}
	ErrNotFound         = &Error{Kind: NotFound}
	ErrMaxLimitReached  = &Error{Kind: MaxLimitReached}
	ErrWriteFailed      = &Error{Kind: WriteFailed}
	ErrReadFailed       = &Error{Kind: ReadFailed}
)

// KindOf returns the kind of err, or Unknown if err is not a store error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalidArgument(op, format string, args ...any) *Error {
	return newError(InvalidArgument, op, fmt.Errorf(format, args...))
}

// convert keeps store errors as they are and files anything else under kind.
func convert(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(kind, op, err)
}
