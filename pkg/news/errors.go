package news

import "fmt"

// FetchErrorKind classifies network failures.
type FetchErrorKind string

const (
	InvalidStatusCode FetchErrorKind = "invalid status code"
	DecodingError     FetchErrorKind = "decoding error"
	NoData            FetchErrorKind = "no data"
	Transport         FetchErrorKind = "transport"
)

// FetchError is returned by fetchers for every failed request.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.Source, e.Kind)
	if e.Kind == InvalidStatusCode {
		msg = fmt.Sprintf("%s %d", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches any *FetchError of the same kind, so callers can test
// errors.Is(err, &news.FetchError{Kind: news.NoData}).
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
