package output

import (
	"errors"
	"fmt"

	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/fatih/color"
)

// Exit codes.
const (
	ExitSuccess  = 0
	ExitGeneral  = 1
	ExitNoUser   = 2
	ExitNotFound = 3
	ExitNetwork  = 4
)

// CLIError is an error with a suggestion for the user.
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
}

func (e *CLIError) Error() string {
	return e.Summary
}

// Describe turns err into a CLIError with a suggestion where one helps.
func Describe(err error) *CLIError {
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce
	}
	e := &CLIError{Summary: err.Error(), ExitCode: ExitGeneral}

	switch store.KindOf(err) {
	case store.NotInitialized:
		e.Summary = "nobody is logged in"
		e.Suggestion = "run 'newsdesk login <user>' or set NEWSDESK_USER"
		e.ExitCode = ExitNoUser
		return e
	case store.NotFound:
		e.ExitCode = ExitNotFound
		return e
	case store.MaxLimitReached:
		e.Suggestion = fmt.Sprintf("remove a favorite first, at most %d are kept", store.MaxFavoriteCategories)
		return e
	case store.StoreUnavailable:
		e.Suggestion = "check that the data directory is writable"
		return e
	}

	var fe *news.FetchError
	if errors.As(err, &fe) {
		e.ExitCode = ExitNetwork
		e.Suggestion = "check your connection and the configured feeds"
	}
	return e
}

// FormatError prints e to stderr.
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
	}
	if e.Detail != "" {
		fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
	}
}
