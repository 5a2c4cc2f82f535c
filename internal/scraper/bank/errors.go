package bank

import (
	"errors"
	"fmt"
)

var (
	ErrSiteError             = errors.New("site returned a system error")
	ErrIdentityMismatch      = errors.New("site identity phrase mismatch")
	ErrChallengeUnanswerable = errors.New("no answer found for security question")
	ErrTransportFailure      = errors.New("transport failure")
	ErrExtractionMiss        = errors.New("expected element not found")
	ErrUnknownAccount        = errors.New("account not found in export catalog")
)

// Process outcome codes. Every fatal condition has its own code so wrapper
// scripts can tell a spoofed page apart from a maintenance banner.
const (
	ExitOK = iota
	ExitGeneric
	ExitSiteError
	ExitChallengeUnanswerable
	ExitTransportFailure
	ExitIdentityMismatch
	ExitExtractionMiss
	ExitUnknownAccount
)

// ScraperError provides detailed error context
type ScraperError struct {
	BankCode  BankCode
	Operation string
	Cause     error
	Details   string
}

func (e *ScraperError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s failed: %v", e.BankCode, e.Operation, e.Cause)
	}
	return fmt.Sprintf("[%s] %s failed: %v - %s", e.BankCode, e.Operation, e.Cause, e.Details)
}

func (e *ScraperError) Unwrap() error {
	return e.Cause
}

// ExitCode maps an error returned by a scraper to the process outcome code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrSiteError):
		return ExitSiteError
	case errors.Is(err, ErrChallengeUnanswerable):
		return ExitChallengeUnanswerable
	case errors.Is(err, ErrTransportFailure):
		return ExitTransportFailure
	case errors.Is(err, ErrIdentityMismatch):
		return ExitIdentityMismatch
	case errors.Is(err, ErrExtractionMiss):
		return ExitExtractionMiss
	case errors.Is(err, ErrUnknownAccount):
		return ExitUnknownAccount
	default:
		return ExitGeneric
	}
}
