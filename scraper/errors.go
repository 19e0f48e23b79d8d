package scraper

import (
	"errors"
	"fmt"
)

// Each typed failure names the label it is counted under in
// ScraperResult.ErrorsByType and the errors_total metric.
type labeled interface {
	error
	label() string
}

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct{ Err error }

func (e ErrTimeout) Error() string { return fmt.Sprintf("timeout: %v", e.Err) }
func (e ErrTimeout) Unwrap() error { return e.Err }
func (ErrTimeout) label() string   { return "timeout" }

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct{ Err error }

func (e ErrConnection) Error() string { return fmt.Sprintf("connection: %v", e.Err) }
func (e ErrConnection) Unwrap() error { return e.Err }
func (ErrConnection) label() string   { return "connection" }

// ErrForbidden indicates HTTP 403.
type ErrForbidden struct{ Err error }

func (e ErrForbidden) Error() string { return fmt.Sprintf("forbidden: %v", e.Err) }
func (e ErrForbidden) Unwrap() error { return e.Err }
func (ErrForbidden) label() string   { return "forbidden" }

// ErrNotFound indicates HTTP 404, typically a stale category or page link.
type ErrNotFound struct{ Err error }

func (e ErrNotFound) Error() string { return fmt.Sprintf("not_found: %v", e.Err) }
func (e ErrNotFound) Unwrap() error { return e.Err }
func (ErrNotFound) label() string   { return "not_found" }

// ErrRateLimited indicates HTTP 429.
type ErrRateLimited struct{ Err error }

func (e ErrRateLimited) Error() string { return fmt.Sprintf("rate_limited: %v", e.Err) }
func (e ErrRateLimited) Unwrap() error { return e.Err }
func (ErrRateLimited) label() string   { return "rate_limited" }

// ErrServer indicates a 5xx response.
type ErrServer struct {
	Err    error
	Status int
}

func (e ErrServer) Error() string { return fmt.Sprintf("server_error %d: %v", e.Status, e.Err) }
func (e ErrServer) Unwrap() error { return e.Err }
func (ErrServer) label() string   { return "server_error" }

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var l labeled
	if errors.As(err, &l) {
		return l.label()
	}
	return "other"
}
