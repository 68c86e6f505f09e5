// Package errors defines the error taxonomy for the decensor tool.
package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a post ID is absent from every local batch.
// A miss is an expected outcome, not a failure.
var ErrNotFound = errors.New("post id not found in any batch")

// ListingError reports that the remote batch listing could not be
// retrieved or parsed. It aborts the current sync attempt without
// advancing the sync date.
type ListingError struct {
	URL    string
	Status int
	Err    error
}

func (e *ListingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("batch listing failed (status %d): %s", e.Status, e.URL)
	}
	return fmt.Sprintf("batch listing failed: %s: %v", e.URL, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// FetchError reports that a single batch download failed. It is non-fatal
// to a sync; the batch is skipped and the rest proceed.
type FetchError struct {
	Batch  string
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("batch %s fetch failed (status %d): %s", e.Batch, e.Status, e.URL)
	}
	return fmt.Sprintf("batch %s fetch failed: %s: %v", e.Batch, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedRecordError reports a batch line that is not in the expected
// "id:md5.ext" shape. It is never swallowed; corrupt data fails loudly.
type MalformedRecordError struct {
	Batch string
	Line  int
	Text  string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record in batch %s line %d: %q", e.Batch, e.Line, e.Text)
}

// IsNotFound reports whether err is a lookup miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether the error is worth retrying. Network-level
// failures and retryable HTTP statuses qualify; malformed data and lookup
// misses never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var listErr *ListingError
	if errors.As(err, &listErr) {
		return IsRetryableStatusCode(listErr.Status)
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return IsRetryableStatusCode(fetchErr.Status)
	}

	var malformed *MalformedRecordError
	if errors.As(err, &malformed) {
		return false
	}

	if errors.Is(err, ErrNotFound) {
		return false
	}

	return false
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
