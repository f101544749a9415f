package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrNoQuestions means the search returned nothing usable, even after broadening.
	ErrNoQuestions = errors.New("no questions found")
	// ErrIDUnsupported means the event has no identification questions.
	ErrIDUnsupported = errors.New("event does not support identification questions")
	// ErrNoScore means a grading response carried no numeric score.
	ErrNoScore = errors.New("grading response contained no score")
	// ErrInvalidResponse means a response failed schema validation.
	ErrInvalidResponse = errors.New("response failed validation")
)

// StatusError is a non-2xx answer from the question service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("question service returned status %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports an HTTP 429 from upstream.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// IsAuthFailure reports an HTTP 401 or 403 from upstream.
func IsAuthFailure(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden)
}

// IsTransient reports failures worth retrying: 5xx, 429 and client-side timeouts.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
