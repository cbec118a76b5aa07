package importer

import (
	"errors"
	"fmt"
)

// Kind classifies an import failure for the HTTP layer.
type Kind int

const (
	// KindInternal is an unanticipated failure.
	KindInternal Kind = iota
	// KindBadRequest covers missing or malformed input and disallowed targets.
	KindBadRequest
	// KindUnprocessable means nothing usable could be extracted, or the result
	// failed validation.
	KindUnprocessable
	// KindUpstream covers page fetch and generative backend failures.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnprocessable:
		return "unprocessable"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is returned by Import for every failure.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Source  Source
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import: %s: %v", e.Message, e.Err)
	}
	return "import: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Sentinel errors for the fetch and extraction stages.
var (
	ErrHostNotAllowed        = errors.New("host not allowed")
	ErrFetchTooLarge         = errors.New("response body too large")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrUpstreamStatus        = errors.New("upstream returned non-2xx status")
	ErrLLMRequest            = errors.New("llm request failed")
	ErrLLMParse              = errors.New("llm response is not a JSON object")
)

// StatusError records the status code of a failed upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }
