package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindInvalidURL Kind = "invalid_url"
	KindNetwork    Kind = "network"
	KindStatus     Kind = "status"
	KindNotHTML    Kind = "not_html"
	KindTooLarge   Kind = "too_large"
)

// Error is returned for every failed fetch. It is never an audit result.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int // set for KindStatus
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a fetch error anywhere in err's chain, or the
// empty string.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
