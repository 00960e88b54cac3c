package api

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindNetwork covers transport failures and non-2xx responses.
	KindNetwork ErrorKind = "network"
	// KindDeserialization means the body did not have the expected shape.
	KindDeserialization ErrorKind = "deserialization"
)

// ErrNotFound marks a 404 response.
var ErrNotFound = errors.New("not found")

type FetchError struct {
	Kind   ErrorKind
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries a FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

func retryableStatus(status int) bool {
	return status == 429 || status >= 500
}
