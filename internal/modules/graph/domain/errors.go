package domain

import (
	"fmt"

	apperrors "flavorlab/internal/platform/errors"
)

// UnknownNodeError reports a lookup of an id or name absent from the index.
type UnknownNodeError struct {
	Key    string
	ByName bool
}

func (e *UnknownNodeError) Error() string {
	if e.ByName {
		return fmt.Sprintf("unknown ingredient name %q", e.Key)
	}
	return fmt.Sprintf("unknown ingredient %q", e.Key)
}

func (e *UnknownNodeError) Unwrap() error {
	return apperrors.ErrNotFound
}
