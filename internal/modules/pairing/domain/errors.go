package domain

import (
	"fmt"

	apperrors "flavorlab/internal/platform/errors"
)

type MalformedEdgeError struct {
	Edge   Edge
	Reason string
}

func (e *MalformedEdgeError) Error() string {
	return fmt.Sprintf("malformed edge %s-%s: %s", e.Edge.A, e.Edge.B, e.Reason)
}

func (e *MalformedEdgeError) Unwrap() error { return apperrors.ErrInvalidInput }

type InvalidScoreError struct {
	Edge Edge
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("invalid score %v on edge %s-%s", e.Edge.Score, e.Edge.A, e.Edge.B)
}

func (e *InvalidScoreError) Unwrap() error { return apperrors.ErrInvalidInput }

type MalformedNodeError struct {
	Node   Node
	Reason string
}

func (e *MalformedNodeError) Error() string {
	return fmt.Sprintf("malformed node %q: %s", e.Node.ID, e.Reason)
}

func (e *MalformedNodeError) Unwrap() error { return apperrors.ErrInvalidInput }

type DuplicateNodeError struct {
	Node  Node
	Field string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %s for %q (%s)", e.Field, e.Node.ID, e.Node.Name)
}

func (e *DuplicateNodeError) Unwrap() error { return apperrors.ErrInvalidInput }
