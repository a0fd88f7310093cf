package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/resolve"
)

// InvariantError reports a caller or data-integrity bug detected while
// dispatching a mutation. Policy rejections are never InvariantErrors.
type InvariantError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// NodeID identifies the offending node, when there is one.
	NodeID ir.NodeID

	// Component identifies the offending board, when there is one.
	Component ir.ComponentID
}

// ErrorCode categorizes invariant errors.
type ErrorCode string

const (
	// ErrCodeMissingNode indicates a referenced node does not exist.
	ErrCodeMissingNode ErrorCode = "MISSING_NODE"

	// ErrCodeMissingBoard indicates a referenced board does not exist.
	ErrCodeMissingBoard ErrorCode = "MISSING_BOARD"

	// ErrCodeCycleDetected indicates an instanceOf or containment cycle.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeInvalidMove indicates a move target that cannot hold the node.
	ErrCodeInvalidMove ErrorCode = "INVALID_MOVE"

	// ErrCodeInvalidMutation indicates a malformed mutation payload.
	ErrCodeInvalidMutation ErrorCode = "INVALID_MUTATION"
)

// Error implements the error interface.
func (e *InvariantError) Error() string {
	switch {
	case e.NodeID != "":
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.NodeID)
	case e.Component != "":
		return fmt.Sprintf("%s: %s (board=%s)", e.Code, e.Message, e.Component)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsMissing returns true if err reports a missing node or board.
// Uses errors.As to handle wrapped errors.
func IsMissing(err error) bool {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeMissingNode || ie.Code == ErrCodeMissingBoard
	}
	return false
}

// IsCycle returns true if err reports an instanceOf or containment cycle.
func IsCycle(err error) bool {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeCycleDetected
	}
	return false
}

// HasCode returns true if err is an InvariantError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ie *InvariantError
	return errors.As(err, &ie) && ie.Code == code
}

func missingNode(id ir.NodeID) *InvariantError {
	return &InvariantError{Code: ErrCodeMissingNode, Message: "node does not exist", NodeID: id}
}

func missingBoard(id ir.ComponentID) *InvariantError {
	return &InvariantError{Code: ErrCodeMissingBoard, Message: "board does not exist", Component: id}
}

func invalid(format string, args ...any) *InvariantError {
	return &InvariantError{Code: ErrCodeInvalidMutation, Message: fmt.Sprintf(format, args...)}
}

// chainError converts resolver chain failures into InvariantErrors.
func chainError(id ir.NodeID, err error) error {
	switch {
	case errors.Is(err, resolve.ErrCycle):
		return &InvariantError{Code: ErrCodeCycleDetected, Message: err.Error(), NodeID: id}
	case errors.Is(err, resolve.ErrMissingNode):
		return &InvariantError{Code: ErrCodeMissingNode, Message: err.Error(), NodeID: id}
	}
	return err
}
