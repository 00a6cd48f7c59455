package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph operations.
var (
	ErrInvalidGUID         = errors.New("invalid guid")
	ErrInvalidIndex        = errors.New("invalid index")
	ErrCapabilityLocked    = errors.New("element capability locked")
	ErrReservedSeparator   = errors.New("port id contains reserved separator")
	ErrDuplicatePortName   = errors.New("duplicate port name")
	ErrUnknownNodeKind     = errors.New("unknown node kind")
	ErrUnknownType         = errors.New("unknown data type")
	ErrDuplicateType       = errors.New("data type already registered")
	ErrDuplicateNodeKind   = errors.New("node kind already registered")
	ErrWrongKindRole       = errors.New("node kind has the wrong role")
	ErrConstantType        = errors.New("constant value has the wrong type")
	ErrPortNotOnNode       = errors.New("port does not belong to node")
	ErrNotExpandable       = errors.New("port is not expandable")
	ErrSubPortsConnected   = errors.New("sub-ports have wires attached")
	ErrInvalidConnection   = errors.New("invalid connection")
	ErrSelfConnection      = errors.New("node does not allow self connections")
	ErrIncompatibleTypes   = errors.New("incompatible port types")
	ErrPortNotConnectable  = errors.New("port does not accept wires")
	ErrNotReorderable      = errors.New("port wires are not reorderable")
	ErrElementNotInGraph   = errors.New("element does not belong to graph")
	ErrDuplicateVariable   = errors.New("variable name already declared")
	ErrEmptyName           = errors.New("name must not be empty")
	ErrUnsupportedCategory = errors.New("unsupported placeholder category")
	ErrReentrantDefine     = errors.New("node is already being defined")
	ErrPortNotMovable      = errors.New("port cannot be moved")
)

// ElementNotFoundError is returned when a GUID does not resolve to an element of
// the expected kind.
type ElementNotFoundError struct {
	GUID GUID
	Want ElementKind
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Want, e.GUID)
}
