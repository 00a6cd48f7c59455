package nodelib

import "errors"

var (
	ErrWrongKind        = errors.New("node has the wrong kind")
	ErrInvalidInterface = errors.New("invalid subgraph interface")
)
