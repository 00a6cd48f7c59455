package domain

import "fmt"

// GraphNotFoundError is returned when no live stored graph has the GUID.
type GraphNotFoundError struct {
	GUID string
}

func (e *GraphNotFoundError) Error() string {
	return fmt.Sprintf("graph not found: %s", e.GUID)
}
