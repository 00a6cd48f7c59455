package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUID is the identifier of a graph element.
type GUID uuid.UUID

// contentNamespace seeds content-derived GUIDs. Changing it changes every port GUID.
var contentNamespace = uuid.MustParse("6f1c9a52-3b1e-4c8e-9a4f-2d7e5b0c1a93")

// NewGUID returns a random GUID.
func NewGUID() GUID {
	return GUID(uuid.New())
}

// ContentGUID derives a GUID from an ordered list of parts. The same parts always
// produce the same GUID.
func ContentGUID(parts ...string) GUID {
	return GUID(uuid.NewSHA1(contentNamespace, []byte(strings.Join(parts, "\x1f"))))
}

// ParseGUID parses the canonical text form of a GUID.
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("%w: %q", ErrInvalidGUID, s)
	}
	return GUID(u), nil
}

// MustParseGUID is like ParseGUID but panics on malformed input.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// IsZero reports whether g is the zero GUID.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

func (g GUID) String() string {
	return uuid.UUID(g).String()
}

// Short returns the first eight hex digits, for logs.
func (g GUID) Short() string {
	return g.String()[:8]
}

// MarshalText implements encoding.TextMarshaler.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*g = GUID{}
		return nil
	}
	parsed, err := ParseGUID(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
