// Package document is the persisted form of a graph. A Document holds one list
// of records per element category; slots whose data could not be resolved are
// listed in the Missing table so they survive a load/save cycle untouched.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

// Version is the document format version written by Encode.
const Version = 1

// Record type tags.
const (
	TypeNode       = "node"
	TypeContext    = "context"
	TypeBlock      = "block"
	TypeWire       = "wire"
	TypeVariable   = "variable"
	TypePortal     = "portal"
	TypeSection    = "section"
	TypeGroup      = "group"
	TypeStickyNote = "sticky_note"
	TypePlacemat   = "placemat"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported document version")
	ErrUnknownFormat      = errors.New("unknown document format")
	ErrEmptyDocument      = errors.New("empty document")
)

// Document is the serialized form of a graph.
type Document struct {
	Version      int                  `yaml:"version" json:"version"`
	GUID         graph.GUID           `yaml:"guid" json:"guid"`
	Name         string               `yaml:"name,omitempty" json:"name,omitempty"`
	Nodes        []*Record            `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	ContextNodes []*Record            `yaml:"context_nodes,omitempty" json:"context_nodes,omitempty"`
	Wires        []*Record            `yaml:"wires,omitempty" json:"wires,omitempty"`
	Variables    []*Record            `yaml:"variables,omitempty" json:"variables,omitempty"`
	Portals      []*Record            `yaml:"portals,omitempty" json:"portals,omitempty"`
	Sections     []*Record            `yaml:"sections,omitempty" json:"sections,omitempty"`
	Groups       []*Record            `yaml:"groups,omitempty" json:"groups,omitempty"`
	StickyNotes  []*Record            `yaml:"sticky_notes,omitempty" json:"sticky_notes,omitempty"`
	Placemats    []*Record            `yaml:"placemats,omitempty" json:"placemats,omitempty"`
	Missing      []graph.MissingEntry `yaml:"missing,omitempty" json:"missing,omitempty"`
}

// Record is one persisted element. A nil record is a slot whose data was lost.
type Record struct {
	Type string         `yaml:"type" json:"type"`
	GUID graph.GUID     `yaml:"guid" json:"guid"`
	Data map[string]any `yaml:"data,omitempty" json:"data,omitempty"`
}

// DecodeError reports a document that cannot be turned into a graph at all.
// Unresolvable records are not errors: they load as placeholders.
type DecodeError struct {
	List  string
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.List == "" {
		return fmt.Sprintf("decode document: %v", e.Err)
	}
	return fmt.Sprintf("decode document: %s[%d]: %v", e.List, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name; the empty string means YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Marshal encodes doc in the given format.
func Marshal(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("marshaling yaml: %w", err)
		}
		_ = enc.Close()
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Unmarshal decodes a document in the given format.
func Unmarshal(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &doc, nil
}

// Stats counts the entries of a document.
type Stats struct {
	Nodes        int
	ContextNodes int
	Wires        int
	Variables    int
	Portals      int
	Missing      int
	ToRemove     int
}

// Stats summarizes doc without decoding it.
func (d *Document) Stats() Stats {
	s := Stats{
		Nodes:        len(d.Nodes),
		ContextNodes: len(d.ContextNodes),
		Wires:        len(d.Wires),
		Variables:    len(d.Variables),
		Portals:      len(d.Portals),
	}
	for _, e := range d.Missing {
		if e.ToRemove {
			s.ToRemove++
		} else {
			s.Missing++
		}
	}
	return s
}
