package document

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

type nodeData struct {
	Kind      string         `yaml:"kind"`
	Title     string         `yaml:"title,omitempty"`
	Position  graph.Position `yaml:"position"`
	Constants map[string]any `yaml:"constants,omitempty"`
	State     map[string]any `yaml:"state,omitempty"`
	Expanded  []string       `yaml:"expanded,omitempty"`
	// InputOrder and OutputOrder hold a manual port order.
	InputOrder  []string `yaml:"input_order,omitempty"`
	OutputOrder []string `yaml:"output_order,omitempty"`
	// Blocks is set on context node records only.
	Blocks []*Record `yaml:"blocks,omitempty"`
}

type wireData struct {
	From graph.PortReference `yaml:"from"`
	To   graph.PortReference `yaml:"to"`
}

type variableData struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Scope   string `yaml:"scope,omitempty"`
	Tooltip string `yaml:"tooltip,omitempty"`
	Default any    `yaml:"default,omitempty"`
}

type portalData struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type sectionData struct {
	Title string       `yaml:"title"`
	Items []graph.GUID `yaml:"items,omitempty"`
}

type groupData struct {
	Title    string         `yaml:"title"`
	Position graph.Position `yaml:"position"`
	Items    []graph.GUID   `yaml:"items,omitempty"`
}

type stickyNoteData struct {
	Title    string     `yaml:"title"`
	Contents string     `yaml:"contents,omitempty"`
	Rect     graph.Rect `yaml:"rect"`
}

type placematData struct {
	Title string     `yaml:"title"`
	Rect  graph.Rect `yaml:"rect"`
	Color string     `yaml:"color,omitempty"`
}

// newRecord builds a record whose data is the generic form of v.
func newRecord(typ string, id graph.GUID, v any) (*Record, error) {
	var data map[string]any
	if err := remarshal(v, &data); err != nil {
		return nil, fmt.Errorf("%s %s: %w", typ, id, err)
	}
	return &Record{Type: typ, GUID: id, Data: data}, nil
}

// decodeData fills out from the generic data of rec.
func decodeData(rec *Record, out any) error {
	if rec.Data == nil {
		return nil
	}
	return remarshal(rec.Data, out)
}

// remarshal converts between typed element data and the generic maps stored in
// records. Going through YAML keeps both encodings on one set of field tags and
// accepts numbers the way either decoder produced them.
func remarshal(in, out any) error {
	b, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

// salvage reads what it can from a record that failed to decode, for the
// placeholder standing in for it.
func salvage(rec *Record) (title string, pos graph.Position) {
	if rec == nil || rec.Data == nil {
		return "", graph.Position{}
	}
	var partial struct {
		Title    string         `yaml:"title"`
		Kind     string         `yaml:"kind"`
		Name     string         `yaml:"name"`
		Position graph.Position `yaml:"position"`
	}
	// Best effort: whatever decodes is kept.
	_ = remarshal(rec.Data, &partial)
	switch {
	case partial.Title != "":
		title = partial.Title
	case partial.Name != "":
		title = partial.Name
	default:
		title = partial.Kind
	}
	return title, partial.Position
}
