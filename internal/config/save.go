package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidKey is returned for an empty or malformed dotted key.
var ErrInvalidKey = errors.New("invalid config key")

// SetValue sets the dotted key (for example "document.format") in the config
// file to value, creating intermediate mappings as needed. Comments and
// formatting of every other entry are preserved by editing the yaml.Node tree.
func SetValue(configPath, key string, value any) error {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: config path chosen by the user
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	// Parse into yaml.Node to preserve comments
	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	node := doc.Content[0]
	for i, part := range parts {
		last := i == len(parts)-1
		child := mappingValue(node, part)
		switch {
		case last && child != nil:
			// Keep the comments attached to the old value
			valueNode.HeadComment = child.HeadComment
			valueNode.LineComment = child.LineComment
			*child = valueNode
		case last:
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: part},
				&valueNode,
			)
		case child == nil || child.Kind != yaml.MappingNode:
			next := &yaml.Node{Kind: yaml.MappingNode}
			if child != nil {
				*child = *next
				next = child
			} else {
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: part},
					next,
				)
			}
			node = next
		default:
			node = child
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomic(configPath, buf.Bytes())
}

// SaveDocumentFormat records the default document format.
func SaveDocumentFormat(configPath, format string) error {
	if err := ValidateDocument(DocumentConfig{Format: format}); err != nil {
		return err
	}
	return SetValue(configPath, "document.format", format)
}

// SaveFlag enables or disables a feature flag.
func SaveFlag(configPath, name string, enabled bool) error {
	return SetValue(configPath, "flags."+name, enabled)
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// writeAtomic writes to a temp file in the same directory, then renames it.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".nodegraph.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
