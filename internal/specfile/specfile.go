// Package specfile loads directory specifications from YAML and JSON
// documents. Mappings become directory nodes and scalars become file leaves
// holding the scalar's literal text. The declared order of keys is kept.
package specfile

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/gitlab-org/fixturetree/internal/tree"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a specification document.
type Format string

const (
	// FormatYAML is a YAML document. Values tagged !!binary are decoded from
	// base64 into binary file leaves. Null values are empty files.
	FormatYAML = Format("yaml")
	// FormatJSON is a JSON document.
	FormatJSON = Format("json")
)

// ErrUnsupportedValue is returned for sequences and, in JSON, for non-string
// scalars.
var ErrUnsupportedValue = errors.New("unsupported value")

// FormatFromPath derives the format of a document from its file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown specification format of %q", path)
	}
}

// LoadFile parses the specification document at path. The format is derived
// from the file extension.
func LoadFile(path string) (tree.Dir, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open specification: %w", err)
	}
	defer file.Close()

	return Parse(file, format)
}

// Parse parses a specification document in the given format and validates
// the result.
func Parse(r io.Reader, format Format) (tree.Dir, error) {
	var spec tree.Dir
	var err error

	switch format {
	case FormatYAML:
		spec, err = parseYAML(r)
	case FormatJSON:
		spec, err = parseJSON(r)
	default:
		return nil, fmt.Errorf("unknown specification format %q", format)
	}
	if err != nil {
		return nil, err
	}

	if err := tree.Validate(spec); err != nil {
		return nil, fmt.Errorf("validate specification: %w", err)
	}

	return spec, nil
}

func parseYAML(r io.Reader) (tree.Dir, error) {
	var document yaml.Node
	if err := yaml.NewDecoder(r).Decode(&document); err != nil {
		if errors.Is(err, io.EOF) {
			return tree.Dir{}, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	root := &document
	if root.Kind == yaml.DocumentNode {
		root = root.Content[0]
	}

	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return tree.Dir{}, nil
	}

	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: document must be a mapping: %w", root.Line, ErrUnsupportedValue)
	}

	return yamlDir(root)
}

func yamlDir(node *yaml.Node) (tree.Dir, error) {
	dir := make(tree.Dir, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: key must be a scalar: %w", keyNode.Line, ErrUnsupportedValue)
		}

		child, err := yamlNode(valueNode)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", keyNode.Value, err)
		}

		dir = append(dir, tree.Entry{Key: keyNode.Value, Node: child})
	}

	return dir, nil
}

func yamlNode(node *yaml.Node) (tree.Node, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	switch node.Kind {
	case yaml.MappingNode:
		return yamlDir(node)
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return tree.File{}, nil
		case "!!binary":
			content, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(node.Value), ""))
			if err != nil {
				return nil, fmt.Errorf("line %d: decode binary: %w", node.Line, err)
			}
			return tree.File(content), nil
		default:
			return tree.Text(node.Value), nil
		}
	default:
		return nil, fmt.Errorf("line %d: %w", node.Line, ErrUnsupportedValue)
	}
}

func parseJSON(r io.Reader) (tree.Dir, error) {
	decoder := json.NewDecoder(r)

	token, err := decoder.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return tree.Dir{}, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}

	if token != json.Delim('{') {
		return nil, fmt.Errorf("document must be an object: %w", ErrUnsupportedValue)
	}

	dir, err := jsonDir(decoder)
	if err != nil {
		return nil, err
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: trailing data after document")
	}

	return dir, nil
}

// jsonDir decodes the members of an object whose opening delimiter has been
// consumed already.
func jsonDir(decoder *json.Decoder) (tree.Dir, error) {
	dir := tree.Dir{}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}

		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("decode json: unexpected token %v", token)
		}

		child, err := jsonNode(decoder)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}

		dir = append(dir, tree.Entry{Key: key, Node: child})
	}

	if _, err := decoder.Token(); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	return dir, nil
}

func jsonNode(decoder *json.Decoder) (tree.Node, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	switch value := token.(type) {
	case string:
		return tree.Text(value), nil
	case json.Delim:
		if value == '{' {
			return jsonDir(decoder)
		}
		return nil, fmt.Errorf("array value: %w", ErrUnsupportedValue)
	default:
		return nil, fmt.Errorf("%T value: %w", value, ErrUnsupportedValue)
	}
}
