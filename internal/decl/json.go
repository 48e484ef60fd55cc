package decl

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// parseJSON parses a JSON document and converts it to a node tree. JSON positions have no line,
// only a path.
func parseJSON(filename string, content []byte) (*node, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, grferr.New(ErrInvalidDeclaration, srcpos.Position{File: filename}, "invalid JSON: %s", err)
	}
	if decoder.More() {
		return nil, grferr.New(ErrInvalidDeclaration, srcpos.Position{File: filename}, "unexpected data after the JSON document")
	}

	return convertJSON(value, srcpos.Position{File: filename})
}

func convertJSON(value any, pos srcpos.Position) (*node, error) {
	switch v := value.(type) {
	case nil:
		return &node{kind: nullNode, pos: pos}, nil
	case bool:
		return &node{kind: boolNode, boolean: v, pos: pos}, nil
	case json.Number:
		integer, err := v.Int64()
		if err != nil {
			return nil, invalid(pos, "only integers are supported, found %s", v)
		}
		return &node{kind: intNode, integer: integer, pos: pos}, nil
	case string:
		return &node{kind: stringNode, str: v, pos: pos}, nil
	case []any:
		seq := &node{kind: sequenceNode, pos: pos}
		for i, item := range v {
			child, err := convertJSON(item, pos.Sub("[%d]", i))
			if err != nil {
				return nil, err
			}
			seq.items = append(seq.items, child)
		}
		return seq, nil
	case map[string]any:
		keys := maps.Keys(v)
		slices.Sort(keys)

		mapping := &node{kind: mappingNode, keys: keys, values: make(map[string]*node, len(v)), pos: pos}
		for _, key := range keys {
			child, err := convertJSON(v[key], pos.Sub("%s", key))
			if err != nil {
				return nil, err
			}
			mapping.values[key] = child
		}
		return mapping, nil
	}
	return nil, invalid(pos, "unsupported JSON value %T", value)
}
