package decl

import (
	"fmt"
	"math"
	"strconv"

	yaml "github.com/goccy/go-yaml/ast"
	yamlLex "github.com/goccy/go-yaml/lexer"
	yamlParse "github.com/goccy/go-yaml/parser"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// parseYAML parses a YAML document and converts it to a node tree, positions carry the line of each node.
func parseYAML(filename string, content []byte) (*node, error) {
	tokens := yamlLex.Tokenize(string(content))
	file, err := yamlParse.Parse(tokens, 0)
	if err != nil {
		return nil, grferr.New(ErrInvalidDeclaration, srcpos.Position{File: filename}, "invalid YAML: %s", err)
	}

	if len(file.Docs) != 1 {
		return nil, grferr.New(ErrInvalidDeclaration, srcpos.Position{File: filename},
			"a declaration file must contain exactly one YAML document, not %d", len(file.Docs))
	}

	c := yamlConverter{filename: filename}
	root := srcpos.Position{File: filename, Line: 1}
	return c.convert(file.Docs[0], root)
}

type yamlConverter struct {
	filename string
}

func (c yamlConverter) position(n yaml.Node, parent srcpos.Position) srcpos.Position {
	pos := parent
	if token := n.GetToken(); token != nil && token.Position != nil {
		pos.Line = token.Position.Line
	}
	return pos
}

func (c yamlConverter) convert(n yaml.Node, pos srcpos.Position) (*node, error) {
	if n == nil {
		return &node{kind: nullNode, pos: pos}, nil
	}
	pos = c.position(n, pos)

	switch n := n.(type) {
	case *yaml.DocumentNode:
		if n.Body == nil {
			return &node{kind: nullNode, pos: pos}, nil
		}
		return c.convert(n.Body, pos)
	case *yaml.NullNode:
		return &node{kind: nullNode, pos: pos}, nil
	case *yaml.BoolNode:
		return &node{kind: boolNode, boolean: n.Value, pos: pos}, nil
	case *yaml.IntegerNode:
		switch integer := n.Value.(type) {
		case int64:
			return &node{kind: intNode, integer: integer, pos: pos}, nil
		case uint64:
			if integer > math.MaxInt64 {
				return nil, invalid(pos, "integer %d is too large", integer)
			}
			return &node{kind: intNode, integer: int64(integer), pos: pos}, nil
		}
		return nil, invalid(pos, "unsupported integer %s", n.String())
	case *yaml.StringNode:
		return &node{kind: stringNode, str: n.Value, pos: pos}, nil
	case *yaml.LiteralNode:
		return &node{kind: stringNode, str: n.Value.Value, pos: pos}, nil
	case *yaml.MappingNode:
		return c.convertMapping(n.Values, pos)
	case *yaml.MappingValueNode:
		return c.convertMapping([]*yaml.MappingValueNode{n}, pos)
	case *yaml.SequenceNode:
		seq := &node{kind: sequenceNode, pos: pos}
		for i, item := range n.Values {
			child, err := c.convert(item, pos.Sub("[%d]", i))
			if err != nil {
				return nil, err
			}
			seq.items = append(seq.items, child)
		}
		return seq, nil
	}
	return nil, invalid(pos, "unsupported YAML node: %s", n.Type())
}

func (c yamlConverter) convertMapping(items []*yaml.MappingValueNode, pos srcpos.Position) (*node, error) {
	mapping := &node{kind: mappingNode, values: make(map[string]*node, len(items)), pos: pos}

	for _, item := range items {
		key := yamlKey(item.Key)
		if _, ok := mapping.values[key]; ok {
			return nil, invalid(c.position(item, pos), "duplicate key %q", key)
		}

		child, err := c.convert(item.Value, c.position(item, pos).Sub("%s", key))
		if err != nil {
			return nil, err
		}
		mapping.keys = append(mapping.keys, key)
		mapping.values[key] = child
	}
	return mapping, nil
}

func yamlKey(key yaml.Node) string {
	switch key := key.(type) {
	case *yaml.StringNode:
		return key.Value
	case *yaml.IntegerNode:
		return fmt.Sprint(key.Value)
	case *yaml.BoolNode:
		return strconv.FormatBool(key.Value)
	}
	return key.String()
}
