package decl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
)

type nodeKind int

const (
	nullNode nodeKind = iota
	intNode
	stringNode
	boolNode
	mappingNode
	sequenceNode
)

func (k nodeKind) String() string {
	switch k {
	case nullNode:
		return "null"
	case intNode:
		return "integer"
	case stringNode:
		return "string"
	case boolNode:
		return "boolean"
	case mappingNode:
		return "mapping"
	case sequenceNode:
		return "sequence"
	}
	return "?"
}

// node is a format-independent document node: the YAML and JSON loaders convert their trees to nodes
// so that the declarations are decoded once.
type node struct {
	kind    nodeKind
	integer int64
	str     string
	boolean bool

	keys   []string //mapping keys in document order
	values map[string]*node
	items  []*node

	pos srcpos.Position
}

func (n *node) get(key string) (*node, bool) {
	if n.kind != mappingNode {
		return nil, false
	}
	child, ok := n.values[key]
	return child, ok
}

// toValue converts n to the generic value validated by the document schema.
func (n *node) toValue() any {
	switch n.kind {
	case intNode:
		return json.Number(strconv.FormatInt(n.integer, 10))
	case stringNode:
		return n.str
	case boolNode:
		return n.boolean
	case mappingNode:
		m := make(map[string]any, len(n.keys))
		for _, key := range n.keys {
			m[key] = n.values[key].toValue()
		}
		return m
	case sequenceNode:
		items := make([]any, len(n.items))
		for i, item := range n.items {
			items[i] = item.toValue()
		}
		return items
	}
	return nil
}

// lookup returns the node at the JSON pointer ptr, or the deepest existing node on the way.
func (n *node) lookup(ptr string) *node {
	current := n
	for _, part := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")

		switch current.kind {
		case mappingNode:
			child, ok := current.values[part]
			if !ok {
				return current
			}
			current = child
		case sequenceNode:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 || index >= len(current.items) {
				return current
			}
			current = current.items[index]
		default:
			return current
		}
	}
	return current
}

func invalid(pos srcpos.Position, format string, args ...any) error {
	return grferr.New(ErrInvalidDeclaration, pos, format, args...)
}

func (n *node) expect(kind nodeKind) error {
	if n.kind != kind {
		return invalid(n.pos, "%s expected, found %s", kind, n.kind)
	}
	return nil
}

// checkKeys returns an error if the mapping n has a key that is not in allowed.
func (n *node) checkKeys(allowed ...string) error {
	if err := n.expect(mappingNode); err != nil {
		return err
	}
	for _, key := range n.keys {
		found := false
		for _, allowedKey := range allowed {
			if key == allowedKey {
				found = true
				break
			}
		}
		if !found {
			return invalid(n.values[key].pos, "unknown field %q, expected one of: %s", key, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func (n *node) required(key string) (*node, error) {
	child, ok := n.get(key)
	if !ok {
		return nil, invalid(n.pos, "missing field %q", key)
	}
	return child, nil
}

// asInt returns the integer value of n, strings containing an integer literal (e.g. "0x1F") are
// accepted because JSON has no hexadecimal notation.
func (n *node) asInt() (int64, error) {
	switch n.kind {
	case intNode:
		return n.integer, nil
	case stringNode:
		v, err := strconv.ParseInt(strings.ReplaceAll(n.str, "_", ""), 0, 64)
		if err == nil {
			return v, nil
		}
	}
	return 0, invalid(n.pos, "integer expected, found %s", n.describe())
}

func (n *node) asString() (string, error) {
	if err := n.expect(stringNode); err != nil {
		return "", err
	}
	return n.str, nil
}

func (n *node) asBool() (bool, error) {
	if err := n.expect(boolNode); err != nil {
		return false, err
	}
	return n.boolean, nil
}

func (n *node) describe() string {
	switch n.kind {
	case stringNode:
		return fmt.Sprintf("string %q", n.str)
	case intNode:
		return fmt.Sprintf("integer %d", n.integer)
	}
	return n.kind.String()
}

func (n *node) intField(key string) (int, error) {
	child, err := n.required(key)
	if err != nil {
		return 0, err
	}
	v, err := child.asInt()
	return int(v), err
}

func (n *node) optionalIntField(key string, defaultValue int) (int, error) {
	child, ok := n.get(key)
	if !ok {
		return defaultValue, nil
	}
	v, err := child.asInt()
	return int(v), err
}

func (n *node) stringField(key string) (string, error) {
	child, err := n.required(key)
	if err != nil {
		return "", err
	}
	return child.asString()
}

func (n *node) boolField(key string) (bool, error) {
	child, ok := n.get(key)
	if !ok {
		return false, nil
	}
	return child.asBool()
}

func (n *node) sequenceField(key string) ([]*node, error) {
	child, err := n.required(key)
	if err != nil {
		return nil, err
	}
	if err := child.expect(sequenceNode); err != nil {
		return nil, err
	}
	return child.items, nil
}

func (n *node) stringsField(key string) ([]string, error) {
	child, ok := n.get(key)
	if !ok {
		return nil, nil
	}
	if err := child.expect(sequenceNode); err != nil {
		return nil, err
	}
	strs := make([]string, 0, len(child.items))
	for _, item := range child.items {
		s, err := item.asString()
		if err != nil {
			return nil, err
		}
		strs = append(strs, s)
	}
	return strs, nil
}

func (n *node) intsField(key string) ([]int64, error) {
	items, err := n.sequenceField(key)
	if err != nil {
		return nil, err
	}
	ints := make([]int64, 0, len(items))
	for _, item := range items {
		v, err := item.asInt()
		if err != nil {
			return nil, err
		}
		ints = append(ints, v)
	}
	return ints, nil
}
