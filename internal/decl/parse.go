package decl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inoxlang/grfc/internal/actions"
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/strtab"
)

const (
	YAML_FORMAT = "yaml"
	JSON_FORMAT = "json"

	DEFAULT_SWITCH_SIZE = 4
)

var SEVERITIES = map[string]int{
	"notice":  actions.SEVERITY_NOTICE,
	"warning": actions.SEVERITY_WARNING,
	"error":   actions.SEVERITY_ERROR,
	"fatal":   actions.SEVERITY_FATAL,
}

// FormatOf returns the format of a declaration file based on its extension, YAML is the default.
func FormatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON_FORMAT
	}
	return YAML_FORMAT
}

// LoadFile reads and parses the declaration file at path.
func LoadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}
	return Parse(path, content, FormatOf(path))
}

// Parse parses a declaration file, the document is validated against the declaration schema before
// being decoded.
func Parse(filename string, content []byte, format string) (*File, error) {
	var (
		root *node
		err  error
	)

	switch format {
	case YAML_FORMAT:
		root, err = parseYAML(filename, content)
	case JSON_FORMAT:
		root, err = parseJSON(filename, content)
	default:
		return nil, fmt.Errorf("unknown declaration format %q", format)
	}
	if err != nil {
		return nil, err
	}

	if err := validate(root); err != nil {
		return nil, err
	}

	file := &File{Path: filename}
	if err := decodeFile(file, root); err != nil {
		return nil, err
	}
	return file, nil
}

func decodeFile(file *File, root *node) error {
	if err := root.checkKeys("grf", "sprites", "strings", "declarations"); err != nil {
		return err
	}

	info, err := root.required("grf")
	if err != nil {
		return err
	}
	if err := decodeInfo(&file.Info, info); err != nil {
		return err
	}

	if sprites, ok := root.get("sprites"); ok {
		if err := sprites.expect(sequenceNode); err != nil {
			return err
		}
		for _, item := range sprites.items {
			sprite, err := decodeSprite(item)
			if err != nil {
				return err
			}
			file.Sprites = append(file.Sprites, sprite)
		}
	}

	if strs, ok := root.get("strings"); ok {
		if err := strs.expect(sequenceNode); err != nil {
			return err
		}
		for _, item := range strs.items {
			texts, err := decodeTexts(item)
			if err != nil {
				return err
			}
			file.Strings = append(file.Strings, texts...)
		}
	}

	if decls, ok := root.get("declarations"); ok {
		file.Declarations, err = decodeDeclarations(decls)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeInfo(info *GRFInfo, n *node) (err error) {
	if err := n.checkKeys("id", "name", "description", "requires"); err != nil {
		return err
	}
	info.Pos = n.pos

	if info.ID, err = n.stringField("id"); err != nil {
		return err
	}
	if info.Name, err = n.stringField("name"); err != nil {
		return err
	}
	if _, ok := n.get("description"); ok {
		if info.Description, err = n.stringField("description"); err != nil {
			return err
		}
	}
	if _, ok := n.get("requires"); ok {
		if info.Requires, err = n.stringField("requires"); err != nil {
			return err
		}
	}
	return nil
}

func decodeSprite(n *node) (Sprite, error) {
	if n.kind == stringNode {
		return Sprite{Name: n.str, Pos: n.pos}, nil
	}
	if err := n.checkKeys("name", "file"); err != nil {
		return Sprite{}, err
	}
	name, err := n.stringField("name")
	if err != nil {
		return Sprite{}, err
	}
	sprite := Sprite{Name: name, Pos: n.pos}
	if _, ok := n.get("file"); ok {
		sprite.File, err = n.stringField("file")
	}
	return sprite, err
}

func decodeTexts(n *node) ([]Text, error) {
	if err := n.checkKeys("lang", "texts"); err != nil {
		return nil, err
	}
	lang, err := n.optionalIntField("lang", strtab.DEFAULT_LANG)
	if err != nil {
		return nil, err
	}
	textsNode, err := n.required("texts")
	if err != nil {
		return nil, err
	}
	if err := textsNode.expect(mappingNode); err != nil {
		return nil, err
	}

	texts := make([]Text, 0, len(textsNode.keys))
	for _, name := range textsNode.keys {
		value := textsNode.values[name]
		text, err := value.asString()
		if err != nil {
			return nil, err
		}
		texts = append(texts, Text{Lang: lang, Name: name, Text: text, Pos: value.pos})
	}
	return texts, nil
}

func decodeDeclarations(n *node) ([]Declaration, error) {
	if err := n.expect(sequenceNode); err != nil {
		return nil, err
	}

	decls := make([]Declaration, 0, len(n.items))
	for _, item := range n.items {
		d, err := decodeDeclaration(item)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func decodeDeclaration(n *node) (Declaration, error) {
	if err := n.expect(mappingNode); err != nil {
		return nil, err
	}
	if len(n.keys) != 1 {
		return nil, invalid(n.pos, "a declaration is a mapping with a single key, found %d keys", len(n.keys))
	}

	kind := n.keys[0]
	body := n.values[kind]
	b := base{pos: body.pos}

	switch kind {
	case "properties":
		return decodeProperties(b, body)
	case "sprite_sets":
		return decodeSpriteSets(b, body)
	case "sprite_group":
		return decodeSpriteGroup(b, body)
	case "switch":
		return decodeSwitch(b, body)
	case "graphics":
		return decodeGraphics(b, body)
	case "error":
		return decodeErrorMessage(b, body)
	case "assign":
		return decodeAssignment(b, body)
	case "if":
		return decodeIf(b, body)
	case "while":
		return decodeWhile(b, body)
	case "deactivate":
		ids, err := n.stringsField(kind)
		if err != nil {
			return nil, err
		}
		return &Deactivate{base: b, IDs: ids}, nil
	case "replace":
		return decodeReplace(b, body)
	}
	return nil, invalid(n.pos, "unknown declaration %q", kind)
}

func decodeProperties(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("feature", "id", "props"); err != nil {
		return nil, err
	}
	p := &Properties{base: b}

	var err error
	if p.Feature, err = n.intField("feature"); err != nil {
		return nil, err
	}
	if p.ID, err = n.intField("id"); err != nil {
		return nil, err
	}

	items, err := n.sequenceField("props")
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		prop, err := decodeProperty(item)
		if err != nil {
			return nil, err
		}
		p.Props = append(p.Props, prop)
	}
	return p, nil
}

func decodeProperty(n *node) (actions.Property, error) {
	if err := n.checkKeys("num", "size", "value", "string", "array"); err != nil {
		return actions.Property{}, err
	}
	prop := actions.Property{Pos: n.pos}

	var err error
	if prop.Num, err = n.intField("num"); err != nil {
		return prop, err
	}
	if prop.Size, err = n.intField("size"); err != nil {
		return prop, err
	}

	valueCount := 0
	for _, key := range []string{"value", "string", "array"} {
		if _, ok := n.get(key); ok {
			valueCount++
		}
	}
	if valueCount != 1 {
		return prop, invalid(n.pos, "a property has exactly one of the fields value, string, array")
	}

	if valueNode, ok := n.get("value"); ok {
		e, err := parseExpr(valueNode)
		if err != nil {
			return prop, err
		}
		if c, ok := e.(expr.Constant); ok {
			prop.Value = actions.ConstantProperty{Value: c.Value}
		} else {
			prop.Value = actions.IndirectProperty{Expr: e}
		}
	}
	if _, ok := n.get("string"); ok {
		name, err := n.stringField("string")
		if err != nil {
			return prop, err
		}
		prop.Value = actions.StringProperty{Ref: expr.NewStringRef(name)}
	}
	if _, ok := n.get("array"); ok {
		items, err := n.intsField("array")
		if err != nil {
			return prop, err
		}
		prop.Value = actions.ArrayProperty{Items: items}
	}
	return prop, nil
}

func decodeSpriteSets(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("feature", "sets"); err != nil {
		return nil, err
	}
	s := &SpriteSets{base: b}

	var err error
	if s.Feature, err = n.intField("feature"); err != nil {
		return nil, err
	}
	items, err := n.sequenceField("sets")
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := item.checkKeys("name", "sprites"); err != nil {
			return nil, err
		}
		name, err := item.stringField("name")
		if err != nil {
			return nil, err
		}
		sprites, err := item.stringsField("sprites")
		if err != nil {
			return nil, err
		}
		s.Sets = append(s.Sets, actions.SpriteSet{Name: name, Sprites: sprites, Pos: item.pos})
	}
	return s, nil
}

func decodeSpriteGroup(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("name", "feature", "loaded", "loading"); err != nil {
		return nil, err
	}
	g := &SpriteGroup{base: b}
	g.Group.Pos = b.pos

	var err error
	if g.Group.Name, err = n.stringField("name"); err != nil {
		return nil, err
	}
	if g.Group.Feature, err = n.intField("feature"); err != nil {
		return nil, err
	}
	if g.Group.Loaded, err = n.stringsField("loaded"); err != nil {
		return nil, err
	}
	if g.Group.Loading, err = n.stringsField("loading"); err != nil {
		return nil, err
	}
	return g, nil
}

func decodeSwitch(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("name", "feature", "related", "size", "expr", "ranges", "default"); err != nil {
		return nil, err
	}
	s := &Switch{base: b}
	s.Switch.Pos = b.pos

	var err error
	if s.Switch.Name, err = n.stringField("name"); err != nil {
		return nil, err
	}
	if s.Switch.Feature, err = n.intField("feature"); err != nil {
		return nil, err
	}
	if s.Switch.Related, err = n.boolField("related"); err != nil {
		return nil, err
	}
	if s.Switch.VarSize, err = n.optionalIntField("size", DEFAULT_SWITCH_SIZE); err != nil {
		return nil, err
	}

	exprNode, err := n.required("expr")
	if err != nil {
		return nil, err
	}
	if s.Switch.Expr, err = parseExpr(exprNode); err != nil {
		return nil, err
	}

	if _, ok := n.get("ranges"); ok {
		items, err := n.sequenceField("ranges")
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			r, err := decodeRange(item)
			if err != nil {
				return nil, err
			}
			s.Switch.Ranges = append(s.Switch.Ranges, r)
		}
	}

	if defaultNode, ok := n.get("default"); ok {
		if s.Switch.Default, err = parseResult(defaultNode); err != nil {
			return nil, err
		}
	} else {
		return nil, invalid(n.pos, "missing field %q", "default")
	}
	return s, nil
}

func decodeRange(n *node) (actions.SwitchRange, error) {
	if err := n.checkKeys("value", "min", "max", "result"); err != nil {
		return actions.SwitchRange{}, err
	}
	r := actions.SwitchRange{Pos: n.pos}

	valueNode, hasValue := n.get("value")
	_, hasMin := n.get("min")
	_, hasMax := n.get("max")

	switch {
	case hasValue && !hasMin && !hasMax:
		v, err := valueNode.asInt()
		if err != nil {
			return r, err
		}
		r.Min, r.Max = v, v
	case !hasValue && hasMin && hasMax:
		lo, err := n.intField("min")
		if err != nil {
			return r, err
		}
		hi, err := n.intField("max")
		if err != nil {
			return r, err
		}
		r.Min, r.Max = int64(lo), int64(hi)
	default:
		return r, invalid(n.pos, "a range has either a value or both min and max")
	}

	resultNode, err := n.required("result")
	if err != nil {
		return r, err
	}
	r.Result, err = parseResult(resultNode)
	return r, err
}

// parseResult decodes the result of a range: a callback result, a reference or an expression. A
// string that is not an integer literal is a reference.
func parseResult(n *node) (expr.Expr, error) {
	if n.kind == stringNode {
		if _, err := n.asInt(); err != nil {
			return expr.NewRecordRef(n.str), nil
		}
	}
	return parseExpr(n)
}

func decodeGraphics(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("feature", "ids", "livery", "cargo", "default"); err != nil {
		return nil, err
	}
	g := &Graphics{base: b}
	g.Graphics.Pos = b.pos

	var err error
	if g.Graphics.Feature, err = n.intField("feature"); err != nil {
		return nil, err
	}
	ids, err := n.intsField("ids")
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		g.Graphics.IDs = append(g.Graphics.IDs, int(id))
	}
	if g.Graphics.Livery, err = n.boolField("livery"); err != nil {
		return nil, err
	}
	if g.Graphics.Default, err = n.stringField("default"); err != nil {
		return nil, err
	}

	if _, ok := n.get("cargo"); ok {
		items, err := n.sequenceField("cargo")
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if err := item.checkKeys("cargo", "ref"); err != nil {
				return nil, err
			}
			cargo, err := item.intField("cargo")
			if err != nil {
				return nil, err
			}
			ref, err := item.stringField("ref")
			if err != nil {
				return nil, err
			}
			g.Graphics.Cargo = append(g.Graphics.Cargo, actions.CargoGraphics{Cargo: cargo, Ref: ref})
		}
	}
	return g, nil
}

func decodeErrorMessage(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("severity", "msgid", "message", "data", "params"); err != nil {
		return nil, err
	}
	m := &ErrorMessage{base: b}
	m.Message.Pos = b.pos

	severityNode, err := n.required("severity")
	if err != nil {
		return nil, err
	}
	if severityNode.kind == stringNode {
		severity, ok := SEVERITIES[strings.ToLower(severityNode.str)]
		if !ok {
			return nil, invalid(severityNode.pos, "unknown severity %q", severityNode.str)
		}
		m.Message.Severity = severity
	} else {
		severity, err := severityNode.asInt()
		if err != nil {
			return nil, err
		}
		m.Message.Severity = int(severity)
	}

	_, hasMsgID := n.get("msgid")
	_, hasMessage := n.get("message")
	switch {
	case hasMsgID && !hasMessage:
		if m.Message.MsgID, err = n.intField("msgid"); err != nil {
			return nil, err
		}
	case hasMessage && !hasMsgID:
		name, err := n.stringField("message")
		if err != nil {
			return nil, err
		}
		ref := expr.NewStringRef(name)
		m.Message.Custom = &ref
	default:
		return nil, invalid(n.pos, "an error message has either a msgid or a message")
	}

	if _, ok := n.get("data"); ok {
		data, err := n.stringField("data")
		if err != nil {
			return nil, err
		}
		m.Message.Data = &data
	}

	if _, ok := n.get("params"); ok {
		items, err := n.sequenceField("params")
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			param, err := parseExpr(item)
			if err != nil {
				return nil, err
			}
			m.Message.Params = append(m.Message.Params, param)
		}
	}
	return m, nil
}

func decodeAssignment(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("param", "value"); err != nil {
		return nil, err
	}
	a := &Assignment{base: b}

	paramNode, err := n.required("param")
	if err != nil {
		return nil, err
	}
	valueNode, err := n.required("value")
	if err != nil {
		return nil, err
	}
	if a.Param, err = parseExpr(paramNode); err != nil {
		return nil, err
	}
	if a.Value, err = parseExpr(valueNode); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeIf(b base, n *node) (Declaration, error) {
	if err := n.expect(sequenceNode); err != nil {
		return nil, err
	}
	i := &If{base: b}

	for index, item := range n.items {
		if err := item.checkKeys("cond", "body"); err != nil {
			return nil, err
		}
		branch := IfBranch{Pos: item.pos}

		if condNode, ok := item.get("cond"); ok {
			cond, err := parseExpr(condNode)
			if err != nil {
				return nil, err
			}
			branch.Cond = cond
		} else if index != len(n.items)-1 {
			return nil, invalid(item.pos, "only the last branch can have no condition")
		}

		bodyNode, err := item.required("body")
		if err != nil {
			return nil, err
		}
		if branch.Body, err = decodeDeclarations(bodyNode); err != nil {
			return nil, err
		}
		i.Branches = append(i.Branches, branch)
	}
	return i, nil
}

func decodeWhile(b base, n *node) (Declaration, error) {
	if err := n.checkKeys("cond", "body"); err != nil {
		return nil, err
	}
	w := &While{base: b}

	condNode, err := n.required("cond")
	if err != nil {
		return nil, err
	}
	if w.Cond, err = parseExpr(condNode); err != nil {
		return nil, err
	}
	bodyNode, err := n.required("body")
	if err != nil {
		return nil, err
	}
	if w.Body, err = decodeDeclarations(bodyNode); err != nil {
		return nil, err
	}
	return w, nil
}

func decodeReplace(b base, n *node) (Declaration, error) {
	if err := n.expect(sequenceNode); err != nil {
		return nil, err
	}
	r := &Replace{base: b}

	for _, item := range n.items {
		if err := item.checkKeys("first", "sprites"); err != nil {
			return nil, err
		}
		first, err := item.intField("first")
		if err != nil {
			return nil, err
		}
		sprites, err := item.stringsField("sprites")
		if err != nil {
			return nil, err
		}
		r.Blocks = append(r.Blocks, actions.ReplaceBlock{First: first, Sprites: sprites, Pos: item.pos})
	}
	return r, nil
}
