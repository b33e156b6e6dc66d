// Package schema describes the shape of structured model output as a typed
// tree. The same tree is sent to the generation service as JSON Schema,
// printed into the prompt, and used to check the returned object.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind is the JSON type of a node.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Node is one element of the schema tree. Objects carry ordered Fields; an
// object with no Fields is a free-form bag. Arrays carry Items.
type Node struct {
	Kind        Kind
	Description string
	Fields      []Field
	Items       *Node
	Min         *float64
	Max         *float64
}

// Field is a named object member.
type Field struct {
	Name     string
	Node     *Node
	Optional bool
}

// Object returns an object node with the given fields in order.
func Object(fields ...Field) *Node { return &Node{Kind: KindObject, Fields: fields} }

// Array returns an array node of items.
func Array(items *Node) *Node { return &Node{Kind: KindArray, Items: items} }

// String returns a string node.
func String() *Node { return &Node{Kind: KindString} }

// Number returns a number node.
func Number() *Node { return &Node{Kind: KindNumber} }

// Boolean returns a boolean node.
func Boolean() *Node { return &Node{Kind: KindBoolean} }

// Range returns a number node bounded to [lo, hi].
func Range(lo, hi float64) *Node {
	return &Node{Kind: KindNumber, Min: &lo, Max: &hi}
}

// Prop returns a required field.
func Prop(name string, n *Node) Field { return Field{Name: name, Node: n} }

// OptionalProp returns a field that may be absent or null.
func OptionalProp(name string, n *Node) Field { return Field{Name: name, Node: n, Optional: true} }

// Describe sets the node description and returns the node.
func (n *Node) Describe(desc string) *Node {
	n.Description = desc
	return n
}

// IsFree reports whether n is an object without declared fields.
func (n *Node) IsFree() bool { return n.Kind == KindObject && len(n.Fields) == 0 }

// Properties returns the JSON Schema "properties" map of an object node.
func (n *Node) Properties() map[string]any {
	props := make(map[string]any, len(n.Fields))
	for _, f := range n.Fields {
		props[f.Name] = f.Node.JSONSchema()
	}
	return props
}

// Required returns the names of the non-optional fields in declaration order.
func (n *Node) Required() []string {
	var req []string
	for _, f := range n.Fields {
		if !f.Optional {
			req = append(req, f.Name)
		}
	}
	return req
}

// JSONSchema converts the tree to a JSON Schema document.
func (n *Node) JSONSchema() map[string]any {
	out := map[string]any{"type": n.Kind.String()}
	if n.Description != "" {
		out["description"] = n.Description
	}
	switch n.Kind {
	case KindObject:
		if !n.IsFree() {
			out["properties"] = n.Properties()
			if req := n.Required(); len(req) > 0 {
				out["required"] = req
			}
		}
	case KindArray:
		if n.Items != nil {
			out["items"] = n.Items.JSONSchema()
		}
	case KindNumber:
		if n.Min != nil {
			out["minimum"] = *n.Min
		}
		if n.Max != nil {
			out["maximum"] = *n.Max
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler so a Node can be handed to clients
// that take a schema as a json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.JSONSchema())
}

// Outline renders the tree as the pseudo-JSON shape used in prompts, e.g.
// "score": number (0-100) and "issues": string[].
func (n *Node) Outline() string {
	var b strings.Builder
	n.outline(&b, 0)
	return b.String()
}

func (n *Node) outline(b *strings.Builder, depth int) {
	if n.Kind != KindObject || n.IsFree() {
		b.WriteString(n.typeLabel())
		return
	}
	pad := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for i, f := range n.Fields {
		fmt.Fprintf(b, "%s%q: ", pad, f.Name)
		f.Node.outline(b, depth+1)
		if i < len(n.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("}")
}

func (n *Node) typeLabel() string {
	switch n.Kind {
	case KindArray:
		if n.Items != nil && n.Items.Kind != KindObject {
			return n.Items.Kind.String() + "[]"
		}
		return "array"
	case KindNumber:
		if n.Min != nil && n.Max != nil {
			return fmt.Sprintf("number (%s-%s)", formatBound(*n.Min), formatBound(*n.Max))
		}
		return "number"
	default:
		return n.Kind.String()
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ValidationError describes the first place a value did not match the schema.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Reason)
}

// Validate decodes raw and checks its shape against the tree. Unknown object
// members are allowed; missing or null required members and wrong types are
// not. Min and Max are advertised to the model but not enforced here.
func (n *Node) Validate(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return eris.Wrap(err, "schema: decode")
	}
	if err := n.check(v, "$"); err != nil {
		return err
	}
	return nil
}

func (n *Node) check(v any, path string) error {
	switch n.Kind {
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return mismatch(path, n.Kind, v)
		}
		for _, f := range n.Fields {
			fv, present := obj[f.Name]
			if !present || fv == nil {
				if f.Optional {
					continue
				}
				return &ValidationError{Path: path + "." + f.Name, Reason: "required field missing"}
			}
			if err := f.Node.check(fv, path+"."+f.Name); err != nil {
				return err
			}
		}
	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			return mismatch(path, n.Kind, v)
		}
		if n.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := n.Items.check(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case KindString:
		if _, ok := v.(string); !ok {
			return mismatch(path, n.Kind, v)
		}
	case KindNumber:
		num, ok := v.(json.Number)
		if !ok {
			return mismatch(path, n.Kind, v)
		}
		if _, err := num.Float64(); err != nil {
			return &ValidationError{Path: path, Reason: "number out of float64 range"}
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return mismatch(path, n.Kind, v)
		}
	}
	return nil
}

func mismatch(path string, want Kind, got any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf("want %s, got %s", want, jsonType(got))}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
