// Package document parses textual specification documents and holds
// their element trees for engine initialization.
//
// Parse runs under a single process-wide lock. Each call produces an
// independent Storage, but the parse-and-register sequence is treated
// as non-reentrant to match the guarantees the engine initializer
// expects from the tag registry; see the package tests for the
// concurrent-parse property this preserves.
package document

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pcodelab/pcode-runtime/errors"
)

// parseMu serializes every parse-and-register sequence in the process.
var parseMu sync.Mutex

// Element is one node of a parsed document tree.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []*Element
	Text     string
}

// Attr returns a string attribute, or def when absent.
func (e *Element) Attr(name, def string) string {
	if v, ok := e.Attrs[name]; ok {
		return v
	}
	return def
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attrs[name]
	return ok
}

// IntAttr returns an integer attribute. Decimal and 0x-prefixed hex
// forms are accepted. Absent attributes yield def; malformed values
// yield an error.
func (e *Element) IntAttr(name string, def int) (int, error) {
	v, ok := e.Attrs[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		return 0, errors.InvalidData(errors.PhaseParse, []string{e.Name, name},
			"not an integer: "+v)
	}
	return int(n), nil
}

// UintAttr returns an unsigned attribute with the same forms as IntAttr.
func (e *Element) UintAttr(name string, def uint64) (uint64, error) {
	v, ok := e.Attrs[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 0, 64)
	if err != nil {
		return 0, errors.InvalidData(errors.PhaseParse, []string{e.Name, name},
			"not an unsigned integer: "+v)
	}
	return n, nil
}

// BoolAttr returns a boolean attribute ("true"/"false"), def when absent.
func (e *Element) BoolAttr(name string, def bool) (bool, error) {
	v, ok := e.Attrs[name]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.InvalidData(errors.PhaseParse, []string{e.Name, name},
			"not a boolean: "+v)
	}
	return b, nil
}

// Child returns the first child with the given element name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given element name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Storage owns parsed documents plus a registry mapping root tag names
// to their elements. After an engine handle takes ownership the storage
// must stay alive for the handle's lifetime; the engine keeps references
// into the tree.
type Storage struct {
	roots []*Element
	tags  map[string]*Element
}

// Parse parses a single textual configuration document, extracts its
// root element and registers it by tag name. Malformed text returns an
// error; this is the only recoverable parse path in the system.
func Parse(text string) (*Storage, error) {
	parseMu.Lock()
	defer parseMu.Unlock()

	root, err := decodeTree(text)
	if err != nil {
		return nil, err
	}

	st := &Storage{tags: make(map[string]*Element)}
	st.roots = append(st.roots, root)
	st.RegisterTag(root)
	return st, nil
}

// RegisterTag makes an element retrievable by its tag name.
func (s *Storage) RegisterTag(el *Element) {
	if el == nil {
		return
	}
	s.tags[el.Name] = el
}

// Tag returns the element registered under name, or nil.
func (s *Storage) Tag(name string) *Element {
	return s.tags[name]
}

// decodeTree builds the element tree from raw document text.
func decodeTree(text string) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(text))

	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "malformed document")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:  t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.InvalidData(errors.PhaseParse, nil, "multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.InvalidData(errors.PhaseParse, nil, "unbalanced end element "+t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				if s := strings.TrimSpace(string(t)); s != "" {
					stack[len(stack)-1].Text += s
				}
			}
		}
	}

	if root == nil {
		return nil, errors.InvalidData(errors.PhaseParse, nil, "empty document")
	}
	if len(stack) != 0 {
		return nil, errors.InvalidData(errors.PhaseParse, nil, "unterminated element "+stack[len(stack)-1].Name)
	}
	return root, nil
}
