// Copyright (C) 2024 Catalog Cache Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package component

// Node is the parser-native intermediate tree a Model converts
// to/from. The cache core never
// interprets a Node's contents beyond copying it into, or out of, a
// compiled silo at the serializer/deserializer seam; shape and
// element names are entirely up to the external parser.
type Node struct {
	Name     string
	text     *string
	tail     *string
	Attrs    []NodeAttr
	Children []*Node
}

// NodeAttr is a single ordered name/value attribute pair.
type NodeAttr struct{ Name, Value string }

// NewNode creates a detached node with the given element name.
func NewNode(name string) *Node { return &Node{Name: name} }

// SetText sets the node's text content.
func (n *Node) SetText(s string) *Node { n.text = &s; return n }

// Text returns the node's text content and whether it is set.
func (n *Node) Text() (string, bool) {
	if n.text == nil {
		return "", false
	}
	return *n.text, true
}

// SetTail sets the node's tail text.
func (n *Node) SetTail(s string) *Node { n.tail = &s; return n }

// Tail returns the node's tail text and whether it is set.
func (n *Node) Tail() (string, bool) {
	if n.tail == nil {
		return "", false
	}
	return *n.tail, true
}

// SetAttr sets (or overwrites) an attribute.
func (n *Node) SetAttr(name, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, NodeAttr{name, value})
	return n
}

// Attr returns the named attribute's value and whether it is set.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AddChild appends child and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// NewChild is a convenience wrapper around AddChild(NewNode(name)).
func (n *Node) NewChild(name string) *Node { return n.AddChild(NewNode(name)) }

// FindChild returns the first child named name, or nil.
func (n *Node) FindChild(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FindChildren returns every child named name, in document order.
func (n *Node) FindChildren(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
