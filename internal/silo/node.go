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

package silo

// MaxTokensPerNode is the hard ceiling on the number of node-attached
// search tokens the compiled format can carry for a single node.
// Extra tokens passed to BuilderNode.AddToken beyond this count are
// truncated; callers that need an unbounded token set (as the
// serializer does for description/keyword tokens) must route them
// through ordinary child elements instead.
const MaxTokensPerNode = 32

// attr is a single compiled attribute: name and value are both
// string-table ids. Per-node attribute lists are kept sorted by
// Name so lookups and equality checks over a compiled silo are
// order-independent.
type attr struct {
	Name  uint32
	Value uint32
}

// BuilderNode is the mutable tree representation used while
// assembling a component's node tree prior to Compile. It mirrors
// the shape the serializer produces: an element name, optional text
// and tail text, an ordered attribute list, ordered children, and an
// optional token list used for full-text search.
type BuilderNode struct {
	Name     string
	text     *string
	tail     *string
	attrs    []kv
	children []*BuilderNode
	tokens   []string
}

type kv struct{ Name, Value string }

// NewBuilderNode creates a detached node with the given element name.
func NewBuilderNode(name string) *BuilderNode {
	return &BuilderNode{Name: name}
}

// SetText sets the node's text content.
func (n *BuilderNode) SetText(s string) *BuilderNode {
	n.text = &s
	return n
}

// SetTail sets the node's tail text (text following the node but
// still owned by it, mirroring XML tail-text semantics).
func (n *BuilderNode) SetTail(s string) *BuilderNode {
	n.tail = &s
	return n
}

// SetAttr sets (or overwrites) an attribute.
func (n *BuilderNode) SetAttr(name, value string) *BuilderNode {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return n
		}
	}
	n.attrs = append(n.attrs, kv{name, value})
	return n
}

// AddChild appends a child node and returns it, so callers can chain
// further mutation on the child.
func (n *BuilderNode) AddChild(child *BuilderNode) *BuilderNode {
	n.children = append(n.children, child)
	return child
}

// NewChild is a convenience wrapper around AddChild(NewBuilderNode(name)).
func (n *BuilderNode) NewChild(name string) *BuilderNode {
	return n.AddChild(NewBuilderNode(name))
}

// Children returns the node's children in document order.
func (n *BuilderNode) Children() []*BuilderNode { return n.children }

// AddToken appends a node-attached search token. It reports whether
// the token was kept: once MaxTokensPerNode tokens have been
// attached, further calls are no-ops that return false.
func (n *BuilderNode) AddToken(tok string) bool {
	if tok == "" || len(n.tokens) >= MaxTokensPerNode {
		return false
	}
	n.tokens = append(n.tokens, tok)
	return true
}

// compiledNode is the flattened, string-table-relative representation
// of a BuilderNode stored inside a Silo.
type compiledNode struct {
	Name     uint32
	Text     uint32 // noString if absent
	Tail     uint32 // noString if absent
	Parent   int32  // -1 for the root
	Children []int32
	Attrs    []attr // sorted by Name
	Tokens   []uint32
	Filter   tokenFilter
}

// Node is a read-only handle to one node inside a compiled Silo,
// returned from query execution. It is only valid for the lifetime
// of the Silo it came from.
type Node struct {
	s   *Silo
	idx int32
}

// Valid reports whether the handle refers to an actual node (the
// zero Node and results of out-of-bounds navigation are invalid).
func (n Node) Valid() bool { return n.s != nil && n.idx >= 0 && int(n.idx) < len(n.s.nodes) }

func (n Node) cn() *compiledNode { return &n.s.nodes[n.idx] }

// Name returns the node's element name.
func (n Node) Name() string { return n.s.strings.get(n.cn().Name) }

// Text returns the node's text content and whether it is present.
func (n Node) Text() (string, bool) {
	id := n.cn().Text
	if id == noString {
		return "", false
	}
	return n.s.strings.get(id), true
}

// Tail returns the node's tail text and whether it is present.
func (n Node) Tail() (string, bool) {
	id := n.cn().Tail
	if id == noString {
		return "", false
	}
	return n.s.strings.get(id), true
}

// Attr returns the value of the named attribute and whether it is set.
func (n Node) Attr(name string) (string, bool) {
	id, ok := n.s.strings.lookup(name)
	if !ok {
		return "", false
	}
	cn := n.cn()
	// Attrs are sorted by Name, but the list is short enough
	// (handful of attributes per node) that a linear scan is
	// simpler and just as fast as a binary search here.
	for _, a := range cn.Attrs {
		if a.Name == id {
			return n.s.strings.get(a.Value), true
		}
	}
	return "", false
}

// Attribute is a single name/value pair, as returned by Node.Attrs.
type Attribute struct{ Name, Value string }

// Attrs returns all of the node's attributes, ordered by the string
// table id of their names (the order in which names were first
// interned), which is not necessarily alphabetical.
func (n Node) Attrs() []Attribute {
	cn := n.cn()
	out := make([]Attribute, len(cn.Attrs))
	for i, a := range cn.Attrs {
		out[i] = Attribute{Name: n.s.strings.get(a.Name), Value: n.s.strings.get(a.Value)}
	}
	return out
}

// Children returns the node's children in document order.
func (n Node) Children() []Node {
	cn := n.cn()
	out := make([]Node, len(cn.Children))
	for i, c := range cn.Children {
		out[i] = Node{s: n.s, idx: c}
	}
	return out
}

// ChildrenNamed returns the node's children whose element name
// matches name, in document order.
func (n Node) ChildrenNamed(name string) []Node {
	id, ok := n.s.strings.lookup(name)
	if !ok {
		return nil
	}
	var out []Node
	for _, c := range n.cn().Children {
		if n.s.nodes[c].Name == id {
			out = append(out, Node{s: n.s, idx: c})
		}
	}
	return out
}

// ChildText returns the text of the first child named name, and
// whether such a child with text was found.
func (n Node) ChildText(name string) (string, bool) {
	for _, c := range n.ChildrenNamed(name) {
		if t, ok := c.Text(); ok {
			return t, true
		}
	}
	return "", false
}

// Parent returns the node's parent. The result is invalid if n is
// the root.
func (n Node) Parent() Node {
	return Node{s: n.s, idx: n.cn().Parent}
}

// Tokens returns the node's node-attached search tokens.
func (n Node) Tokens() []string {
	cn := n.cn()
	out := make([]string, len(cn.Tokens))
	for i, id := range cn.Tokens {
		out[i] = n.s.strings.get(id)
	}
	return out
}

// HasToken reports whether term is present among the node's
// node-attached tokens, case-insensitively. The per-node Bloom
// filter lets most non-matches return false without touching the
// token list itself.
func (n Node) HasToken(term string) bool {
	norm := normalizeToken(term)
	cn := n.cn()
	if !cn.Filter.mayContain(norm) {
		return false
	}
	id, ok := n.s.strings.lookup(norm)
	if !ok {
		return false
	}
	for _, t := range cn.Tokens {
		if t == id {
			return true
		}
	}
	return false
}
