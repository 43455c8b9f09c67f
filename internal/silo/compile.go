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

import (
	"sort"

	"github.com/google/uuid"
)

// SchemaVersion identifies the on-disk format produced by Compile and
// understood by Decode/Load. It is bumped whenever the binary layout
// changes in a backwards-incompatible way; Load refuses to open a
// silo stamped with any other version.
var SchemaVersion = uuid.MustParse("7b3b6f2e-6e0a-4c2d-9b0a-2f7e4e6d9a10")

// Silo is a compiled, queryable, append-only tree of nodes backed by
// a shared string table. It is the in-memory result of Compile or
// Load.
type Silo struct {
	version uuid.UUID
	strings *stringTable
	nodes   []compiledNode
	root    int32
}

// Version returns the schema version this silo was compiled under.
func (s *Silo) Version() uuid.UUID { return s.version }

// NumNodes returns the number of nodes in the compiled tree,
// primarily useful for tests and diagnostics.
func (s *Silo) NumNodes() int { return len(s.nodes) }

// Root returns a handle to the silo's root node.
func (s *Silo) Root() Node { return Node{s: s, idx: s.root} }

// Compile flattens a BuilderNode tree (and everything reachable from
// it) into a compiled Silo. The resulting Silo owns its own copy of
// every string reachable from root; root may be discarded afterward.
func Compile(root *BuilderNode) (*Silo, error) {
	if root == nil {
		return nil, errCorrupt("cannot compile a nil root node")
	}
	st := newStringTable()
	s := &Silo{version: SchemaVersion, strings: st}
	s.root = appendNode(s, st, -1, root)
	return s, nil
}

func appendNode(s *Silo, st *stringTable, parent int32, b *BuilderNode) int32 {
	idx := int32(len(s.nodes))
	cn := compiledNode{
		Name:   st.intern(b.Name),
		Text:   noString,
		Tail:   noString,
		Parent: parent,
	}
	if b.text != nil {
		cn.Text = st.intern(*b.text)
	}
	if b.tail != nil {
		cn.Tail = st.intern(*b.tail)
	}
	for _, a := range b.attrs {
		cn.Attrs = append(cn.Attrs, attr{Name: st.intern(a.Name), Value: st.intern(a.Value)})
	}
	sort.Slice(cn.Attrs, func(i, j int) bool { return cn.Attrs[i].Name < cn.Attrs[j].Name })

	n := len(b.tokens)
	if n > MaxTokensPerNode {
		n = MaxTokensPerNode
	}
	for _, tok := range b.tokens[:n] {
		norm := normalizeToken(tok)
		cn.Tokens = append(cn.Tokens, st.intern(norm))
		cn.Filter.add(norm)
	}

	// Reserve the slot before recursing so child nodes can record
	// the correct parent index even though we haven't finished
	// filling in cn.Children yet.
	s.nodes = append(s.nodes, compiledNode{})
	for _, c := range b.children {
		cn.Children = append(cn.Children, appendNode(s, st, idx, c))
	}
	s.nodes[idx] = cn
	return idx
}
