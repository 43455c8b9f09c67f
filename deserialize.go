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

package cachecore

import (
	"fmt"

	"github.com/swcatalog/cachecore/component"
	"github.com/swcatalog/cachecore/internal/silo"
)

// deserializeComponent converts one compiled "component" node back
// into a component.Model, stripping the search-only _asi_tokens
// children the serializer attached (but keeping _asi_origin, which
// FromNode may read to populate the component's data id) and running
// refine in its deserialization phase. newModel constructs the empty
// instance FromNode populates; it is the Store's configured factory.
func deserializeComponent(n silo.Node, newModel func() component.Model, refine RefineFunc, udata any) (component.Model, error) {
	node := convertFromSilo(n)
	m := newModel()
	if err := m.FromNode(node); err != nil {
		return nil, fmt.Errorf("cachecore: deserialize component: %w", err)
	}
	if refine != nil {
		refine(m, RefineDeserialize, udata)
	}
	return m, nil
}

// convertFromSilo rebuilds a parser-native component.Node tree from a
// compiled node, dropping the cache-only _asi_tokens child the
// serializer attached so the parser never sees the raw search index.
func convertFromSilo(n silo.Node) *component.Node {
	out := component.NewNode(n.Name())
	if t, ok := n.Text(); ok {
		out.SetText(t)
	}
	if t, ok := n.Tail(); ok {
		out.SetTail(t)
	}
	for _, a := range n.Attrs() {
		out.SetAttr(a.Name, a.Value)
	}
	for _, c := range n.Children() {
		if c.Name() == tokensElement {
			continue
		}
		out.AddChild(convertFromSilo(c))
	}
	return out
}
