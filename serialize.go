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
	"strings"
	"unicode"

	"github.com/swcatalog/cachecore/component"
	"github.com/swcatalog/cachecore/internal/silo"
)

// originElement and tokensElement are the synthetic, cache-only
// elements the serializer attaches alongside the parser's own
// descriptive tree. Deserialization strips _asi_tokens back out but
// keeps _asi_origin, which FromNode may read.
const (
	originElement = "_asi_origin"
	tokensElement = "_asi_tokens"
)

// compileSection builds a full "components" silo from a list of
// components, attaching search tokens and running refine (if
// non-nil) in its serialization phase on each one first.
func compileSection(models []component.Model, origin string, refine RefineFunc, udata any) (*silo.Silo, error) {
	root := silo.NewBuilderNode("components")
	for _, m := range models {
		if refine != nil {
			refine(m, RefineSerialize, udata)
		}
		root.AddChild(buildComponentNode(m, origin))
	}
	return silo.Compile(root)
}

// buildComponentNode converts one component into the builder tree
// Compile expects, attaching node tokens and the unbounded
// _asi_tokens child.
func buildComponentNode(m component.Model, origin string) *silo.BuilderNode {
	b := convertToBuilder(m.ToNode())
	attachTokens(b, m, origin)
	return b
}

// convertToBuilder copies a parser-native component.Node tree,
// verbatim, into the silo builder representation. This is the only
// place the two tree representations touch.
func convertToBuilder(n *component.Node) *silo.BuilderNode {
	b := silo.NewBuilderNode(n.Name)
	if t, ok := n.Text(); ok {
		b.SetText(t)
	}
	if t, ok := n.Tail(); ok {
		b.SetTail(t)
	}
	for _, a := range n.Attrs {
		b.SetAttr(a.Name, a.Value)
	}
	for _, c := range n.Children {
		b.AddChild(convertToBuilder(c))
	}
	return b
}

// attachTokens attaches node-bound search tokens to the relevant
// children, plus the unbounded _asi_tokens/_asi_origin synthetic
// elements. The _asi_origin element itself always carries origin, the
// section's own key, independent of the Model: it's structural data
// the cache core owns, not something the model could know about
// itself before being placed in a section. Components whose Model
// does not implement component.TokenSource simply aren't searchable
// by full text beyond that; every other query family still works.
func attachTokens(b *silo.BuilderNode, m component.Model, origin string) {
	originNode := b.NewChild(originElement).SetText(origin)
	for _, tok := range tokenizeOrigin(origin) {
		originNode.AddToken(tok)
	}

	ts, ok := m.(component.TokenSource)
	if !ok {
		return
	}
	addToChild := func(name string, kind component.WeightKind) {
		for _, c := range b.Children() {
			if c.Name == name {
				for _, tok := range ts.TokensFor(kind) {
					c.AddToken(tok)
				}
			}
		}
	}
	addToChild("id", component.WeightID)
	addToChild("name", component.WeightName)
	addToChild("summary", component.WeightSummary)
	addToChild("pkgname", component.WeightPkgname)

	// provides/mediatype may repeat; the same token list is attached
	// to every occurrence so a single full-text sub-query against
	// provides/mediatype[text()~=?] matches regardless of which
	// entry the hit came from.
	for _, c := range b.Children() {
		if c.Name != "provides" {
			continue
		}
		for _, mt := range c.Children() {
			if mt.Name == "mediatype" {
				for _, tok := range ts.TokensFor(component.WeightMediaType) {
					mt.AddToken(tok)
				}
			}
		}
	}

	tokens := b.NewChild(tokensElement)
	for _, tok := range ts.TokensFor(component.WeightDescription) {
		tokens.NewChild("t").SetText(tok)
	}
}

// tokenizeOrigin splits an origin/section key into lower-cased search
// tokens on any run of non-alphanumeric characters, so a key like
// "fedora-updates" or "flathub.org" is findable by any of its parts.
func tokenizeOrigin(origin string) []string {
	return strings.FieldsFunc(strings.ToLower(origin), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
