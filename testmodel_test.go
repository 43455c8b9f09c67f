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

	"github.com/swcatalog/cachecore/component"
)

// testComponent is a minimal component.Model used across this
// package's tests. It round-trips through ToNode/FromNode the same
// shape the serializer and deserializer expect real parser output to
// have.
type testComponent struct {
	id             string
	kind           string
	name           string
	summary        string
	pkgname        string
	mediaTypes     []string
	categories     []string
	launchableType string
	extends        []string
	addon          bool
	originKind     string
	origin         string

	attachedAddons []component.Model
}

var _ component.Model = (*testComponent)(nil)
var _ component.TokenSource = (*testComponent)(nil)
var _ component.Addon = (*testComponent)(nil)

func (c *testComponent) DataID() component.DataID {
	return component.DataID{Scope: "system", BundleKind: "test", Origin: c.origin, ID: c.id}
}

func (c *testComponent) ID() string            { return c.id }
func (c *testComponent) Kind() string          { return c.kind }
func (c *testComponent) Extends() []string     { return c.extends }
func (c *testComponent) IsAddon() bool         { return c.addon }
func (c *testComponent) SetOriginKind(k string) { c.originKind = k }

func (c *testComponent) AttachAddons(addons []component.Model) {
	c.attachedAddons = append(c.attachedAddons, addons...)
}

func (c *testComponent) TokensFor(kind component.WeightKind) []string {
	switch kind {
	case component.WeightID:
		return []string{strings.ToLower(c.id)}
	case component.WeightName:
		return strings.Fields(strings.ToLower(c.name))
	case component.WeightSummary, component.WeightDescription:
		return strings.Fields(strings.ToLower(c.summary))
	case component.WeightPkgname:
		if c.pkgname == "" {
			return nil
		}
		return []string{strings.ToLower(c.pkgname)}
	case component.WeightMediaType:
		out := make([]string, len(c.mediaTypes))
		for i, mt := range c.mediaTypes {
			out[i] = strings.ToLower(mt)
		}
		return out
	}
	return nil
}

func (c *testComponent) ToNode() *component.Node {
	n := component.NewNode("component")
	n.SetAttr("type", c.kind)
	n.NewChild("id").SetText(c.id)
	n.NewChild("name").SetText(c.name)
	n.NewChild("summary").SetText(c.summary)
	if c.pkgname != "" {
		n.NewChild("pkgname").SetText(c.pkgname)
	}
	if len(c.mediaTypes) > 0 {
		provides := n.NewChild("provides")
		for _, mt := range c.mediaTypes {
			provides.NewChild("mediatype").SetText(mt)
		}
	}
	if len(c.categories) > 0 {
		cats := n.NewChild("categories")
		for _, cat := range c.categories {
			cats.NewChild("category").SetText(cat)
		}
	}
	if c.launchableType != "" {
		n.NewChild("launchable").SetAttr("type", c.launchableType).SetText(c.id + ".desktop")
	}
	for _, e := range c.extends {
		n.NewChild("extends").SetText(e)
	}
	return n
}

func (c *testComponent) FromNode(n *component.Node) error {
	c.kind, _ = n.Attr("type")
	if id := n.FindChild("id"); id != nil {
		c.id, _ = id.Text()
	}
	if name := n.FindChild("name"); name != nil {
		c.name, _ = name.Text()
	}
	if summary := n.FindChild("summary"); summary != nil {
		c.summary, _ = summary.Text()
	}
	if pkg := n.FindChild("pkgname"); pkg != nil {
		c.pkgname, _ = pkg.Text()
	}
	if provides := n.FindChild("provides"); provides != nil {
		for _, mt := range provides.FindChildren("mediatype") {
			if t, ok := mt.Text(); ok {
				c.mediaTypes = append(c.mediaTypes, t)
			}
		}
	}
	if cats := n.FindChild("categories"); cats != nil {
		for _, cat := range cats.FindChildren("category") {
			if t, ok := cat.Text(); ok {
				c.categories = append(c.categories, t)
			}
		}
	}
	if launchable := n.FindChild("launchable"); launchable != nil {
		c.launchableType, _ = launchable.Attr("type")
	}
	for _, e := range n.FindChildren("extends") {
		if t, ok := e.Text(); ok {
			c.extends = append(c.extends, t)
		}
	}
	if originNode := n.FindChild(originElement); originNode != nil {
		c.origin, _ = originNode.Text()
	}
	c.addon = c.kind == "addon"
	return nil
}

func newTestModel() component.Model { return &testComponent{} }
