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

import "testing"

func sampleTree() *BuilderNode {
	root := NewBuilderNode("components")
	c1 := root.NewChild("component")
	c1.NewChild("id").SetText("app.a")
	c1.NewChild("name").SetText("App A")
	summary := c1.NewChild("summary")
	summary.SetText("Edit photos")
	summary.AddToken("edit")
	summary.AddToken("photos")
	cats := c1.NewChild("categories")
	cats.NewChild("category").SetText("Graphics")
	cats.NewChild("category").SetText("Photography")
	provides := c1.NewChild("provides")
	dbus := provides.NewChild("dbus")
	dbus.SetText("org.example.X")
	dbus.SetAttr("type", "system")

	c2 := root.NewChild("component")
	c2.NewChild("id").SetText("app.b")
	c2.NewChild("summary").SetText("Play music")
	return root
}

func TestCompileAndQueryBasics(t *testing.T) {
	s, err := Compile(sampleTree())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if s.NumNodes() == 0 {
		t.Fatalf("expected nodes")
	}

	pq, err := Prepare("components/component")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	nodes, err := s.Query(pq, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 components, got %d", len(nodes))
	}
}

func TestQueryByIDPredicate(t *testing.T) {
	s, _ := Compile(sampleTree())
	pq, err := Prepare("components/component/id[text()=?]/..")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	nodes, err := s.Query(pq, []string{"app.a"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 match, got %d", len(nodes))
	}
	id, ok := nodes[0].ChildrenNamed("id")[0].Text()
	if !ok || id != "app.a" {
		t.Fatalf("wrong node returned: %q", id)
	}
}

func TestQueryAttrAndTokenPredicates(t *testing.T) {
	s, _ := Compile(sampleTree())

	pq, err := Prepare("provides/dbus[text()=?][@type='system']/../..")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	root := s.Root()
	components := root.ChildrenNamed("component")
	nodes, err := s.QueryFrom(components[0], pq, []string{"org.example.X"})
	if err != nil {
		t.Fatalf("QueryFrom: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected dbus match to climb back to the component, got %d", len(nodes))
	}

	nodes, err = s.QueryFrom(components[1], pq, []string{"org.example.X"})
	if err != nil {
		t.Fatalf("QueryFrom: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("component without a dbus provider should not match")
	}

	tokenQ, err := Prepare("components/component/summary[text()~=?]/..")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	nodes, err = s.Query(tokenQ, []string{"photos"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected one token match, got %d", len(nodes))
	}
}

func TestQueryNotFoundVsEmpty(t *testing.T) {
	s, _ := Compile(sampleTree())

	pq, _ := Prepare("nonexistent-root/x")
	_, err := s.Query(pq, nil)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	pq2, _ := Prepare("components/component/id[text()=?]")
	nodes, err := s.Query(pq2, []string{"app.zzz"})
	if err != nil {
		t.Fatalf("unexpected error for structurally valid but empty match: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("expected zero matches")
	}
}

func TestQueryBadBindingCount(t *testing.T) {
	s, _ := Compile(sampleTree())
	pq, _ := Prepare("components/component/id[text()=?]")
	_, err := s.Query(pq, nil)
	if err == nil {
		t.Fatalf("expected an error for missing binding")
	}
}

func TestPrepareRejectsMalformedExpressions(t *testing.T) {
	cases := []string{
		"components[unbalanced",
		"components/component[nonsense()=?]",
		"components/component[@type=nope]",
		"",
	}
	for _, c := range cases {
		if _, err := Prepare(c); err == nil {
			t.Errorf("expected Prepare(%q) to fail", c)
		}
	}
}

func TestTokenCeiling(t *testing.T) {
	n := NewBuilderNode("x")
	added := 0
	for i := 0; i < 40; i++ {
		if n.AddToken("tok") {
			added++
		}
	}
	if added != MaxTokensPerNode {
		t.Fatalf("expected %d tokens kept, got %d", MaxTokensPerNode, added)
	}
}
