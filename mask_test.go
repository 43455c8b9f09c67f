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
	"testing"

	"github.com/swcatalog/cachecore/component"
)

func TestAddMaskingComponentsOverlaysQueryResult(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.a", kind: "desktop-application", name: "App A"},
	}, "vendor-repo", nil); err != nil {
		t.Fatalf("SetContents: %v", err)
	}

	if err := s.AddMaskingComponents([]component.Model{
		&testComponent{id: "app.masked", kind: "desktop-application", name: "Masked App"},
	}); err != nil {
		t.Fatalf("AddMaskingComponents: %v", err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if want := []string{"app.a", "app.masked"}; !equalStrings(idsOf(all), want) {
		t.Fatalf("All() = %v, want %v", idsOf(all), want)
	}

	var sections int
	for _, sec := range s.sections {
		if sec.isMask {
			sections++
		}
	}
	if sections != 1 {
		t.Fatalf("expected exactly one mask section, got %d", sections)
	}
}

func TestAddMaskingComponentsCarriesOverPriorMaskContent(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddMaskingComponents([]component.Model{
		&testComponent{id: "app.one", kind: "desktop-application", name: "One"},
	}); err != nil {
		t.Fatalf("AddMaskingComponents 1: %v", err)
	}
	if err := s.AddMaskingComponents([]component.Model{
		&testComponent{id: "app.two", kind: "desktop-application", name: "Two"},
	}); err != nil {
		t.Fatalf("AddMaskingComponents 2: %v", err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if want := []string{"app.one", "app.two"}; !equalStrings(idsOf(all), want) {
		t.Fatalf("expected both masking calls' components to survive, got %v, want %v", idsOf(all), want)
	}

	var sections int
	for _, sec := range s.sections {
		if sec.isMask {
			sections++
		}
	}
	if sections != 1 {
		t.Fatalf("expected the second AddMaskingComponents to replace the first mask section, got %d mask sections", sections)
	}
}

func TestAddMaskingComponentsDropsTombstonedCarryOver(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddMaskingComponents([]component.Model{
		&testComponent{id: "app.one", kind: "desktop-application", name: "One"},
	}); err != nil {
		t.Fatalf("AddMaskingComponents 1: %v", err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	maskOne := all[0].(*testComponent)
	s.MaskByDataID(maskOne.DataID())

	if err := s.AddMaskingComponents([]component.Model{
		&testComponent{id: "app.two", kind: "desktop-application", name: "Two"},
	}); err != nil {
		t.Fatalf("AddMaskingComponents 2: %v", err)
	}

	all, err = s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if want := []string{"app.two"}; !equalStrings(idsOf(all), want) {
		t.Fatalf("expected the tombstoned mask component to be dropped on the next carry-over, got %v, want %v", idsOf(all), want)
	}
}

func TestAddMaskingComponentsOwnContentsNeverHiddenByItsOwnTombstone(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddMaskingComponents([]component.Model{
		&testComponent{id: "app.one", kind: "desktop-application", name: "One"},
	}); err != nil {
		t.Fatalf("AddMaskingComponents: %v", err)
	}
	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected the mask's own component to be visible, got %d results", len(all))
	}
}
