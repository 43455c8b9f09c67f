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
	"path/filepath"
	"testing"

	"github.com/swcatalog/cachecore/component"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{Locale: "C"}
	return NewStore(cfg, newTestModel,
		WithSystemCacheRoot(filepath.Join(dir, "system")),
		WithUserCacheRoot(filepath.Join(dir, "user")))
}

func TestSetContentsAndQueryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.a", kind: "desktop-application", name: "App A", summary: "Edit photos"},
		&testComponent{id: "app.b", kind: "desktop-application", name: "App B", summary: "Play music"},
	}, "vendor-repo", nil)
	if err != nil {
		t.Fatalf("SetContents: %v", err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 components, got %d", len(all))
	}
}

func TestSetContentsRejectsReservedUserKey(t *testing.T) {
	s := newTestStore(t)
	err := s.SetContents(ScopeUser, FormatCollection, false, nil, "os-catalog", nil)
	if err == nil {
		t.Fatalf("expected reserved-key error")
	}
}

func TestSetContentsAllowsReservedKeyForOSImport(t *testing.T) {
	s := newTestStore(t)
	err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.a", kind: "desktop-application", name: "App A"},
	}, "os-catalog", nil)
	if err != nil {
		t.Fatalf("expected internal OS import to bypass the reserved-key check: %v", err)
	}
}

func TestSetContentsReplacesPriorSectionWithSameKey(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.a", kind: "desktop-application", name: "App A"},
	}, "vendor-repo", nil); err != nil {
		t.Fatalf("SetContents 1: %v", err)
	}
	if err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.b", kind: "desktop-application", name: "App B"},
	}, "vendor-repo", nil); err != nil {
		t.Fatalf("SetContents 2: %v", err)
	}
	if len(s.sections) != 1 {
		t.Fatalf("expected the second SetContents to replace the first section, got %d sections", len(s.sections))
	}
	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0].ID() != "app.b" {
		t.Fatalf("expected only app.b to survive, got %+v", all)
	}
}

func TestLoadSectionForKeyFindsMostRecentFile(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.a", kind: "desktop-application", name: "App A"},
	}, "vendor-repo", nil); err != nil {
		t.Fatalf("SetContents: %v", err)
	}

	fresh := newTestStore(t)
	fresh.fm.systemRoot = s.fm.systemRoot
	fresh.fm.userRoot = s.fm.userRoot
	outdated, err := fresh.LoadSectionForKey(FormatCollection, true, "vendor-repo", nil)
	if err != nil {
		t.Fatalf("LoadSectionForKey: %v", err)
	}
	if outdated {
		t.Fatalf("expected a freshly persisted section to load without being outdated")
	}
	all, err := fresh.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0].ID() != "app.a" {
		t.Fatalf("unexpected components after load: %+v", all)
	}
}

func TestLoadSectionForKeyMissingReportsOutdated(t *testing.T) {
	s := newTestStore(t)
	outdated, err := s.LoadSectionForKey(FormatCollection, true, "nonexistent", nil)
	if err != nil {
		t.Fatalf("LoadSectionForKey: %v", err)
	}
	if !outdated {
		t.Fatalf("expected a missing section to be reported as outdated")
	}
}

func TestClearDropsSectionsAndTombstones(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.a", kind: "desktop-application", name: "App A"},
	}, "vendor-repo", nil); err != nil {
		t.Fatalf("SetContents: %v", err)
	}
	s.MaskByDataID(component.DataID{Scope: "system", BundleKind: "test", ID: "app.a"})

	s.Clear()

	if len(s.sections) != 0 {
		t.Fatalf("expected no sections after Clear")
	}
	if len(s.tombstones) != 0 {
		t.Fatalf("expected no tombstones after Clear")
	}
}

func TestSetLocaleDoesNotAffectLoadedSections(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetContents(ScopeSystem, FormatCollection, true, []component.Model{
		&testComponent{id: "app.a", kind: "desktop-application", name: "App A"},
	}, "vendor-repo", nil); err != nil {
		t.Fatalf("SetContents: %v", err)
	}
	s.SetLocale("de_DE")
	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected the already-loaded section to remain queryable after SetLocale")
	}
}

func TestPruneDisabledWhenCacheRootOverridden(t *testing.T) {
	s := newTestStore(t)
	// newTestStore already overrides both roots via Options, so Prune
	// must be a no-op rather than touching anything under t.TempDir().
	if err := s.Prune(); err != nil {
		t.Fatalf("Prune: %v", err)
	}
}
