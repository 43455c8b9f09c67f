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
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/swcatalog/cachecore/component"
	"github.com/swcatalog/cachecore/internal/silo"
)

// Query executes a prepared expression across every section in
// stored order and returns the merged, deduplicated result.
// Expression errors specific to one section (the path isn't present,
// or the binding count doesn't match) are silently skipped, since an
// individual silo may lawfully omit a path; any other error aborts
// the whole query.
func (s *Store) Query(expr string, bindings ...string) ([]component.Model, error) {
	pq, err := silo.Prepare(expr)
	if err != nil {
		return nil, fmt.Errorf("cachecore: query: %w", err)
	}
	return s.runQuery(pq, bindings)
}

func (s *Store) runQuery(pq *silo.PreparedQuery, bindings []string) ([]component.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[component.DataID]component.Model)
	knownOSIDs := make(map[string]bool)

	for _, sec := range s.sections {
		nodes, err := sec.silo.Query(pq, bindings)
		if err != nil {
			if errors.Is(err, silo.ErrNotFound) || errors.Is(err, silo.ErrInvalidArgument) {
				continue
			}
			return nil, fmt.Errorf("cachecore: query section %q: %w", sec.key, err)
		}
		if err := s.absorbNodes(sec, nodes, result, knownOSIDs); err != nil {
			return nil, err
		}
	}
	return maps.Values(result), nil
}

// absorbNodes implements the per-node steps of the query algorithm:
// OS-metainfo precedence, deserialization, tombstone filtering, and
// last-write-wins merge by data id.
func (s *Store) absorbNodes(sec *section, nodes []silo.Node, result map[component.DataID]component.Model, knownOSIDs map[string]bool) error {
	for _, n := range nodes {
		if sec.isOSData && sec.formatStyle == FormatMetainfo && !s.cfg.PreferOSMetainfo {
			if id, ok := n.ChildText("id"); ok && knownOSIDs[strings.ToLower(id)] {
				continue
			}
		}

		m, err := deserializeComponent(n, s.newModel, refineUnlessMask(s.refine, sec.isMask), sec.refineUdata)
		if err != nil {
			return fmt.Errorf("cachecore: query section %q: %w", sec.key, err)
		}
		if sec.formatStyle == FormatMetainfo {
			m.SetOriginKind("metainfo")
		}

		if !sec.isMask && s.tombstones[m.DataID()] {
			continue
		}

		if sec.isOSData {
			knownOSIDs[strings.ToLower(m.ID())] = true
		}

		result[m.DataID()] = m
		s.resolveAddons(m)
	}
	return nil
}

// refineUnlessMask returns fn unchanged, except that the mask section
// never runs a refine callback (its components are already runtime
// objects the caller curated directly).
func refineUnlessMask(fn RefineFunc, isMask bool) RefineFunc {
	if isMask {
		return nil
	}
	return fn
}

// resolveAddons attaches addon components to m when auto-resolution
// is enabled and m is not itself an addon. Addons of addons are never
// resolved, which bounds the recursion to one level. Callers must
// hold at least the reader lock; resolveAddons walks s.sections
// directly rather than calling back through Query to avoid recursive
// locking.
func (s *Store) resolveAddons(m component.Model) {
	if !s.cfg.AutoResolveAddons || m.IsAddon() {
		return
	}
	attacher, ok := m.(component.Addon)
	if !ok {
		return
	}
	extendsQuery, err := silo.Prepare("components/component/extends[lower-case(text())=?]/..")
	if err != nil {
		return
	}
	var addons []component.Model
	for _, sec := range s.sections {
		nodes, err := sec.silo.Query(extendsQuery, []string{strings.ToLower(m.ID())})
		if err != nil {
			continue
		}
		for _, n := range nodes {
			addon, err := deserializeComponent(n, s.newModel, refineUnlessMask(s.refine, sec.isMask), sec.refineUdata)
			if err != nil || !addon.IsAddon() {
				continue
			}
			addons = append(addons, addon)
		}
	}
	if len(addons) > 0 {
		attacher.AttachAddons(addons)
	}
}

// ByID looks components up by their stable symbolic identifier,
// compared case-insensitively, falling back to "components that
// provide this id" if nothing matches directly.
func (s *Store) ByID(id string) ([]component.Model, error) {
	direct, err := s.Query("components/component/id[lower-case(text())=?]/..", strings.ToLower(id))
	if err != nil {
		return nil, err
	}
	if len(direct) > 0 {
		return direct, nil
	}
	return s.ByProvided(component.KindID, id, "")
}

// ByExtends returns every component whose extends list names id.
func (s *Store) ByExtends(id string) ([]component.Model, error) {
	return s.Query("components/component/extends[lower-case(text())=?]/..", strings.ToLower(id))
}

// ByKind returns every component whose type attribute equals kind.
func (s *Store) ByKind(kind string) ([]component.Model, error) {
	return s.Query("components/component[@type=?]", kind)
}

// ByProvided returns every component providing item of the given
// kind (and, for kinds that carry one, type attribute), e.g. DBus
// system services under component.KindDBusSystem.
func (s *Store) ByProvided(kind component.Kind, item, attrType string) ([]component.Model, error) {
	elem, typeAttr := providedElement(kind)
	if typeAttr == "" {
		return s.Query(fmt.Sprintf("components/component/provides/%s[text()=?]/../..", elem), item)
	}
	return s.Query(fmt.Sprintf("components/component/provides/%s[text()=?][@type='%s']/../..", elem, typeAttr), item)
}

func providedElement(kind component.Kind) (elem, typeAttr string) {
	switch kind {
	case component.KindDBusSystem:
		return "dbus", "system"
	case component.KindDBusUser:
		return "dbus", "user"
	case component.KindMediaType:
		return "mediatype", ""
	case component.KindLibrary:
		return "library", ""
	case component.KindBinary:
		return "binary", ""
	case component.KindFont:
		return "font", ""
	case component.KindModalias:
		return "modalias", ""
	case component.KindFirmware:
		return "firmware", ""
	case component.KindPython2:
		return "python2", ""
	case component.KindPython3:
		return "python3", ""
	case component.KindID:
		return "id", ""
	default:
		return string(kind), ""
	}
}

// ByCategories returns components belonging to every named category
// (logical AND).
func (s *Store) ByCategories(categories ...string) ([]component.Model, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("cachecore: by categories: %w", ErrBadValue)
	}
	var b strings.Builder
	b.WriteString("components/component")
	for range categories {
		b.WriteString("/categories/category[text()=?]/../..")
	}
	return s.Query(b.String(), categories...)
}

// ByLaunchable returns components exposing a launchable entry of the
// given type (e.g. "desktop-id").
func (s *Store) ByLaunchable(launchableType string) ([]component.Model, error) {
	return s.Query("components/component/launchable[@type=?]/..", launchableType)
}

// All returns every indexed component.
func (s *Store) All() ([]component.Model, error) {
	return s.Query("components/component")
}
