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
	"os"
	"path/filepath"

	"github.com/swcatalog/cachecore/component"
	"github.com/swcatalog/cachecore/internal/silo"
)

// maskOrigin is the origin string attached to every component in the
// mask section, regardless of which section originally held it.
const maskOrigin = "mask"

// AddMaskingComponents overlays new onto the query result: any prior
// mask contents not themselves tombstoned are carried over, new is
// added on top, and the whole set is tombstoned with value false so
// the mask's own contents are never hidden by the overlay it lives
// on top of.
func (s *Store) AddMaskingComponents(additions []component.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	carryOver, err := s.extractMaskLocked()
	if err != nil {
		return fmt.Errorf("cachecore: add masking components: %w", err)
	}

	combined := append(carryOver, additions...)
	for _, m := range combined {
		s.tombstones[m.DataID()] = false
	}

	path := filepath.Join(s.maskRuntimeDirLocked(), "mask-"+randomSuffix(8)+siloExt)
	compiled, err := compileSection(combined, maskOrigin, nil, nil)
	if err != nil {
		return fmt.Errorf("cachecore: add masking components: %w", err)
	}
	if err := compiled.Save(path); err != nil {
		return fmt.Errorf("cachecore: add masking components: %w", err)
	}

	s.registerSection(&section{
		key:         maskSectionKey,
		scope:       ScopeUser,
		formatStyle: FormatCollection,
		isMask:      true,
		silo:        compiled,
		fname:       path,
	})
	return nil
}

// extractMaskLocked reads the current mask section's components (if
// any), drops the ones tombstoned true, and removes the prior mask
// file. Callers must hold the writer lock.
func (s *Store) extractMaskLocked() ([]component.Model, error) {
	var prior *section
	for _, sec := range s.sections {
		if sec.isMask {
			prior = sec
			break
		}
	}
	if prior == nil {
		return nil, nil
	}

	allQuery, err := silo.Prepare("components/component")
	if err != nil {
		return nil, err
	}
	nodes, err := prior.silo.Query(allQuery, nil)
	if err != nil && !errors.Is(err, silo.ErrNotFound) {
		return nil, err
	}

	var carryOver []component.Model
	for _, n := range nodes {
		m, err := deserializeComponent(n, s.newModel, nil, nil)
		if err != nil {
			return nil, err
		}
		if s.tombstones[m.DataID()] {
			continue
		}
		carryOver = append(carryOver, m)
	}

	if prior.fname != "" {
		s.fm.removeStale(prior.fname)
	}
	return carryOver, nil
}

// maskRuntimeDirLocked returns the directory new mask files are
// written under: a "mask" subdirectory of the user cache root, kept
// separate from ordinary sections since mask filenames carry a random
// suffix rather than an (locale, key)-derived name.
func (s *Store) maskRuntimeDirLocked() string {
	dir := filepath.Join(s.fm.userRoot, "mask")
	os.MkdirAll(dir, 0o750)
	return dir
}
