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

// Package cachecore implements a thread-safe, on-disk,
// section-partitioned cache of software-catalog component metadata:
// a Store compiles components into compiled binary indices ("silos"),
// persists them per (scope, locale, key), and answers structured and
// full-text queries against the merged result across every section.
package cachecore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/swcatalog/cachecore/component"
	"github.com/swcatalog/cachecore/internal/silo"
)

const maskSectionKey = "mask"

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger routes the Store's internal diagnostic logging (pruning
// and stale-file-removal failures) to l instead of log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.fm.logger = l }
}

// WithSystemCacheRoot overrides the default system cache directory.
// Overriding either root disables Prune, matching fileManager's
// caller-owned-data protection for tests.
func WithSystemCacheRoot(path string) Option {
	return func(s *Store) { s.fm.systemRoot = path; s.fm.overridden = true }
}

// WithUserCacheRoot overrides the default user cache directory.
func WithUserCacheRoot(path string) Option {
	return func(s *Store) { s.fm.userRoot = path; s.fm.overridden = true }
}

// Store is the Section Store: a reader-writer-locked, ordered set of
// compiled sections plus a tombstone overlay. Every exported method
// is safe to call from multiple goroutines concurrently; mutators
// hold the writer lock for their whole duration, including file I/O,
// and readers (Query/Search) hold the reader lock for theirs.
type Store struct {
	mu sync.RWMutex

	cfg        Config
	newModel   func() component.Model
	fm         *fileManager
	sections   []*section
	tombstones map[component.DataID]bool
	refine     RefineFunc
}

// NewStore constructs a Store from cfg, using newModel to instantiate
// empty component.Model values during deserialization. Cache roots
// default to a system-wide directory and the user's cache directory
// unless cfg or an Option overrides them.
func NewStore(cfg Config, newModel func() component.Model, opts ...Option) *Store {
	sysRoot := cfg.SystemCacheRoot
	overridden := sysRoot != ""
	if sysRoot == "" {
		sysRoot = defaultSystemCacheRoot()
	}
	usrRoot := cfg.UserCacheRoot
	if usrRoot != "" {
		overridden = true
	} else {
		usrRoot = defaultUserCacheRoot()
	}

	st := &Store{
		cfg:        cfg,
		newModel:   newModel,
		fm:         newFileManager(sysRoot, usrRoot, overridden, log.Default()),
		tombstones: make(map[component.DataID]bool),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

func defaultSystemCacheRoot() string {
	return filepath.Join(string(filepath.Separator)+"var", "cache", "swcatalog")
}

func defaultUserCacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "swcatalog")
	}
	return filepath.Join(os.TempDir(), "swcatalog-user-cache")
}

// SetLocale replaces the locale used for subsequent path generation
// and section keys. The locale is not passed to the serializer or to
// component.Model conversions. It does not modify sections already
// loaded.
func (s *Store) SetLocale(locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Locale = locale
}

// SetLocations overrides the system and/or user cache root. An empty
// string leaves that root unchanged. Either non-empty argument
// disables Prune for this Store, per fileManager's caller-owned-data
// protection.
func (s *Store) SetLocations(systemRoot, userRoot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if systemRoot != "" {
		s.fm.systemRoot = systemRoot
		s.fm.overridden = true
	}
	if userRoot != "" {
		s.fm.userRoot = userRoot
		s.fm.overridden = true
	}
}

// SetRefineFunc configures the callback invoked on every
// (de)serialization. fn must not call back into the Store.
func (s *Store) SetRefineFunc(fn RefineFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refine = fn
}

// Clear drops every section and the tombstone set. Settings (locale,
// cache roots, refine function) survive.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = nil
	maps.Clear(s.tombstones)
}

// Prune removes on-disk section files that have gone unaccessed past
// the retention window, unless either cache root has been overridden.
func (s *Store) Prune() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fm.prune()
}

// SetContents compiles components into a new section keyed by
// (scope, locale, userKey), persists it atomically, and replaces any
// prior section sharing that key.
func (s *Store) SetContents(scope Scope, formatStyle FormatStyle, isOSData bool, components []component.Model, userKey string, refineUdata any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkReservedKey(scope, userKey, isOSData); err != nil {
		return err
	}

	compiled, err := compileSection(components, userKey, s.refine, refineUdata)
	if err != nil {
		return fmt.Errorf("cachecore: set contents %q: %w", userKey, err)
	}
	path := s.fm.path(scope, s.cfg.Locale, userKey)
	if err := compiled.Save(path); err != nil {
		return fmt.Errorf("cachecore: set contents %q: %w", userKey, err)
	}

	s.registerSection(&section{
		key:         sectionKey(scope, s.cfg.Locale, userKey),
		userKey:     userKey,
		locale:      s.cfg.Locale,
		scope:       scope,
		formatStyle: formatStyle,
		isOSData:    isOSData,
		silo:        compiled,
		fname:       path,
		refineUdata: refineUdata,
	})
	return nil
}

// LoadSectionForKey loads the most recently written on-disk file for
// (locale, userKey), checking both cache roots, and registers it as a
// section. isOutdated is true and no section is added when no such
// file exists yet.
func (s *Store) LoadSectionForKey(formatStyle FormatStyle, isOSData bool, userKey string, refineUdata any) (isOutdated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, foundScope, _, ok := s.fm.mostRecent(s.cfg.Locale, userKey)
	if !ok {
		return true, nil
	}
	sio, err := silo.Load(path)
	if err != nil {
		return true, fmt.Errorf("cachecore: load section %q: %w", userKey, err)
	}
	s.registerSection(&section{
		key:         sectionKey(foundScope, s.cfg.Locale, userKey),
		userKey:     userKey,
		locale:      s.cfg.Locale,
		scope:       foundScope,
		formatStyle: formatStyle,
		isOSData:    isOSData,
		silo:        sio,
		fname:       path,
		refineUdata: refineUdata,
	})
	return false, nil
}

// LoadSectionForPath loads the cache entry backing a single upstream
// metainfo source file at absolutePath (scope inferred from whether
// the path falls under the user's home directory), registering it as
// an OS-data, METAINFO-style section. isOutdated reports whether the
// cache file's change-time is older than the source file's.
func (s *Store) LoadSectionForPath(absolutePath string, refineUdata any) (isOutdated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := ScopeSystem
	if home, herr := os.UserHomeDir(); herr == nil && strings.HasPrefix(absolutePath, home) {
		scope = ScopeUser
	}
	key := sourceKey(absolutePath)
	path := s.fm.path(scope, s.cfg.Locale, key)

	cacheInfo, cacheErr := os.Stat(path)
	if cacheErr != nil {
		return true, nil
	}
	outdated := false
	if srcInfo, srcErr := os.Stat(absolutePath); srcErr == nil {
		outdated = !isCurrent(cacheInfo.ModTime(), srcInfo.ModTime())
	}

	sio, err := silo.Load(path)
	if err != nil {
		return true, fmt.Errorf("cachecore: load section for %q: %w", absolutePath, err)
	}
	s.registerSection(&section{
		key:         sectionKey(scope, s.cfg.Locale, key),
		userKey:     key,
		locale:      s.cfg.Locale,
		scope:       scope,
		formatStyle: FormatMetainfo,
		isOSData:    true,
		silo:        sio,
		fname:       path,
		refineUdata: refineUdata,
	})
	return outdated, nil
}

// sourceKey derives the cache key a single metainfo source file is
// keyed under: its base name with the extension stripped.
func sourceKey(absolutePath string) string {
	base := filepath.Base(absolutePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MaskByDataID tombstones id with value true. The next query hides
// any non-mask section's component carrying that data id.
func (s *Store) MaskByDataID(id component.DataID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstones[id] = true
}

// registerSection removes any existing section sharing sec's key (or,
// for a mask section, any existing mask section), deletes that
// section's on-disk file if it differs from sec's own, appends sec,
// and re-sorts. Callers must hold the writer lock.
func (s *Store) registerSection(sec *section) {
	kept := s.sections[:0:0]
	for _, old := range s.sections {
		if old.key == sec.key {
			if old.fname != "" && old.fname != sec.fname {
				s.fm.removeStale(old.fname)
			}
			continue
		}
		kept = append(kept, old)
	}
	s.sections = append(kept, sec)
	sortSections(s.sections)
}
