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

import "errors"

// Most failures are not sentinels: they are whatever underlying I/O,
// compile, or parser error occurred, wrapped with
// fmt.Errorf("cachecore: %s: %w", op, err) so callers can still
// errors.Is/As through to the cause. ErrPermission and ErrBadValue
// below are the two conditions callers are expected to branch on
// directly.
var (
	// ErrPermission is returned when a writable cache directory
	// check fails.
	ErrPermission = errors.New("cachecore: cache directory is not writable")

	// ErrBadValue is returned when a caller supplies a reserved
	// cache key name.
	ErrBadValue = errors.New("cachecore: reserved cache key")
)

// reservedKeys are the three cache key names reserved for built-in
// catalogs: the OS collection catalog, the OS metainfo catalog, and
// the flatpak remote source.
var reservedKeys = map[string]bool{
	"os-catalog":  true,
	"os-metainfo": true,
	"flatpak":     true,
}

// checkReservedKey rejects use of a built-in catalog key by anything
// other than the system-scope importer that owns it. User-scope
// callers can never claim these names; system-scope internal code
// (the OS catalog/metainfo/flatpak importers) uses them legitimately.
func checkReservedKey(scope Scope, key string, internal bool) error {
	if scope == ScopeUser && reservedKeys[key] {
		return ErrBadValue
	}
	if scope == ScopeSystem && reservedKeys[key] && !internal {
		return ErrBadValue
	}
	return nil
}
