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

import "github.com/swcatalog/cachecore/component"

// Scope distinguishes cache data that applies to every user of a
// system from data contributed by, and writable by, one user.
type Scope int

const (
	ScopeSystem Scope = iota
	ScopeUser
)

func (s Scope) String() string {
	if s == ScopeUser {
		return "user"
	}
	return "system"
}

// FormatStyle distinguishes authoritative, aggregated distributor
// metadata from upstream-supplied per-component fill-in metadata.
type FormatStyle int

const (
	FormatCollection FormatStyle = iota
	FormatMetainfo
)

func (f FormatStyle) String() string {
	if f == FormatMetainfo {
		return "metainfo"
	}
	return "collection"
}

// RefinePhase tells a RefineFunc whether it is being invoked during
// serialization (write) or deserialization (read).
type RefinePhase int

const (
	RefineSerialize RefinePhase = iota
	RefineDeserialize
)

// RefineFunc is a two-phase per-component callback: called once per
// component on every (de)serialization so callers can attach or strip
// runtime-only data. It must not reenter the Store: calling any Store
// method from within a RefineFunc is undefined behavior.
type RefineFunc func(m component.Model, phase RefinePhase, udata any)
