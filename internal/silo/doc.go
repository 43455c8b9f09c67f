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

// Package silo implements the compiled, memory-mappable binary index
// ("silo") that backs one cache section.
//
// A silo is built once from a tree of BuilderNode values (see Compile),
// saved to disk as a single little-endian blob (see Save/Load), and
// then queried repeatedly with a small XPath-like expression language
// (see Prepare/Query). The on-disk format interns element and attribute
// names into a shared string table, keeps per-node attributes sorted by
// interned name id, and caps per-node token lists at 32 entries, matching the
// invariants a reimplementation of this kind of format is expected to
// hold.
package silo
