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

import "errors"

var (
	// ErrCorrupt is returned by Decode/Load when a silo's bytes are
	// truncated or otherwise fail to parse as the expected format.
	ErrCorrupt = errors.New("silo: corrupt data")

	// ErrSchemaMismatch is returned by Load when a silo file was
	// produced by an incompatible schema version. Callers should
	// treat this exactly like a missing file: rebuild the section.
	ErrSchemaMismatch = errors.New("silo: schema version mismatch")

	// ErrChecksum is returned by Load when a silo's integrity
	// checksum does not match its contents.
	ErrChecksum = errors.New("silo: checksum mismatch")

	// ErrNotFound is returned by Query when the expression's root
	// step does not match this silo's structure at all. It is not
	// returned for a step that matches structurally but yields zero
	// nodes; that is simply an empty, non-error result.
	ErrNotFound = errors.New("silo: path not present in this silo")

	// ErrInvalidArgument is returned by Prepare for a malformed
	// expression, and by Query when the number of bound values does
	// not match the number of '?' placeholders in the expression.
	ErrInvalidArgument = errors.New("silo: invalid query argument")
)
