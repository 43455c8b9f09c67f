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

import (
	"strings"

	"github.com/dchest/siphash"
)

// filterBits is the width of the per-node token presence filter.
// With two probes, the false-positive rate stays under 5% up to
// about 8 tokens and reaches roughly 40% at MaxTokensPerNode (32)
// entries; a false positive only costs an extra (cheap) map lookup
// on HasToken, never a wrong answer.
const filterBits = 64

// siphash keys for the token filter. These do not need to be secret
// (the filter is not a security boundary, just a fast-reject), so
// fixed keys keep Silo.Encode/Decode deterministic across runs.
const (
	filterK0 = 0x636174616c6f6721
	filterK1 = 0x73696c6f746f6b6e
)

// tokenFilter is a small Bloom filter over the normalized tokens
// attached to one node, used to let HasToken reject clear misses
// without scanning the token list or touching the string table.
type tokenFilter uint64

func (f *tokenFilter) add(normalized string) {
	h1, h2 := siphash.Hash128(filterK0, filterK1, []byte(normalized))
	*f |= 1 << (h1 % filterBits)
	*f |= 1 << (h2 % filterBits)
}

func (f tokenFilter) mayContain(normalized string) bool {
	h1, h2 := siphash.Hash128(filterK0, filterK1, []byte(normalized))
	mask := uint64(1)<<(h1%filterBits) | uint64(1)<<(h2%filterBits)
	return uint64(f)&mask == mask
}

// normalizeToken lower-cases a token for case-insensitive token-set
// membership queries ([text()~=?] in the expression language).
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
