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
	"strings"

	"golang.org/x/exp/slices"

	"github.com/swcatalog/cachecore/internal/silo"
)

// section is one logical group of components sharing an origin,
// scope, and format style.
type section struct {
	key         string // "<scope>:<locale>-<userKey>", unique among non-mask sections
	userKey     string
	locale      string
	scope       Scope
	formatStyle FormatStyle
	isOSData    bool
	isMask      bool
	silo        *silo.Silo
	fname       string
	refineUdata any
}

func sectionKey(scope Scope, locale, userKey string) string {
	return scope.String() + ":" + locale + "-" + userKey
}

// sortSections orders sections: non-mask sections before the mask
// section, then COLLECTION before METAINFO, then SYSTEM before USER,
// then ASCII case-insensitive key comparison.
func sortSections(secs []*section) {
	slices.SortFunc(secs, func(a, b *section) bool {
		if a.isMask != b.isMask {
			return !a.isMask // non-mask first
		}
		if a.isMask && b.isMask {
			return false // at most one mask section ever exists
		}
		if a.formatStyle != b.formatStyle {
			return a.formatStyle == FormatCollection
		}
		if a.scope != b.scope {
			return a.scope == ScopeSystem
		}
		return strings.ToLower(a.key) < strings.ToLower(b.key)
	})
}
