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
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/swcatalog/cachecore/component"
	"github.com/swcatalog/cachecore/internal/silo"
)

// weightedSubQuery pairs a full-text weight bit with the prepared
// path/predicate expression that locates its field.
type weightedSubQuery struct {
	weight component.WeightKind
	expr   string
}

// searchFields is the weight table: every element source a search
// term can match against, each expressed relative to a single
// component node since matchAllTerms runs them via QueryFrom scoped
// to that node. Declaration order doesn't matter since the weights
// it produces are OR-combined.
var searchFields = []weightedSubQuery{
	{component.WeightID, "id[text()~=?]"},
	{component.WeightName, "name[text()~=?]"},
	{component.WeightSummary, "summary[text()~=?]"},
	{component.WeightPkgname, "pkgname[text()~=?]"},
	{component.WeightMediaType, "provides/mediatype[text()~=?]"},
	{component.WeightOrigin, originElement + "[text()~=?]"},
	{component.WeightDescription, tokensElement + "/t[text()=?]"},
}

// Search returns every component matching all of terms, each stemmed
// and lower-cased by the caller beforehand, deduplicated exactly as
// Query does. If sortByScore is true the result is sorted by match
// weight descending, stable on ties; otherwise order is unspecified.
func (s *Store) Search(terms []string, sortByScore bool) ([]component.Model, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("cachecore: search: %w", ErrBadValue)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[component.DataID]component.Model)
	scores := make(map[component.DataID]int)
	knownOSIDs := make(map[string]bool)

	for _, sec := range s.sections {
		subQueries := prepareSearchFields(sec.silo)
		if len(subQueries) == 0 {
			continue
		}
		allNodes, err := sec.silo.Query(allComponentsQuery, nil)
		if err != nil {
			if isLawfulQueryMiss(err) {
				continue
			}
			return nil, fmt.Errorf("cachecore: search section %q: %w", sec.key, err)
		}

		for _, n := range allNodes {
			weight, ok := matchAllTerms(sec.silo, n, terms, subQueries)
			if !ok {
				continue
			}

			if sec.isOSData && sec.formatStyle == FormatMetainfo && !s.cfg.PreferOSMetainfo {
				if id, ok := n.ChildText("id"); ok && knownOSIDs[strings.ToLower(id)] {
					continue
				}
			}

			m, err := deserializeComponent(n, s.newModel, refineUnlessMask(s.refine, sec.isMask), sec.refineUdata)
			if err != nil {
				return nil, fmt.Errorf("cachecore: search section %q: %w", sec.key, err)
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
			scores[m.DataID()] = weight
			s.resolveAddons(m)
		}
	}

	out := maps.Values(result)
	if sortByScore {
		sort.SliceStable(out, func(i, j int) bool {
			return scores[out[i].DataID()] > scores[out[j].DataID()]
		})
	}
	return out, nil
}

type preparedSearchField struct {
	weight component.WeightKind
	pq     *silo.PreparedQuery
}

// prepareSearchFields compiles each weighted sub-query once, skipping
// any that fail to compile. Compilation does not inspect sec.
func prepareSearchFields(sec *silo.Silo) []preparedSearchField {
	var out []preparedSearchField
	for _, f := range searchFields {
		pq, err := silo.Prepare(f.expr)
		if err != nil {
			continue
		}
		out = append(out, preparedSearchField{weight: f.weight, pq: pq})
	}
	return out
}

var allComponentsQuery *silo.PreparedQuery

func init() {
	pq, err := silo.Prepare("components/component")
	if err != nil {
		panic(err)
	}
	allComponentsQuery = pq
}

func isLawfulQueryMiss(err error) bool {
	return errors.Is(err, silo.ErrNotFound)
}

// matchAllTerms runs every prepared sub-query, for every term,
// scoped to n via QueryFrom. A term that matches no field at all
// disqualifies the component; otherwise the returned weight is the
// OR of every field that matched at least one term.
func matchAllTerms(sl *silo.Silo, n silo.Node, terms []string, fields []preparedSearchField) (int, bool) {
	total := 0
	for _, term := range terms {
		termWeight := 0
		for _, f := range fields {
			hits, err := sl.QueryFrom(n, f.pq, []string{term})
			if err != nil {
				continue
			}
			if len(hits) > 0 {
				termWeight |= int(f.weight)
			}
		}
		if termWeight == 0 {
			return 0, false
		}
		total |= termWeight
	}
	return total, true
}
