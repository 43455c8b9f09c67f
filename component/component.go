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

// Package component defines the seam between the cache core and the
// external metadata parser that produces and consumes the objects
// the cache indexes. The per-component data model itself (parsing
// XML/YAML into these objects) is out of scope for this module; only
// the contract the core relies on lives here.
package component

import "fmt"

// DataID is the 5-part composite identifier that uniquely names one
// copy of a component in the universe the cache spans. It is the
// deduplication key the query engine merges results on.
type DataID struct {
	Scope      string // "system" or "user"
	BundleKind string // e.g. "package", "flatpak", "snap"
	Origin     string // the repository/origin this copy came from
	ID         string // the component's own symbolic identifier
	Branch     string // e.g. a flatpak branch, or empty
}

// String renders the composite key used for map lookups and log lines.
func (d DataID) String() string {
	return fmt.Sprintf("%s:%s/%s/%s/%s", d.Scope, d.BundleKind, d.Origin, d.ID, d.Branch)
}

// Zero reports whether d is the zero value, i.e. no component has
// been identified yet.
func (d DataID) Zero() bool { return d == DataID{} }

// Kind enumerates the fixed set of "provides" item kinds the query
// engine can look components up by.
type Kind string

const (
	KindMediaType   Kind = "mediatype"
	KindLibrary     Kind = "library"
	KindBinary      Kind = "binary"
	KindFont        Kind = "font"
	KindModalias    Kind = "modalias"
	KindFirmware    Kind = "firmware"
	KindPython2     Kind = "python2"
	KindPython3     Kind = "python3"
	KindDBusSystem  Kind = "dbus:system"
	KindDBusUser    Kind = "dbus:user"
	KindID          Kind = "id"
)

// Model is the in-memory representation of one component, as
// produced and consumed by the external parser. The cache core
// treats it as opaque data to move around; it never interprets a
// Model's fields directly, only through this interface and the
// TokenSource token-generator contract below.
type Model interface {
	// DataID returns the component's composite identity.
	DataID() DataID
	// ID returns the component's stable symbolic identifier,
	// compared case-insensitively by the query engine.
	ID() string
	// Kind returns the component's own type/kind attribute (e.g.
	// "desktop-application", "addon", "font"), used by by-kind
	// queries.
	Kind() string
	// Extends returns the ids of components this one extends (for
	// addons), or nil if it extends nothing.
	Extends() []string
	// IsAddon reports whether this component is itself an addon,
	// used to bound addon-resolution recursion to one level.
	IsAddon() bool
	// SetOriginKind tags the component with the origin-kind string
	// the deserializer assigns (e.g. "metainfo" for METAINFO-style
	// sections).
	SetOriginKind(string)

	// ToNode converts the component into the parser-native
	// intermediate tree (see Node) for serialization into a silo.
	ToNode() *Node
	// FromNode populates the component's fields from a parser-native
	// intermediate tree previously produced by ToNode (typically
	// reconstructed from a compiled silo). It is the inverse of
	// ToNode.
	FromNode(*Node) error
}

// WeightKind enumerates the fixed set of full-text search field
// sources and their weight bits.
type WeightKind int

const (
	WeightMediaType WeightKind = 1 << iota
	WeightPkgname
	WeightSummary
	WeightName
	WeightDescription
	WeightID
	WeightOrigin
)

// TokenSource is implemented by components that can produce the
// per-field token lists the serializer attaches to a silo. It is
// kept separate from Model so that a minimal Model implementation
// (e.g. in tests) need not supply tokenization logic unless it
// actually exercises full-text search.
type TokenSource interface {
	// TokensFor returns the stemmed/normalized tokens for the given
	// weight kind, in the order the parser produced them. An empty
	// or nil result means this component contributes nothing for
	// that field.
	TokensFor(kind WeightKind) []string
}

// Addon is implemented by a Model that can hold resolved addon
// components attached during deserialization.
type Addon interface {
	AttachAddons([]Model)
}
