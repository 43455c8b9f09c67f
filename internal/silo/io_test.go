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
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Compile(sampleTree())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "section.silo")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.NumNodes() != s.NumNodes() {
		t.Fatalf("node count mismatch: %d != %d", loaded.NumNodes(), s.NumNodes())
	}

	pq, _ := Prepare("components/component")
	before, err := s.Query(pq, nil)
	if err != nil {
		t.Fatalf("Query on original: %v", err)
	}
	after, err := loaded.Query(pq, nil)
	if err != nil {
		t.Fatalf("Query on loaded: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("query result count differs after round trip: %d != %d", len(before), len(after))
	}
	for i := range before {
		bid, _ := before[i].ChildrenNamed("id")[0].Text()
		aid, _ := after[i].ChildrenNamed("id")[0].Text()
		if bid != aid {
			t.Fatalf("result %d differs after round trip: %q != %q", i, bid, aid)
		}
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	s, _ := Compile(sampleTree())
	dir := t.TempDir()
	path := filepath.Join(dir, "section.silo")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw := s.Encode()
	raw[len(raw)-1] ^= 0xFF // flip a byte inside the trailing checksum
	if _, err := Decode(raw); err != ErrChecksum {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
}

func TestDecodeRejectsForeignVersion(t *testing.T) {
	s, _ := Compile(sampleTree())
	raw := s.Encode()
	// Corrupt the embedded version bytes (right after the 4-byte magic)
	// without touching anything else, then recompute nothing: this
	// should be caught as a checksum failure first, which is itself
	// evidence Decode never trusts a version field it hasn't verified.
	raw[4] ^= 0xFF
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected an error for a tampered version field")
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	root := NewBuilderNode("components")
	for i := 0; i < 500; i++ {
		c := root.NewChild("component")
		c.NewChild("id").SetText("app.many")
		c.NewChild("summary").SetText("a moderately long summary string to push the payload past the compression threshold")
	}
	s, err := Compile(root)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	raw := s.Encode()
	if raw[4+16] != 1 {
		t.Fatalf("expected large payload to be compressed")
	}
	loaded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if loaded.NumNodes() != s.NumNodes() {
		t.Fatalf("node count mismatch after compressed round trip")
	}
}
