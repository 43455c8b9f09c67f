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

// noString is the interned id reserved for "no string present"
// (the empty string itself is interned at id 0).
const noString uint32 = ^uint32(0)

// stringTable interns element names, attribute names/values, and
// token text into a single deduplicated table shared by every node
// in a silo. It is used both while building a silo (see BuilderNode)
// and after loading one from disk.
type stringTable struct {
	interned []string
	toindex  map[string]uint32
}

func newStringTable() *stringTable {
	t := &stringTable{toindex: make(map[string]uint32)}
	t.intern("") // id 0 is always the empty string
	return t
}

// intern returns the id for s, adding it to the table if necessary.
func (t *stringTable) intern(s string) uint32 {
	if id, ok := t.toindex[s]; ok {
		return id
	}
	id := uint32(len(t.interned))
	t.interned = append(t.interned, s)
	t.toindex[s] = id
	return id
}

// lookup returns the id for s without interning it. ok is false
// when s has never been interned, which lets callers treat an
// unseen query term as "cannot possibly match" rather than an error.
func (t *stringTable) lookup(s string) (id uint32, ok bool) {
	id, ok = t.toindex[s]
	return id, ok
}

func (t *stringTable) get(id uint32) string {
	if id == noString || int(id) >= len(t.interned) {
		return ""
	}
	return t.interned[id]
}

func (t *stringTable) len() int { return len(t.interned) }

// marshal appends the table to buf as: count uint32, then a
// count+1-entry little-endian uint32 offset table into the
// concatenated byte blob that follows.
func (t *stringTable) marshal(buf *buffer) {
	buf.writeUint32(uint32(len(t.interned)))
	offset := uint32(0)
	for _, s := range t.interned {
		buf.writeUint32(offset)
		offset += uint32(len(s))
	}
	buf.writeUint32(offset) // sentinel end offset
	for _, s := range t.interned {
		buf.writeRaw([]byte(s))
	}
}

// unmarshalStringTable decodes a table written by marshal and
// returns the remaining bytes following it.
func unmarshalStringTable(mem []byte) (*stringTable, []byte, error) {
	count, mem, err := readUint32(mem)
	if err != nil {
		return nil, nil, err
	}
	offsets := make([]uint32, count+1)
	for i := range offsets {
		offsets[i], mem, err = readUint32(mem)
		if err != nil {
			return nil, nil, err
		}
	}
	blobLen := int(offsets[len(offsets)-1])
	if blobLen > len(mem) {
		return nil, nil, errCorrupt("string table blob truncated")
	}
	blob := mem[:blobLen]
	mem = mem[blobLen:]
	t := &stringTable{
		interned: make([]string, count),
		toindex:  make(map[string]uint32, count),
	}
	for i := uint32(0); i < count; i++ {
		s := string(blob[offsets[i]:offsets[i+1]])
		t.interned[i] = s
		t.toindex[s] = i
	}
	return t, mem, nil
}
