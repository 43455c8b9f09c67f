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
	"encoding/binary"
	"fmt"
)

// buffer is a small append-only little-endian encoder, analogous in
// spirit to an ion.Buffer: callers append primitive values and
// eventually take the accumulated bytes with Bytes.
type buffer struct {
	buf []byte
}

func (b *buffer) Bytes() []byte { return b.buf }

func (b *buffer) writeUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *buffer) writeInt32(v int32) {
	b.writeUint32(uint32(v))
}

func (b *buffer) writeUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *buffer) writeRaw(p []byte) {
	b.buf = append(b.buf, p...)
}

func readUint32(mem []byte) (uint32, []byte, error) {
	if len(mem) < 4 {
		return 0, nil, errCorrupt("truncated uint32")
	}
	return binary.LittleEndian.Uint32(mem), mem[4:], nil
}

func readInt32(mem []byte) (int32, []byte, error) {
	v, rest, err := readUint32(mem)
	return int32(v), rest, err
}

func readUint64(mem []byte) (uint64, []byte, error) {
	if len(mem) < 8 {
		return 0, nil, errCorrupt("truncated uint64")
	}
	return binary.LittleEndian.Uint64(mem), mem[8:], nil
}

func readBytes(mem []byte, n int) ([]byte, []byte, error) {
	if n < 0 || n > len(mem) {
		return nil, nil, errCorrupt("truncated byte run")
	}
	return mem[:n], mem[n:], nil
}

func errCorrupt(why string) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, why)
}
