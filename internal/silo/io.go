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
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

var magic = [4]byte{'S', 'I', 'L', 'O'}

// compressThreshold is the encoded-payload size above which Save
// compresses the silo with zstd. Small silos (the common case for a
// single cache section) are left uncompressed so Load can skip
// decompression entirely.
const compressThreshold = 4096

// Encode serializes the silo to its on-disk byte representation.
// The returned bytes are self-describing: Decode will pick the
// correct decompression path on its own.
func (s *Silo) Encode() []byte {
	var payload buffer
	s.strings.marshal(&payload)
	encodeNodes(&payload, s)

	raw := payload.Bytes()
	compressed := false
	body := raw
	if len(raw) > compressThreshold {
		enc, err := zstd.NewWriter(nil)
		if err == nil {
			body = enc.EncodeAll(raw, nil)
			enc.Close()
			compressed = true
		}
	}

	var out buffer
	out.writeRaw(magic[:])
	verBytes, _ := s.version.MarshalBinary()
	out.writeRaw(verBytes)
	if compressed {
		out.buf = append(out.buf, 1)
		out.writeUint32(uint32(len(raw)))
	} else {
		out.buf = append(out.buf, 0)
	}
	out.writeRaw(body)

	sum := blake2b.Sum256(out.Bytes())
	out.writeRaw(sum[:])
	return out.Bytes()
}

// Decode parses bytes produced by Encode. It returns ErrSchemaMismatch
// if the embedded version does not match SchemaVersion, and
// ErrChecksum if the trailing integrity checksum does not match.
func Decode(mem []byte) (*Silo, error) {
	if len(mem) < len(magic)+16+1+blake2b.Size256 {
		return nil, errCorrupt("file too small")
	}
	if !bytes.Equal(mem[:len(magic)], magic[:]) {
		return nil, errCorrupt("bad magic")
	}
	split := len(mem) - blake2b.Size256
	wantSum := mem[split:]
	gotSum := blake2b.Sum256(mem[:split])
	if !bytes.Equal(wantSum, gotSum[:]) {
		return nil, ErrChecksum
	}

	rest := mem[len(magic):split]
	var ver [16]byte
	copy(ver[:], rest[:16])
	rest = rest[16:]
	version, err := uuid.FromBytes(ver[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrSchemaMismatch, version, SchemaVersion)
	}

	compressed := rest[0]
	rest = rest[1:]
	var payload []byte
	if compressed == 1 {
		uncompressedLen, r, err := readUint32(rest)
		if err != nil {
			return nil, err
		}
		rest = r
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
		}
		defer dec.Close()
		payload, err = dec.DecodeAll(rest, make([]byte, 0, uncompressedLen))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
		}
	} else {
		payload = rest
	}

	st, payload, err := unmarshalStringTable(payload)
	if err != nil {
		return nil, err
	}
	nodes, root, _, err := decodeNodes(payload, st)
	if err != nil {
		return nil, err
	}
	return &Silo{version: version, strings: st, nodes: nodes, root: root}, nil
}

func encodeNodes(buf *buffer, s *Silo) {
	buf.writeUint32(uint32(len(s.nodes)))
	buf.writeInt32(s.root)
	for _, n := range s.nodes {
		buf.writeUint32(n.Name)
		buf.writeUint32(n.Text)
		buf.writeUint32(n.Tail)
		buf.writeInt32(n.Parent)
		buf.writeUint32(uint32(len(n.Children)))
		for _, c := range n.Children {
			buf.writeInt32(c)
		}
		buf.writeUint32(uint32(len(n.Attrs)))
		for _, a := range n.Attrs {
			buf.writeUint32(a.Name)
			buf.writeUint32(a.Value)
		}
		buf.writeUint32(uint32(len(n.Tokens)))
		for _, t := range n.Tokens {
			buf.writeUint32(t)
		}
		buf.writeUint64(uint64(n.Filter))
	}
}

func decodeNodes(mem []byte, st *stringTable) ([]compiledNode, int32, []byte, error) {
	count, mem, err := readUint32(mem)
	if err != nil {
		return nil, 0, nil, err
	}
	root, mem, err := readInt32(mem)
	if err != nil {
		return nil, 0, nil, err
	}
	nodes := make([]compiledNode, count)
	for i := range nodes {
		n := &nodes[i]
		if n.Name, mem, err = readUint32(mem); err != nil {
			return nil, 0, nil, err
		}
		if n.Text, mem, err = readUint32(mem); err != nil {
			return nil, 0, nil, err
		}
		if n.Tail, mem, err = readUint32(mem); err != nil {
			return nil, 0, nil, err
		}
		if n.Parent, mem, err = readInt32(mem); err != nil {
			return nil, 0, nil, err
		}
		var numChildren uint32
		if numChildren, mem, err = readUint32(mem); err != nil {
			return nil, 0, nil, err
		}
		if numChildren > 0 {
			n.Children = make([]int32, numChildren)
			for j := range n.Children {
				if n.Children[j], mem, err = readInt32(mem); err != nil {
					return nil, 0, nil, err
				}
			}
		}
		var numAttrs uint32
		if numAttrs, mem, err = readUint32(mem); err != nil {
			return nil, 0, nil, err
		}
		if numAttrs > 0 {
			n.Attrs = make([]attr, numAttrs)
			for j := range n.Attrs {
				if n.Attrs[j].Name, mem, err = readUint32(mem); err != nil {
					return nil, 0, nil, err
				}
				if n.Attrs[j].Value, mem, err = readUint32(mem); err != nil {
					return nil, 0, nil, err
				}
			}
		}
		var numTokens uint32
		if numTokens, mem, err = readUint32(mem); err != nil {
			return nil, 0, nil, err
		}
		if numTokens > 0 {
			n.Tokens = make([]uint32, numTokens)
			for j := range n.Tokens {
				if n.Tokens[j], mem, err = readUint32(mem); err != nil {
					return nil, 0, nil, err
				}
			}
		}
		var filterBits uint64
		if filterBits, mem, err = readUint64(mem); err != nil {
			return nil, 0, nil, err
		}
		n.Filter = tokenFilter(filterBits)
	}
	return nodes, root, mem, nil
}

// Save atomically writes the silo to path: the encoded bytes are
// written to a temporary sibling file and then renamed over path, so
// a reader never observes a partially written silo and a crash mid-
// write never corrupts the previous contents.
func (s *Silo) Save(path string) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("silo: save %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("silo: save %s: %w", path, err)
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(s.Encode())
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("silo: save %s: %w", path, werr)
		}
		return fmt.Errorf("silo: save %s: %w", path, cerr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("silo: save %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes a silo file at path, memory-mapping it when
// the platform supports it (see mmap_unix.go / mmap_other.go) and
// falling back to a plain read otherwise.
func Load(path string) (*Silo, error) {
	mem, closeFn, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("silo: load %s: %w", path, err)
	}
	defer closeFn()
	s, err := Decode(mem)
	if err != nil {
		return nil, fmt.Errorf("silo: load %s: %w", path, err)
	}
	return s, nil
}
