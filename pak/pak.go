// Package pak reads and writes the PAK archives that ship ANB containers.
//
// Layout, all little endian:
//
//	Header                      24 bytes
//	u64 x Count                 absolute offset of each file's record
//	FileHeader + data           one record per file, back to back
//	u64 x Count                 absolute offset of each name
//	NUL-terminated names
package pak

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrFormat = errors.New("pak: malformed archive")

type Header struct {
	Magic     uint32 // always 0
	Count     uint32
	FileTable uint64 // offset of the record offset table
	NameTable uint64 // offset of the name offset table
}

// FileHeader precedes every file's data.
type FileHeader struct {
	Size     uint64
	Time     uint64
	NameHash uint32
	Flags    uint32
	Specials uint32
	Pad      uint32
}

var (
	headerSize     = binary.Size(Header{})
	fileHeaderSize = binary.Size(FileHeader{})
)

type Entry struct {
	Name string
	FileHeader
	Data []byte
}

type Archive struct {
	Entries []Entry
}

// NewEntry fills in the header fields a freshly packed file carries.
func NewEntry(name string, hash uint32, data []byte) Entry {
	return Entry{Name: name, FileHeader: FileHeader{NameHash: hash, Flags: 1, Specials: 1}, Data: data}
}

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// Unmarshal parses an archive. Entry data aliases b.
func Unmarshal(b []byte) (*Archive, error) {
	var h Header
	if len(b) < headerSize {
		return nil, formatErr("%d bytes is shorter than the header", len(b))
	}
	if err := binary.Read(bytes.NewReader(b[:headerSize]), binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Magic != 0 {
		return nil, formatErr("magic %#x", h.Magic)
	}

	records, err := offsetTable(b, h.FileTable, h.Count, "file")
	if err != nil {
		return nil, err
	}
	names, err := offsetTable(b, h.NameTable, h.Count, "name")
	if err != nil {
		return nil, err
	}

	a := &Archive{Entries: make([]Entry, h.Count)}
	for i := range a.Entries {
		e := &a.Entries[i]
		off := records[i]
		if off > uint64(len(b)) || uint64(len(b))-off < uint64(fileHeaderSize) {
			return nil, formatErr("file %d header at %#x is out of bounds", i, off)
		}
		if err := binary.Read(bytes.NewReader(b[off:off+uint64(fileHeaderSize)]), binary.LittleEndian, &e.FileHeader); err != nil {
			return nil, err
		}
		start := off + uint64(fileHeaderSize)
		if uint64(len(b))-start < e.Size {
			return nil, formatErr("file %d: %d bytes at %#x run past the end", i, e.Size, start)
		}
		e.Data = b[start : start+e.Size]

		if names[i] >= uint64(len(b)) {
			return nil, formatErr("name %d at %#x is out of bounds", i, names[i])
		}
		n := bytes.IndexByte(b[names[i]:], 0)
		if n < 0 {
			return nil, formatErr("name %d at %#x is not terminated", i, names[i])
		}
		e.Name = string(b[names[i] : names[i]+uint64(n)])
	}
	return a, nil
}

func offsetTable(b []byte, at uint64, count uint32, what string) ([]uint64, error) {
	size := uint64(count) * 8
	if at > uint64(len(b)) || uint64(len(b))-at < size {
		return nil, formatErr("%s table of %d entries at %#x is out of bounds", what, count, at)
	}
	offs := make([]uint64, count)
	if err := binary.Read(bytes.NewReader(b[at:at+size]), binary.LittleEndian, offs); err != nil {
		return nil, err
	}
	return offs, nil
}

// Marshal lays the entries out in order: records first, names last.
// Entry sizes are taken from the data, not the stored header.
func Marshal(a *Archive) ([]byte, error) {
	count := uint64(len(a.Entries))
	if count > 1<<32-1 {
		return nil, fmt.Errorf("pak: %d entries do not fit the header", count)
	}

	records := make([]uint64, count)
	off := uint64(headerSize) + 8*count
	for i, e := range a.Entries {
		if bytes.IndexByte([]byte(e.Name), 0) >= 0 {
			return nil, fmt.Errorf("pak: name %q contains NUL", e.Name)
		}
		records[i] = off
		off += uint64(fileHeaderSize) + uint64(len(e.Data))
	}
	h := Header{Count: uint32(count), FileTable: uint64(headerSize), NameTable: off}

	names := make([]uint64, count)
	off += 8 * count
	for i, e := range a.Entries {
		names[i] = off
		off += uint64(len(e.Name)) + 1
	}

	wbuf := bytes.NewBuffer(make([]byte, 0, off))
	for _, v := range []any{h, records} {
		if err := binary.Write(wbuf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	for _, e := range a.Entries {
		fh := e.FileHeader
		fh.Size = uint64(len(e.Data))
		if err := binary.Write(wbuf, binary.LittleEndian, fh); err != nil {
			return nil, err
		}
		wbuf.Write(e.Data)
	}
	if err := binary.Write(wbuf, binary.LittleEndian, names); err != nil {
		return nil, err
	}
	for _, e := range a.Entries {
		wbuf.WriteString(e.Name)
		wbuf.WriteByte(0)
	}
	return wbuf.Bytes(), nil
}
