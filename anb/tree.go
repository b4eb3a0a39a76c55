package anb

import (
	"bytes"
	"fmt"
)

var magic = []byte("YCSN")

// Header is the fixed block following the YCSN magic.
type Header struct {
	Fixup   uint32 `json:"fixup"`
	Version uint32 `json:"version"`
	Pad1    uint32 `json:"pad1"`
	Pad2    uint64 `json:"pad2"`
}

// Revision identifies the on-disk layout variant. Some containers carry a
// 16 byte preamble before the header and every offset is relative to the
// end of it; others start with the magic directly.
type Revision int

const (
	RevisionPlain Revision = iota
	RevisionPreamble
)

const preambleSize = 16

// Base is the absolute position that offset 0 refers to.
func (r Revision) Base() int64 {
	if r == RevisionPreamble {
		return preambleSize
	}
	return 0
}

func (r Revision) String() string {
	switch r {
	case RevisionPlain:
		return "plain"
	case RevisionPreamble:
		return "preamble"
	default:
		return fmt.Sprintf("Revision(%d)", int(r))
	}
}

func (r Revision) MarshalText() ([]byte, error) {
	if r != RevisionPlain && r != RevisionPreamble {
		return nil, fmt.Errorf("anb: invalid revision %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Revision) UnmarshalText(b []byte) error {
	switch string(b) {
	case "plain", "":
		*r = RevisionPlain
	case "preamble":
		*r = RevisionPreamble
	default:
		return fmt.Errorf("anb: unknown revision %q", b)
	}
	return nil
}

// DetectRevision looks for the magic at byte 0, then after the preamble.
func DetectRevision(buf []byte) (Revision, error) {
	if len(buf) >= len(magic) && bytes.Equal(buf[:len(magic)], magic) {
		return RevisionPlain, nil
	}
	if len(buf) >= preambleSize+len(magic) && bytes.Equal(buf[preambleSize:preambleSize+len(magic)], magic) {
		return RevisionPreamble, nil
	}
	return 0, formatErr(0, nil, "YCSN magic not found")
}

// Tree is a decoded container.
type Tree struct {
	Revision Revision `json:"revision"`
	Preamble []byte   `json:"preamble,omitempty"`
	Header   Header   `json:"file_header"`
	Root     *Node    `json:"Node"`
}

// Frames returns the Frame nodes in pre-order; a frame's index in this
// slice is the index SequenceFrame bodies refer to.
func (t *Tree) Frames() []*Node {
	return t.Root.Find(KindFrame)
}

// Sequences returns the Sequence nodes in pre-order.
func (t *Tree) Sequences() []*Node {
	return t.Root.Find(KindSequence)
}

// ReplaceFramePayloads swaps the compressed image of each listed frame.
// Frames not in the map keep their bytes untouched.
func (t *Tree) ReplaceFramePayloads(payloads map[int][]byte) error {
	frames := t.Frames()
	for idx, data := range payloads {
		if idx < 0 || idx >= len(frames) {
			return fmt.Errorf("%w: frame %d out of range (%d frames)", ErrFormat, idx, len(frames))
		}
		tex, _, err := frames[idx].FrameParts()
		if err != nil {
			return fmt.Errorf("frame %d: %w", idx, err)
		}
		tex.Image.Data = data
	}
	return nil
}

func (t *Tree) preamble() []byte {
	if t.Revision != RevisionPreamble {
		return nil
	}
	p := make([]byte, preambleSize)
	copy(p, t.Preamble)
	return p
}
