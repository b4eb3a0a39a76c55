package anb

import (
	"fmt"
	"math"
)

// layout is the result of the size-accounting pass: where every record,
// child-offset table, side-table entry and payload entry will land.
// Offsets are relative to the revision base.
type layout struct {
	records map[*Node]uint64
	tables  map[*Node]uint64
	side    map[*Node]uint64
	payload map[*Node]uint64

	mainSize    uint64 // header + records + child tables
	sideSize    uint64
	payloadSize uint64
}

func (l *layout) total() uint64 {
	return l.mainSize + l.sideSize + l.payloadSize
}

// planLayout walks the tree in emission order. A parent's child-offset
// table sits right after its last child's record, before that child's own
// descendants.
func planLayout(root *Node) (*layout, error) {
	l := &layout{
		records: make(map[*Node]uint64),
		tables:  make(map[*Node]uint64),
		side:    make(map[*Node]uint64),
		payload: make(map[*Node]uint64),
	}

	cursor := uint64(headerSize)
	l.records[root] = cursor
	cursor += recordSize + root.Kind.BodySize()

	var place func(n *Node)
	place = func(n *Node) {
		for i, c := range n.Children {
			l.records[c] = cursor
			cursor += recordSize + c.Kind.BodySize()
			if i == len(n.Children)-1 {
				l.tables[n] = cursor
				cursor += childSize * uint64(len(n.Children))
			}
			place(c)
		}
	}
	place(root)
	l.mainSize = cursor

	var err error
	root.Walk(func(n *Node) {
		if err != nil {
			return
		}
		slot, ok, e := sideSlot(n)
		if e != nil {
			err = e
			return
		}
		if ok {
			l.side[n] = l.mainSize + l.sideSize
			l.sideSize += blobHeader + slot
		}
	})
	if err != nil {
		return nil, err
	}

	root.Walk(func(n *Node) {
		if err != nil {
			return
		}
		size, ok, e := payloadEntry(n)
		if e != nil {
			err = e
			return
		}
		if ok {
			l.payload[n] = l.mainSize + l.sideSize + l.payloadSize
			l.payloadSize += size
		}
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// sideSlot returns the padded size of n's side-table data, if it has any.
func sideSlot(n *Node) (uint64, bool, error) {
	switch b := n.Body.(type) {
	case *MetaStringBody:
		if err := checkSize(b.String.Data, n.Kind); err != nil {
			return 0, false, err
		}
		return alignUp(uint64(len(b.String.Data)), Alignment), true, nil
	case *MetaTableBody:
		if b.Names == nil {
			return 0, false, nil
		}
		if err := checkSize(b.Names.Data, n.Kind); err != nil {
			return 0, false, err
		}
		return hashSlot(len(b.Names.Data)), true, nil
	case *AnimationBody:
		if err := checkSize(b.Names.Data, n.Kind); err != nil {
			return 0, false, err
		}
		return hashSlot(len(b.Names.Data)), true, nil
	}
	return 0, false, nil
}

func hashSlot(size int) uint64 {
	slot := alignUp(uint64(size), Alignment)
	if slot < MinHashSlot {
		slot = MinHashSlot
	}
	return slot
}

// payloadEntry returns the full size of n's payload-block entry.
func payloadEntry(n *Node) (uint64, bool, error) {
	switch b := n.Body.(type) {
	case *TextureBody:
		if err := checkSize(b.Image.Data, n.Kind); err != nil {
			return 0, false, err
		}
		return blobHeader + alignUp(uint64(len(b.Image.Data)), Alignment), true, nil
	case *VertexBody:
		if uint64(len(b.Pieces))*pieceSize > math.MaxUint32 {
			return 0, false, fmt.Errorf("anb: Vertex has too many pieces (%d)", len(b.Pieces))
		}
		return blobHeader + pieceSize*uint64(len(b.Pieces)), true, nil
	}
	return 0, false, nil
}

func checkSize(data []byte, kind NodeKind) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("anb: %s payload of %d bytes does not fit a u32 size field", kind, len(data))
	}
	return nil
}
