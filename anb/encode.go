package anb

import (
	"errors"
	"fmt"
)

type encoder struct {
	w   *Writer
	l   *layout
	err error
}

// Encode serializes t, recomputing every offset, size field and padding
// from the tree's current contents.
func Encode(t *Tree) ([]byte, error) {
	if t == nil || t.Root == nil {
		return nil, errors.New("anb: empty tree")
	}
	if err := t.Root.validate(make(map[*Node]bool)); err != nil {
		return nil, err
	}
	l, err := planLayout(t.Root)
	if err != nil {
		return nil, err
	}

	e := &encoder{w: NewWriter(t.preamble(), int(l.total())), l: l}
	e.w.WriteBytes(magic)
	e.w.WriteUint32(t.Header.Fixup)
	e.w.WriteUint32(t.Header.Version)
	e.w.WriteUint32(t.Header.Pad1)
	e.w.WriteUint64(t.Header.Pad2)

	e.record(t.Root)
	e.children(t.Root)
	e.check(l.mainSize, "node region")

	t.Root.Walk(e.sideEntry)
	e.check(l.mainSize+l.sideSize, "side table")

	t.Root.Walk(e.payloadEntry)
	e.check(l.total(), "payload block")

	if e.err != nil {
		return nil, e.err
	}
	return e.w.Bytes(), nil
}

// check compares the running cursor against the planned position.
func (e *encoder) check(want uint64, what string) {
	if e.err == nil && e.w.Offset() != want {
		e.err = fmt.Errorf("anb: %s at %#x, planned %#x", what, e.w.Offset(), want)
	}
}

func (e *encoder) children(n *Node) {
	for i, c := range n.Children {
		e.record(c)
		if i == len(n.Children)-1 {
			e.table(n)
		}
		e.children(c)
	}
}

func (e *encoder) table(n *Node) {
	e.check(e.l.tables[n], n.Kind.String()+" child table")
	for _, c := range n.Children {
		e.w.WriteUint64(e.l.records[c])
	}
}

func (e *encoder) record(n *Node) {
	e.check(e.l.records[n], n.Kind.String()+" record")
	w := e.w
	w.WriteUint32(uint32(n.Kind))
	w.WriteUint32(uint32(len(n.Children)))
	if len(n.Children) > 0 {
		w.WriteUint64(e.l.tables[n])
	} else {
		w.WriteUint64(0)
	}

	switch b := n.Body.(type) {
	case *NodeBody, *MetaBody:
	case *TextureBody:
		w.WriteUint32(b.Width)
		w.WriteUint32(b.Height)
		w.WriteUint32(b.Flags)
		w.WriteUint32(b.Padding)
		w.WriteUint64(e.l.payload[n])
	case *VertexBody:
		w.WriteUint32(uint32(len(b.Pieces)))
		w.WriteUint32(b.Flags)
		w.WriteUint64(e.l.payload[n])
	case *MetaScalarBody:
		w.WriteUint64(b.Value)
	case *MetaPointBody:
		w.WriteFloat32(float32(b.X))
		w.WriteFloat32(float32(b.Y))
		w.WriteFloat32(float32(b.Z))
		w.WriteUint32(b.Padding)
	case *MetaAnchorBody:
		w.WriteFloat32(float32(b.X))
		w.WriteFloat32(float32(b.Y))
		w.WriteFloat32(float32(b.Z))
		w.WriteFloat32(float32(b.Angle))
	case *MetaRectBody:
		w.WriteFloat32(float32(b.CenterX))
		w.WriteFloat32(float32(b.CenterY))
		w.WriteFloat32(float32(b.CenterZ))
		w.WriteFloat32(float32(b.ExtentsX))
		w.WriteFloat32(float32(b.ExtentsY))
		w.WriteFloat32(float32(b.ExtentsZ))
		w.WriteFloat32(float32(b.AngleX))
		w.WriteUint32(b.Padding)
	case *MetaStringBody:
		w.WriteUint32(b.Length)
		w.WriteUint32(b.Padding)
		w.WriteUint64(e.l.side[n])
	case *MetaTableBody:
		if b.Names != nil {
			w.WriteUint64(e.l.side[n])
		} else {
			w.WriteUint64(0)
		}
	case *FrameBody:
		w.WriteFloat32(float32(b.MinX))
		w.WriteFloat32(float32(b.MaxX))
		w.WriteFloat32(float32(b.MinY))
		w.WriteFloat32(float32(b.MaxY))
	case *SequenceFrameBody:
		w.WriteUint32(b.Frame)
		w.WriteFloat32(float32(b.Delay))
	case *SequenceBody:
		w.WriteUint32(b.HashName)
		w.WriteUint32(b.FrameCount)
	case *AnimationBody:
		w.WriteUint32(b.SequenceCount)
		w.WriteUint32(b.FrameCount)
		w.WriteUint32(b.SingleTexture)
		w.WriteUint32(b.PaletteIndex)
		w.WriteUint64(e.l.side[n])
	}
}

func (e *encoder) sideEntry(n *Node) {
	var blob *Blob
	switch b := n.Body.(type) {
	case *MetaStringBody:
		blob = &b.String
	case *MetaTableBody:
		blob = b.Names
	case *AnimationBody:
		blob = &b.Names
	}
	if blob == nil {
		return
	}
	e.check(e.l.side[n], n.Kind.String()+" side entry")
	slot, _, _ := sideSlot(n)
	e.w.WriteUint32(blob.Flag)
	e.w.WriteUint32(uint32(len(blob.Data)))
	e.w.WriteBytes(blob.Data)
	e.w.WriteZeros(int(slot) - len(blob.Data))
}

func (e *encoder) payloadEntry(n *Node) {
	switch b := n.Body.(type) {
	case *TextureBody:
		e.check(e.l.payload[n], "Texture payload")
		e.w.WriteUint32(b.Image.Flag)
		e.w.WriteUint32(uint32(len(b.Image.Data)))
		e.w.WriteBytes(b.Image.Data)
		e.w.Pad(Alignment)
	case *VertexBody:
		e.check(e.l.payload[n], "Vertex payload")
		e.w.WriteUint32(b.PieceFlag)
		e.w.WriteUint32(uint32(len(b.Pieces)) * pieceSize)
		for _, p := range b.Pieces {
			e.w.WriteFloat32(float32(p.PosX))
			e.w.WriteFloat32(float32(p.PosY))
			e.w.WriteUint16(p.TexX)
			e.w.WriteUint16(p.TexY)
			e.w.WriteUint16(p.Width)
			e.w.WriteUint16(p.Height)
		}
	}
}
