package anb

import "bytes"

// maxDepth bounds recursion on hostile input.
const maxDepth = 256

type decoder struct {
	r    *Reader
	seen map[uint64]bool
}

// Decode parses a whole container held in memory, detecting its revision
// from the position of the magic.
func Decode(buf []byte) (*Tree, error) {
	rev, err := DetectRevision(buf)
	if err != nil {
		return nil, err
	}
	return DecodeRevision(buf, rev)
}

// DecodeRevision parses a container whose revision is already known.
func DecodeRevision(buf []byte, rev Revision) (*Tree, error) {
	base := rev.Base()
	if int64(len(buf)) < base+headerSize {
		return nil, formatErr(0, nil, "truncated header (%d bytes)", len(buf))
	}
	t := &Tree{Revision: rev}
	if base > 0 {
		t.Preamble = append([]byte(nil), buf[:base]...)
	}

	r := NewReader(buf, base)
	sig, _ := r.ReadBytes(len(magic))
	if !bytes.Equal(sig, magic) {
		return nil, formatErr(0, nil, "bad magic %q", sig)
	}
	t.Header.Fixup, _ = r.ReadUint32()
	t.Header.Version, _ = r.ReadUint32()
	t.Header.Pad1, _ = r.ReadUint32()
	t.Header.Pad2, _ = r.ReadUint64()

	d := &decoder{r: r, seen: make(map[uint64]bool)}
	root, err := d.node(headerSize, 0)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

func (d *decoder) node(offset uint64, depth int) (*Node, error) {
	if depth > maxDepth {
		return nil, formatErr(offset, nil, "tree deeper than %d levels", maxDepth)
	}
	if d.seen[offset] {
		return nil, formatErr(offset, nil, "node record referenced twice")
	}
	d.seen[offset] = true

	r := d.r.At(offset)
	code, err := r.ReadUint32()
	if err != nil {
		return nil, formatErr(offset, err, "truncated node record")
	}
	kind, err := LookupKind(code, offset)
	if err != nil {
		return nil, err
	}
	numChildren, err := r.ReadUint32()
	if err != nil {
		return nil, formatErr(offset, err, "truncated node record")
	}
	childPointer, err := r.ReadUint64()
	if err != nil {
		return nil, formatErr(offset, err, "truncated node record")
	}

	n := &Node{Kind: kind}
	if n.Body, err = d.body(r, kind); err != nil {
		return nil, err
	}
	if numChildren == 0 {
		return n, nil
	}

	if uint64(numChildren)*childSize > r.Len() {
		return nil, formatErr(offset, nil, "%s claims %d children", kind, numChildren)
	}
	table := d.r.At(childPointer)
	offsets := make([]uint64, numChildren)
	for i := range offsets {
		if offsets[i], err = table.ReadUint64(); err != nil {
			return nil, formatErr(childPointer, err, "truncated child-offset table")
		}
	}
	n.Children = make([]*Node, numChildren)
	for i, o := range offsets {
		if n.Children[i], err = d.node(o, depth+1); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (d *decoder) body(r *Reader, kind NodeKind) (Body, error) {
	start := r.Offset()
	var err error
	u32 := func() uint32 {
		var v uint32
		if err == nil {
			v, err = r.ReadUint32()
		}
		return v
	}
	u64 := func() uint64 {
		var v uint64
		if err == nil {
			v, err = r.ReadUint64()
		}
		return v
	}
	f32 := func() Float32 {
		var v float32
		if err == nil {
			v, err = r.ReadFloat32()
		}
		return Float32(v)
	}

	var body Body
	switch kind {
	case KindNode:
		body = &NodeBody{}
	case KindMeta:
		body = &MetaBody{}
	case KindTexture:
		b := &TextureBody{Width: u32(), Height: u32(), Flags: u32(), Padding: u32()}
		dataOffset := u64()
		if err == nil {
			b.Image, err = d.blob(dataOffset)
		}
		body = b
	case KindVertex:
		b := &VertexBody{}
		numVerts := u32()
		b.Flags = u32()
		dataOffset := u64()
		if err == nil {
			err = d.pieces(b, dataOffset, numVerts)
		}
		body = b
	case KindMetaScalar:
		body = &MetaScalarBody{Value: u64()}
	case KindMetaPoint:
		body = &MetaPointBody{X: f32(), Y: f32(), Z: f32(), Padding: u32()}
	case KindMetaAnchor:
		body = &MetaAnchorBody{X: f32(), Y: f32(), Z: f32(), Angle: f32()}
	case KindMetaRect:
		body = &MetaRectBody{
			CenterX: f32(), CenterY: f32(), CenterZ: f32(),
			ExtentsX: f32(), ExtentsY: f32(), ExtentsZ: f32(),
			AngleX: f32(), Padding: u32(),
		}
	case KindMetaString:
		b := &MetaStringBody{Length: u32(), Padding: u32()}
		stringOffset := u64()
		if err == nil {
			b.String, err = d.blob(stringOffset)
		}
		body = b
	case KindMetaTable:
		b := &MetaTableBody{}
		namesOffset := u64()
		if err == nil && namesOffset != 0 {
			var names Blob
			names, err = d.blob(namesOffset)
			b.Names = &names
		}
		body = b
	case KindFrame:
		body = &FrameBody{MinX: f32(), MaxX: f32(), MinY: f32(), MaxY: f32()}
	case KindSequenceFrame:
		body = &SequenceFrameBody{Frame: u32(), Delay: f32()}
	case KindSequence:
		body = &SequenceBody{HashName: u32(), FrameCount: u32()}
	case KindAnimation:
		b := &AnimationBody{SequenceCount: u32(), FrameCount: u32(), SingleTexture: u32(), PaletteIndex: u32()}
		namesOffset := u64()
		if err == nil && namesOffset == 0 {
			return nil, formatErr(start, nil, "Animation without a names blob")
		}
		if err == nil {
			b.Names, err = d.blob(namesOffset)
		}
		body = b
	}
	if err != nil {
		if _, ok := err.(*FormatError); ok {
			return nil, err
		}
		return nil, formatErr(start, err, "truncated %s body", kind)
	}
	return body, nil
}

// blob reads a flag/size-prefixed payload.
func (d *decoder) blob(offset uint64) (Blob, error) {
	r := d.r.At(offset)
	flag, err := r.ReadUint32()
	if err != nil {
		return Blob{}, formatErr(offset, err, "truncated blob header")
	}
	size, err := r.ReadUint32()
	if err != nil {
		return Blob{}, formatErr(offset, err, "truncated blob header")
	}
	data, err := r.ReadBytes(int(size))
	if err != nil {
		return Blob{}, formatErr(offset, err, "blob of %d bytes runs past the end", size)
	}
	return Blob{Flag: flag, Data: data}, nil
}

func (d *decoder) pieces(b *VertexBody, offset uint64, count uint32) error {
	r := d.r.At(offset)
	flag, err := r.ReadUint32()
	if err != nil {
		return formatErr(offset, err, "truncated vertex entry")
	}
	size, err := r.ReadUint32()
	if err != nil {
		return formatErr(offset, err, "truncated vertex entry")
	}
	if uint64(size) != uint64(count)*pieceSize {
		return formatErr(offset, nil, "vertex entry holds %d bytes for %d pieces", size, count)
	}
	if uint64(size) > r.Remaining() {
		return formatErr(offset, nil, "vertex entry runs past the end")
	}
	b.PieceFlag = flag
	b.Pieces = make([]Piece, count)
	for i := range b.Pieces {
		p := &b.Pieces[i]
		var x, y float32
		if x, err = r.ReadFloat32(); err != nil {
			break
		}
		if y, err = r.ReadFloat32(); err != nil {
			break
		}
		p.PosX, p.PosY = Float32(x), Float32(y)
		if p.TexX, err = r.ReadUint16(); err != nil {
			break
		}
		if p.TexY, err = r.ReadUint16(); err != nil {
			break
		}
		if p.Width, err = r.ReadUint16(); err != nil {
			break
		}
		if p.Height, err = r.ReadUint16(); err != nil {
			break
		}
	}
	if err != nil {
		return formatErr(offset, err, "truncated vertex pieces")
	}
	return nil
}
