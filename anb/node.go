package anb

import "fmt"

// Node is one record of the animation tree.
type Node struct {
	Kind     NodeKind
	Children []*Node
	Body     Body
}

// Body is the kind-specific part of a node. The set of implementations is
// closed: one struct per NodeKind.
type Body interface {
	Kind() NodeKind
	isBody()
}

// Blob is an out-of-line payload: a side-table string or hash, or a
// compressed texture. Its size field is always len(Data) on disk.
type Blob struct {
	Flag uint32 `json:"flag"`
	Data []byte `json:"data"`
}

type Piece struct {
	PosX   Float32 `json:"posX"`
	PosY   Float32 `json:"posY"`
	TexX   uint16  `json:"texX"`
	TexY   uint16  `json:"texY"`
	Width  uint16  `json:"width"`
	Height uint16  `json:"height"`
}

type NodeBody struct{}

type TextureBody struct {
	Width   uint32 `json:"width"`
	Height  uint32 `json:"height"`
	Flags   uint32 `json:"flags"`
	Padding uint32 `json:"padding"`
	Image   Blob   `json:"image"`
}

// VertexBody lists the sub-rectangles of the frame's texture and where
// each one lands in image space.
type VertexBody struct {
	Flags     uint32  `json:"flags"`
	PieceFlag uint32  `json:"piece_flag"`
	Pieces    []Piece `json:"pieces"`
}

type MetaBody struct{}

type MetaScalarBody struct {
	Value uint64 `json:"value"`
}

type MetaPointBody struct {
	X       Float32 `json:"x"`
	Y       Float32 `json:"y"`
	Z       Float32 `json:"z"`
	Padding uint32  `json:"padding"`
}

type MetaAnchorBody struct {
	X     Float32 `json:"x"`
	Y     Float32 `json:"y"`
	Z     Float32 `json:"z"`
	Angle Float32 `json:"angle"`
}

type MetaRectBody struct {
	CenterX  Float32 `json:"centerx"`
	CenterY  Float32 `json:"centery"`
	CenterZ  Float32 `json:"centerz"`
	ExtentsX Float32 `json:"extentsx"`
	ExtentsY Float32 `json:"extentsy"`
	ExtentsZ Float32 `json:"extentsz"`
	AngleX   Float32 `json:"anglex"`
	Padding  uint32  `json:"padding"`
}

type MetaStringBody struct {
	Length  uint32 `json:"str_length"`
	Padding uint32 `json:"padding"`
	String  Blob   `json:"string"`
}

// MetaTableBody.Names is nil when the table carries no hash blob.
type MetaTableBody struct {
	Names *Blob `json:"names,omitempty"`
}

type FrameBody struct {
	MinX Float32 `json:"minx"`
	MaxX Float32 `json:"maxx"`
	MinY Float32 `json:"miny"`
	MaxY Float32 `json:"maxy"`
}

type SequenceFrameBody struct {
	Frame uint32  `json:"frame"`
	Delay Float32 `json:"delay"`
}

type SequenceBody struct {
	HashName   uint32 `json:"hash_name"`
	FrameCount uint32 `json:"frame_count"`
}

type AnimationBody struct {
	SequenceCount uint32 `json:"sequence_count"`
	FrameCount    uint32 `json:"frame_count"`
	SingleTexture uint32 `json:"single_texture"`
	PaletteIndex  uint32 `json:"palette_index"`
	Names         Blob   `json:"names"`
}

func (*NodeBody) Kind() NodeKind          { return KindNode }
func (*TextureBody) Kind() NodeKind       { return KindTexture }
func (*VertexBody) Kind() NodeKind        { return KindVertex }
func (*MetaBody) Kind() NodeKind          { return KindMeta }
func (*MetaScalarBody) Kind() NodeKind    { return KindMetaScalar }
func (*MetaPointBody) Kind() NodeKind     { return KindMetaPoint }
func (*MetaAnchorBody) Kind() NodeKind    { return KindMetaAnchor }
func (*MetaRectBody) Kind() NodeKind      { return KindMetaRect }
func (*MetaStringBody) Kind() NodeKind    { return KindMetaString }
func (*MetaTableBody) Kind() NodeKind     { return KindMetaTable }
func (*FrameBody) Kind() NodeKind         { return KindFrame }
func (*SequenceFrameBody) Kind() NodeKind { return KindSequenceFrame }
func (*SequenceBody) Kind() NodeKind      { return KindSequence }
func (*AnimationBody) Kind() NodeKind     { return KindAnimation }

func (*NodeBody) isBody()          {}
func (*TextureBody) isBody()       {}
func (*VertexBody) isBody()        {}
func (*MetaBody) isBody()          {}
func (*MetaScalarBody) isBody()    {}
func (*MetaPointBody) isBody()     {}
func (*MetaAnchorBody) isBody()    {}
func (*MetaRectBody) isBody()      {}
func (*MetaStringBody) isBody()    {}
func (*MetaTableBody) isBody()     {}
func (*FrameBody) isBody()         {}
func (*SequenceFrameBody) isBody() {}
func (*SequenceBody) isBody()      {}
func (*AnimationBody) isBody()     {}

// NewNode builds a node whose kind is taken from body.
func NewNode(body Body, children ...*Node) *Node {
	return &Node{Kind: body.Kind(), Body: body, Children: children}
}

// Walk visits n and its descendants in pre-order, the same order the
// encoder emits them in.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns every node of the given kind in pre-order.
func (n *Node) Find(kind NodeKind) []*Node {
	var nodes []*Node
	n.Walk(func(c *Node) {
		if c.Kind == kind {
			nodes = append(nodes, c)
		}
	})
	return nodes
}

// Child returns the first direct child of the given kind, or nil.
func (n *Node) Child(kind NodeKind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// FrameParts returns the texture and vertex bodies of a Frame node.
func (n *Node) FrameParts() (*TextureBody, *VertexBody, error) {
	if n.Kind != KindFrame {
		return nil, nil, fmt.Errorf("%w: %s is not a Frame", ErrFormat, n.Kind)
	}
	var tex *TextureBody
	var vtx *VertexBody
	for _, c := range n.Children {
		switch b := c.Body.(type) {
		case *TextureBody:
			if tex != nil {
				return nil, nil, fmt.Errorf("%w: frame has more than one Texture", ErrFormat)
			}
			tex = b
		case *VertexBody:
			if vtx != nil {
				return nil, nil, fmt.Errorf("%w: frame has more than one Vertex", ErrFormat)
			}
			vtx = b
		}
	}
	if tex == nil || vtx == nil {
		return nil, nil, fmt.Errorf("%w: frame is missing its Texture or Vertex", ErrFormat)
	}
	return tex, vtx, nil
}

// validate checks the invariants the encoder relies on: known kinds,
// bodies matching their kind, and no node reachable twice.
func (n *Node) validate(seen map[*Node]bool) error {
	if seen[n] {
		return fmt.Errorf("%w: %s node appears twice in the tree", ErrFormat, n.Kind)
	}
	seen[n] = true
	if !n.Kind.Valid() {
		return &UnknownNodeTypeError{Code: uint32(n.Kind)}
	}
	if n.Body == nil || n.Body.Kind() != n.Kind {
		return fmt.Errorf("%w: %s node has a mismatched body", ErrFormat, n.Kind)
	}
	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("%w: %s node has a nil child", ErrFormat, n.Kind)
		}
		if err := c.validate(seen); err != nil {
			return err
		}
	}
	return nil
}
