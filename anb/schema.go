package anb

import "strconv"

type NodeKind uint32

const (
	KindNode NodeKind = iota
	KindTexture
	KindVertex
	KindMeta
	KindMetaScalar
	KindMetaPoint
	KindMetaAnchor
	KindMetaRect
	KindMetaString
	KindMetaTable
	KindFrame
	KindSequenceFrame
	KindSequence
	KindAnimation

	numKinds
)

const (
	headerSize = 24 // magic, fixup, version, pad1, pad2
	recordSize = 16 // type, num_children, child_pointer
	childSize  = 8  // one entry of a child-offset table
	pieceSize  = 16
	blobHeader = 8 // flag, size

	// Alignment of side-table entries and texture payload entries.
	Alignment = 8
	// MinHashSlot is the smallest slot reserved for a MetaTable or
	// Animation hash blob, even when its size field is smaller.
	MinHashSlot = 8
)

type kindInfo struct {
	name     string
	bodySize uint64
	side     bool // carries a side-table entry
	payload  bool // carries a payload-block entry
}

var schema = [numKinds]kindInfo{
	KindNode:          {name: "Node"},
	KindTexture:       {name: "Texture", bodySize: 24, payload: true},
	KindVertex:        {name: "Vertex", bodySize: 16, payload: true},
	KindMeta:          {name: "Meta"},
	KindMetaScalar:    {name: "MetaScalar", bodySize: 8},
	KindMetaPoint:     {name: "MetaPoint", bodySize: 16},
	KindMetaAnchor:    {name: "MetaAnchor", bodySize: 16},
	KindMetaRect:      {name: "MetaRect", bodySize: 32},
	KindMetaString:    {name: "MetaString", bodySize: 16, side: true},
	KindMetaTable:     {name: "MetaTable", bodySize: 8, side: true},
	KindFrame:         {name: "Frame", bodySize: 16},
	KindSequenceFrame: {name: "SequenceFrame", bodySize: 8},
	KindSequence:      {name: "Sequence", bodySize: 8},
	KindAnimation:     {name: "Animation", bodySize: 24, side: true},
}

// LookupKind maps an on-disk type code to its NodeKind. The set of kinds is
// closed; anything else is an UnknownNodeTypeError.
func LookupKind(code uint32, offset uint64) (NodeKind, error) {
	if code >= uint32(numKinds) {
		return 0, &UnknownNodeTypeError{Code: code, Offset: offset}
	}
	return NodeKind(code), nil
}

func (k NodeKind) Valid() bool { return k < numKinds }

func (k NodeKind) String() string {
	if !k.Valid() {
		return "NodeKind(" + strconv.FormatUint(uint64(k), 10) + ")"
	}
	return schema[k].name
}

// BodySize is the fixed size of the kind's body, excluding the 16-byte
// record header.
func (k NodeKind) BodySize() uint64 { return schema[k].bodySize }

// HasSideEntry reports whether nodes of this kind may own a side-table entry.
func (k NodeKind) HasSideEntry() bool { return schema[k].side }

// HasPayload reports whether nodes of this kind own a payload-block entry.
func (k NodeKind) HasPayload() bool { return schema[k].payload }

// newBody returns an empty body for k.
func newBody(k NodeKind) Body {
	switch k {
	case KindNode:
		return &NodeBody{}
	case KindTexture:
		return &TextureBody{}
	case KindVertex:
		return &VertexBody{}
	case KindMeta:
		return &MetaBody{}
	case KindMetaScalar:
		return &MetaScalarBody{}
	case KindMetaPoint:
		return &MetaPointBody{}
	case KindMetaAnchor:
		return &MetaAnchorBody{}
	case KindMetaRect:
		return &MetaRectBody{}
	case KindMetaString:
		return &MetaStringBody{}
	case KindMetaTable:
		return &MetaTableBody{}
	case KindFrame:
		return &FrameBody{}
	case KindSequenceFrame:
		return &SequenceFrameBody{}
	case KindSequence:
		return &SequenceBody{}
	case KindAnimation:
		return &AnimationBody{}
	}
	return nil
}
