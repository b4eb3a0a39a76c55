package anb

// sampleTree builds a tree touching every node kind.
func sampleTree(rev Revision) *Tree {
	t := &Tree{
		Revision: rev,
		Header:   Header{Fixup: 1, Version: 7, Pad1: 0, Pad2: 0},
		Root: NewNode(&NodeBody{},
			NewNode(&AnimationBody{
				SequenceCount: 1,
				FrameCount:    2,
				PaletteIndex:  3,
				Names:         Blob{Flag: 0x10, Data: []byte("anim-names-blob")},
			},
				NewNode(&MetaBody{},
					NewNode(&MetaScalarBody{Value: 0xdeadbeef}),
					NewNode(&MetaPointBody{X: 1, Y: 2, Z: 3}),
					NewNode(&MetaAnchorBody{X: -1, Y: -2, Z: 0, Angle: 0.5}),
					NewNode(&MetaRectBody{CenterX: 4, CenterY: 5, ExtentsX: 6, ExtentsY: 7, AngleX: 0.25}),
					NewNode(&MetaStringBody{Length: 5, String: Blob{Flag: 1, Data: []byte("hello")}}),
					NewNode(&MetaTableBody{}),
					NewNode(&MetaTableBody{Names: &Blob{Flag: 2, Data: []byte{1, 2, 3}}}),
				),
				NewNode(&SequenceBody{HashName: 42, FrameCount: 2},
					NewNode(&SequenceFrameBody{Frame: 0, Delay: 0.125}),
					NewNode(&SequenceFrameBody{Frame: 1, Delay: 0.125}),
				),
				NewNode(&FrameBody{MinX: -4, MaxX: 4, MinY: -8, MaxY: 0},
					NewNode(&TextureBody{Width: 8, Height: 8, Flags: 1, Image: Blob{Flag: 3, Data: []byte("thirteen-byte")}}),
					NewNode(&VertexBody{Flags: 1, PieceFlag: 4, Pieces: []Piece{
						{PosX: -4, PosY: -8, TexX: 0, TexY: 0, Width: 8, Height: 8},
					}}),
				),
				NewNode(&FrameBody{MinX: -2, MaxX: 2, MinY: -4, MaxY: 0},
					NewNode(&TextureBody{Width: 4, Height: 4, Flags: 1, Image: Blob{Flag: 3, Data: []byte("five!")}}),
					NewNode(&VertexBody{Flags: 1, PieceFlag: 4, Pieces: []Piece{
						{PosX: -2, PosY: -4, TexX: 0, TexY: 0, Width: 2, Height: 4},
						{PosX: 0, PosY: -4, TexX: 2, TexY: 0, Width: 2, Height: 4},
					}}),
				),
			),
		),
	}
	if rev == RevisionPreamble {
		t.Preamble = []byte("sixteen-byte-pre")
	}
	return t
}
