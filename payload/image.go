package payload

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/goopsie/anbFileTools/anb"
)

// Compose resolves a frame's texture into an image of the same size: every
// piece copies its texture rectangle in place, anything no piece covers is
// left transparent. Pieces reaching past the texture are clipped.
func Compose(raw []byte, width, height int, pieces []anb.Piece) (*image.NRGBA, error) {
	if len(raw) != width*height*4 {
		return nil, fmt.Errorf("payload: %d bytes of pixels for a %dx%d texture", len(raw), width, height)
	}
	tex := &image.NRGBA{Pix: raw, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	canvas := image.NewNRGBA(tex.Rect)
	for _, p := range pieces {
		r := image.Rect(int(p.TexX), int(p.TexY), int(p.TexX)+int(p.Width), int(p.TexY)+int(p.Height))
		r = r.Intersect(canvas.Rect)
		if r.Empty() {
			continue
		}
		draw.Draw(canvas, r, tex, r.Min, draw.Src)
	}
	return canvas, nil
}

// Pixels flattens img into tightly packed non-premultiplied RGBA.
func Pixels(img image.Image) (pix []byte, width, height int) {
	b := img.Bounds()
	if m, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && m.Stride == b.Dx()*4 {
		return append([]byte(nil), m.Pix[:b.Dy()*m.Stride]...), b.Dx(), b.Dy()
	}
	m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Rect, img, b.Min, draw.Src)
	return m.Pix, b.Dx(), b.Dy()
}

func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func DecodePNG(b []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("payload: png: %w", err)
	}
	return img, nil
}
