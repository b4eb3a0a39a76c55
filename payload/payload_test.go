package payload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/goopsie/anbFileTools/anb"
)

func gradient(w, h int) []byte {
	raw := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			raw[i], raw[i+1], raw[i+2], raw[i+3] = byte(x*4), byte(y*4), 0x80, 0xFF
		}
	}
	return raw
}

// tiles is an 8x8 checker of solid colours, easy to compress.
func tiles(w, h int) []byte {
	raw := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			raw[i], raw[i+1], raw[i+2], raw[i+3] = byte(x/8*32), byte(y/8*32), 0x80, 0xFF
		}
	}
	return raw
}

func TestCodecRoundTrip(t *testing.T) {
	raw := tiles(64, 64)
	for _, c := range []Codec{LZ4{}, Zstd{}} {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(raw, len(raw))
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if len(block) >= len(raw) {
				t.Errorf("tiles did not compress: %d bytes", len(block))
			}
			back, err := c.Decompress(block, len(raw))
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(back, raw) {
				t.Error("round trip changed the pixels")
			}
			if _, err := c.Decompress(block, len(raw)+4); err == nil {
				t.Error("wrong raw size accepted")
			}
		})
	}
}

func TestCodecBudgetExceeded(t *testing.T) {
	noise := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(noise)
	tests := []struct {
		name   string
		raw    []byte
		budget int
	}{
		{"noise at raw size", noise, len(noise)},
		{"tiny budget", tiles(32, 32), 4},
	}
	for _, c := range []Codec{LZ4{}, Zstd{}} {
		for _, tt := range tests {
			t.Run(c.Name()+"/"+tt.name, func(t *testing.T) {
				if _, err := c.Compress(tt.raw, tt.budget); !errors.Is(err, ErrBudgetExceeded) {
					t.Errorf("Compress = %v, want ErrBudgetExceeded", err)
				}
			})
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name, tool, want string
		ok               bool
	}{
		{"", "/bin/extractor", "exec", true},
		{"", "", "", false},
		{"lz4", "", "lz4", true},
		{"zstd", "", "zstd", true},
		{"exec", "/bin/extractor", "exec", true},
		{"exec", "", "", false},
		{"wflz", "", "", false},
	}
	for _, tt := range tests {
		c, err := New(tt.name, tt.tool)
		if (err == nil) != tt.ok {
			t.Errorf("New(%q, %q) error = %v", tt.name, tt.tool, err)
			continue
		}
		if err == nil && c.Name() != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.name, c.Name(), tt.want)
		}
	}
}

const copyTool = `#!/bin/sh
case "$1" in
*.dat) cp "$1" "${1%.dat}.wflz" ;;
*.wflz) cp "$1" "${1%.wflz}.dat" ;;
*) exit 2 ;;
esac
`

func TestExecCodec(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	tool := filepath.Join(t.TempDir(), "extractor")
	if err := os.WriteFile(tool, []byte(copyTool), 0755); err != nil {
		t.Fatal(err)
	}
	c := &Exec{Tool: tool}
	raw := gradient(8, 8)

	block, err := c.Compress(raw, len(raw))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	back, err := c.Decompress(block, len(raw))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Error("round trip changed the pixels")
	}
	if _, err := c.Compress(raw, len(raw)-1); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("Compress over budget = %v", err)
	}

	broken := &Exec{Tool: filepath.Join(t.TempDir(), "missing")}
	if _, err := broken.Compress(raw, len(raw)); err == nil {
		t.Error("missing tool did not fail")
	}
}

// fixedTool writes block.wflz from its own directory for every compress
// call and logs the budget it was given.
const fixedTool = `#!/bin/sh
dir=$(dirname "$0")
echo "$2" >> "$dir/budgets"
cp "$dir/block.wflz" "${1%.dat}.wflz"
`

// wflzBlock is a block header declaring size compressed bytes, padded
// with fill bytes after the header.
func wflzBlock(size uint32, fill int) []byte {
	b := []byte("WFLZ")
	b = append(b, byte(size), byte(size>>8), byte(size>>16), byte(size>>24))
	return append(b, bytes.Repeat([]byte{0xAB}, fill)...)
}

func TestExecCompressTwoPass(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	tests := []struct {
		name    string
		block   []byte
		budgets string
		ok      bool
	}{
		{"tight second pass", wflzBlock(20, 28), "256\n36\n", true},
		{"over budget", wflzBlock(256, 264), "256\n272\n", false},
		{"short header", []byte("WFLZ"), "256\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tool := filepath.Join(dir, "extractor")
			if err := os.WriteFile(tool, []byte(fixedTool), 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "block.wflz"), tt.block, 0666); err != nil {
				t.Fatal(err)
			}

			got, err := (&Exec{Tool: tool}).Compress(gradient(8, 8), 256)
			budgets, rerr := os.ReadFile(filepath.Join(dir, "budgets"))
			if rerr != nil {
				t.Fatal(rerr)
			}
			if string(budgets) != tt.budgets {
				t.Errorf("budgets = %q, want %q", budgets, tt.budgets)
			}
			if (err == nil) != tt.ok {
				t.Fatalf("Compress error = %v", err)
			}
			if tt.ok && !bytes.Equal(got, tt.block) {
				t.Errorf("Compress = %x, want %x", got, tt.block)
			}
		})
	}
}

func TestCompose(t *testing.T) {
	raw := gradient(4, 4)
	tests := []struct {
		name    string
		pieces  []anb.Piece
		visible func(x, y int) bool
	}{
		{"full cover", []anb.Piece{{Width: 4, Height: 4}}, func(x, y int) bool { return true }},
		{"nothing", nil, func(x, y int) bool { return false }},
		{"top left quarter", []anb.Piece{{Width: 2, Height: 2}}, func(x, y int) bool { return x < 2 && y < 2 }},
		{
			"two strips",
			[]anb.Piece{{TexY: 0, Width: 4, Height: 1}, {TexY: 3, Width: 4, Height: 1}},
			func(x, y int) bool { return y == 0 || y == 3 },
		},
		{"clipped", []anb.Piece{{TexX: 3, TexY: 3, Width: 10, Height: 10}}, func(x, y int) bool { return x == 3 && y == 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Compose(raw, 4, 4, tt.pieces)
			if err != nil {
				t.Fatal(err)
			}
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					got := img.NRGBAAt(x, y)
					want := color.NRGBA{}
					if tt.visible(x, y) {
						i := (y*4 + x) * 4
						want = color.NRGBA{raw[i], raw[i+1], raw[i+2], raw[i+3]}
					}
					if got != want {
						t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}

	if _, err := Compose(raw[:10], 4, 4, nil); err == nil {
		t.Error("short pixel buffer accepted")
	}
}

func TestPNGRoundTrip(t *testing.T) {
	translucent := gradient(16, 16)
	for i := 3; i < len(translucent); i += 8 {
		translucent[i] = 0x40
	}
	for name, raw := range map[string][]byte{"opaque": gradient(16, 16), "translucent": translucent} {
		t.Run(name, func(t *testing.T) {
			img := &image.NRGBA{Pix: raw, Stride: 16 * 4, Rect: image.Rect(0, 0, 16, 16)}
			var buf bytes.Buffer
			if err := EncodePNG(&buf, img); err != nil {
				t.Fatal(err)
			}
			back, err := DecodePNG(buf.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			pix, w, h := Pixels(back)
			if w != 16 || h != 16 {
				t.Fatalf("decoded %dx%d", w, h)
			}
			if !bytes.Equal(pix, raw) {
				t.Error("pixels changed through PNG")
			}
		})
	}
}

func TestPixelsOffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.SetNRGBA(11, 10, color.NRGBA{1, 2, 3, 4})
	pix, w, h := Pixels(img)
	if w != 2 || h != 1 {
		t.Fatalf("size = %dx%d", w, h)
	}
	if want := []byte{0, 0, 0, 0, 1, 2, 3, 4}; !bytes.Equal(pix, want) {
		t.Errorf("Pixels = %v, want %v", pix, want)
	}
}

func TestForEach(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 100} {
		t.Run(fmt.Sprint(workers), func(t *testing.T) {
			var calls int32
			out := make([]int, 50)
			err := ForEach(len(out), workers, func(i int) error {
				atomic.AddInt32(&calls, 1)
				out[i] = i * i
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if calls != 50 {
				t.Errorf("%d calls, want 50", calls)
			}
			for i, v := range out {
				if v != i*i {
					t.Fatalf("out[%d] = %d", i, v)
				}
			}
		})
	}
}

func TestForEachLowestError(t *testing.T) {
	err := ForEach(20, 4, func(i int) error {
		if i == 7 || i == 13 {
			return fmt.Errorf("index %d", i)
		}
		return nil
	})
	if err == nil || err.Error() != "index 7" {
		t.Errorf("ForEach = %v, want index 7", err)
	}
	if err := ForEach(0, 4, func(int) error { return errors.New("called") }); err != nil {
		t.Errorf("empty ForEach = %v", err)
	}
}
