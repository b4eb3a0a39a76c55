// Package workspace moves an ANB container to and from an editable
// directory: a metadata document, a checksum ledger and one PNG per
// sequence frame.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goopsie/anbFileTools/anb"
	"github.com/goopsie/anbFileTools/payload"
)

const (
	MetadataFile = "metadata.json"
	ChecksumFile = "checksums.json"
)

var ErrDimensionMismatch = errors.New("workspace: image size does not match texture")

type DimensionMismatchError struct {
	Path          string
	Frame         int
	Width, Height int
	WantW, WantH  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("workspace: %s is %dx%d, frame %d texture is %dx%d", e.Path, e.Width, e.Height, e.Frame, e.WantW, e.WantH)
}

func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

type Options struct {
	Codec   payload.Codec
	Workers int         // GOMAXPROCS when < 1
	Logger  *log.Logger // silent when nil
}

func (o Options) codec() (payload.Codec, error) {
	if o.Codec == nil {
		return nil, errors.New("workspace: no payload codec")
	}
	return o.Codec, nil
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

// outputDir is where path unpacks to: the path without its extension, or
// with an _unpacked suffix when it has none.
func outputDir(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return strings.TrimSuffix(path, ext)
	}
	return path + "_unpacked"
}

// writeFiles creates every file, parents included, in path order.
func writeFiles(files map[string][]byte) error {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0777); err != nil {
			return err
		}
		if err := os.WriteFile(p, files[p], 0666); err != nil {
			return err
		}
	}
	return nil
}

// frameRef is one SequenceFrame: an exported copy of a frame.
type frameRef struct {
	hash  uint32
	frame int
}

func (r frameRef) path(dir string) string {
	return filepath.Join(dir, strconv.FormatUint(uint64(r.hash), 10), fmt.Sprintf("frame_%d.png", r.frame))
}

// references lists every SequenceFrame in tree order.
func references(t *anb.Tree) ([]frameRef, error) {
	numFrames := len(t.Frames())
	var refs []frameRef
	for _, seq := range t.Sequences() {
		body, ok := seq.Body.(*anb.SequenceBody)
		if !ok {
			return nil, fmt.Errorf("%w: Sequence node without a Sequence body", anb.ErrFormat)
		}
		hash := body.HashName
		for _, c := range seq.Children {
			sf, ok := c.Body.(*anb.SequenceFrameBody)
			if !ok {
				continue
			}
			if int(sf.Frame) >= numFrames {
				return nil, fmt.Errorf("%w: sequence %d references frame %d of %d", anb.ErrFormat, hash, sf.Frame, numFrames)
			}
			refs = append(refs, frameRef{hash: hash, frame: int(sf.Frame)})
		}
	}
	return refs, nil
}

func frameParts(frames []*anb.Node, frame int) (*anb.TextureBody, *anb.VertexBody, error) {
	tex, vtx, err := frames[frame].FrameParts()
	if err != nil {
		return nil, nil, fmt.Errorf("frame %d: %w", frame, err)
	}
	return tex, vtx, nil
}
