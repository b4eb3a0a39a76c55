package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/goopsie/anbFileTools/anb"
	"github.com/goopsie/anbFileTools/ledger"
	"github.com/goopsie/anbFileTools/payload"
)

// Unpack decodes the container at path into a directory named after it
// and returns that directory.
func Unpack(path string, opts Options) (string, error) {
	log := opts.logger()
	codec, err := opts.codec()
	if err != nil {
		return "", err
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	t, err := anb.Decode(buf)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	canon, err := anb.Encode(t)
	if err != nil {
		return "", fmt.Errorf("%s: re-encode: %w", path, err)
	}
	if !bytes.Equal(canon, buf) {
		log.Printf("warning: %s is not in canonical layout, packing will move its offsets", path)
	}

	refs, err := references(t)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	frames := t.Frames()
	exported := uniqueFrames(refs)
	log.Printf("extracting %d frames (%d files) from %s", len(exported), len(refs), path)

	images := make([]*image.NRGBA, len(exported))
	encoded := make([][]byte, len(exported))
	err = payload.ForEach(len(exported), opts.Workers, func(i int) error {
		frame := exported[i]
		tex, vtx, err := frameParts(frames, frame)
		if err != nil {
			return err
		}
		w, h := int(tex.Width), int(tex.Height)
		raw, err := codec.Decompress(tex.Image.Data, w*h*4)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		img, err := payload.Compose(raw, w, h, vtx.Pieces)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		var b bytes.Buffer
		if err := payload.EncodePNG(&b, img); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		images[i], encoded[i] = img, b.Bytes()
		return nil
	})
	if err != nil {
		return "", err
	}

	l := ledger.New(filepath.Base(path))
	index := make(map[int]int, len(exported))
	for i, frame := range exported {
		index[frame] = i
		tex, _, _ := frameParts(frames, frame)
		l.Record(frame, images[i].Pix, len(tex.Image.Data), int(tex.Width), int(tex.Height))
	}
	if l.Snapshot, err = ledger.NewSnapshot(canon); err != nil {
		return "", err
	}
	sums, err := l.Marshal()
	if err != nil {
		return "", err
	}
	doc, err := json.MarshalIndent(t, "", "\t")
	if err != nil {
		return "", fmt.Errorf("%s: %w", MetadataFile, err)
	}

	// Nothing touches the disk before every output is in memory.
	dir := outputDir(path)
	files := map[string][]byte{
		filepath.Join(dir, MetadataFile): doc,
		filepath.Join(dir, ChecksumFile): sums,
	}
	for _, ref := range refs {
		files[ref.path(dir)] = encoded[index[ref.frame]]
	}
	if err := writeFiles(files); err != nil {
		return "", err
	}
	return dir, nil
}

// uniqueFrames returns the distinct frame indices of refs, ascending.
func uniqueFrames(refs []frameRef) []int {
	seen := make(map[int]bool)
	var frames []int
	for _, r := range refs {
		if !seen[r.frame] {
			seen[r.frame] = true
			frames = append(frames, r.frame)
		}
	}
	sort.Ints(frames)
	return frames
}
