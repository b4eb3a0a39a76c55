package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goopsie/anbFileTools/anb"
	"github.com/goopsie/anbFileTools/ledger"
	"github.com/goopsie/anbFileTools/payload"
)

// Pack rebuilds the container described by an unpacked directory and
// writes it to <dir>/<base(dir)>.anb. Only frames whose images changed
// since Unpack are recompressed.
func Pack(dir string, opts Options) (string, error) {
	log := opts.logger()
	codec, err := opts.codec()
	if err != nil {
		return "", err
	}

	doc, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return "", err
	}
	t := new(anb.Tree)
	if err := json.Unmarshal(doc, t); err != nil {
		return "", fmt.Errorf("%s: %w", MetadataFile, err)
	}
	if t.Root == nil {
		return "", fmt.Errorf("%s: %w: no root node", MetadataFile, anb.ErrFormat)
	}
	l, err := ledger.Load(filepath.Join(dir, ChecksumFile))
	if err != nil {
		return "", err
	}
	refs, err := references(t)
	if err != nil {
		return "", err
	}
	frames := t.Frames()

	obs := make([]ledger.Observation, len(refs))
	pixels := make([][]byte, len(refs))
	// Unreadable images are reported after every missing file is known.
	bad := make([]error, len(refs))
	err = payload.ForEach(len(refs), opts.Workers, func(i int) error {
		ref := refs[i]
		p := ref.path(dir)
		obs[i] = ledger.Observation{Frame: ref.frame, Path: p}
		b, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			obs[i].Missing = true
			return nil
		}
		if err != nil {
			return err
		}
		img, err := payload.DecodePNG(b)
		if err != nil {
			bad[i] = fmt.Errorf("%s: %w", p, err)
			return nil
		}
		tex, _, err := frameParts(frames, ref.frame)
		if err != nil {
			return err
		}
		pix, w, h := payload.Pixels(img)
		if w != int(tex.Width) || h != int(tex.Height) {
			bad[i] = &DimensionMismatchError{
				Path: p, Frame: ref.frame,
				Width: w, Height: h,
				WantW: int(tex.Width), WantH: int(tex.Height),
			}
			return nil
		}
		obs[i].Checksum = ledger.Fingerprint(pix)
		pixels[i] = pix
		return nil
	})
	if err != nil {
		return "", err
	}

	changed, err := ledger.Diff(l, obs)
	if err != nil {
		return "", err
	}
	for _, err := range bad {
		if err != nil {
			return "", err
		}
	}

	// The first copy of a frame that differs from the ledger supplies its
	// new pixels.
	edits := make(map[int][]byte, len(changed))
	for i, o := range obs {
		if _, done := edits[o.Frame]; done {
			continue
		}
		if entry, ok := l.Frames[o.Frame]; !ok || entry.Checksum != o.Checksum {
			edits[o.Frame] = pixels[i]
		}
	}

	blocks := make([][]byte, len(changed))
	err = payload.ForEach(len(changed), opts.Workers, func(i int) error {
		frame := changed[i]
		raw := edits[frame]
		block, err := codec.Compress(raw, len(raw))
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		blocks[i] = block
		return nil
	})
	if err != nil {
		return "", err
	}
	replaced := make(map[int][]byte, len(changed))
	for i, frame := range changed {
		log.Printf("frame %d changed, recompressed %d -> %d bytes", frame, len(edits[frame]), len(blocks[i]))
		replaced[frame] = blocks[i]
	}
	if err := t.ReplaceFramePayloads(replaced); err != nil {
		return "", err
	}

	out, err := anb.Encode(t)
	if err != nil {
		return "", err
	}
	if len(changed) == 0 && l.Snapshot.Size > 0 {
		if err := l.Snapshot.Verify(out); err != nil {
			log.Printf("warning: no frames changed but %v", err)
		}
	}

	name := filepath.Base(dir)
	if abs, err := filepath.Abs(dir); err == nil {
		name = filepath.Base(abs)
	}
	dest := filepath.Join(dir, name+".anb")
	if err := os.WriteFile(dest, out, 0666); err != nil {
		return "", err
	}
	return dest, nil
}
