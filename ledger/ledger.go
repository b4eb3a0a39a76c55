// Package ledger records a fingerprint for every exported frame at unpack
// time so that pack can tell which frames were edited.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"sort"
	"strings"
)

var ErrMissingPayloadFile = errors.New("ledger: missing payload file")

// MissingPayloadFileError lists every expected file that was not found.
type MissingPayloadFileError struct {
	Paths []string
}

func (e *MissingPayloadFileError) Error() string {
	return fmt.Sprintf("ledger: %d payload file(s) missing:\n  %s", len(e.Paths), strings.Join(e.Paths, "\n  "))
}

func (e *MissingPayloadFileError) Is(target error) bool { return target == ErrMissingPayloadFile }

// Fingerprint is the CRC32 (IEEE) of a decoded pixel buffer.
func Fingerprint(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

type Entry struct {
	Checksum       uint32 `json:"checksum"`
	CompressedSize uint32 `json:"compressed_size"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

type Ledger struct {
	Source   string        `json:"source"`
	Frames   map[int]Entry `json:"frames"`
	Snapshot Snapshot      `json:"snapshot"`
}

func New(source string) *Ledger {
	return &Ledger{Source: source, Frames: make(map[int]Entry)}
}

// Record stores the fingerprint of frame's decoded pixels.
func (l *Ledger) Record(frame int, pixels []byte, compressedSize, width, height int) {
	l.Frames[frame] = Entry{
		Checksum:       Fingerprint(pixels),
		CompressedSize: uint32(compressedSize),
		Width:          width,
		Height:         height,
	}
}

// Observation is what pack found on disk for one (sequence, frame) file.
type Observation struct {
	Frame    int
	Path     string
	Checksum uint32
	Missing  bool
}

// Diff returns the frames whose files no longer match the ledger, in
// ascending order. Missing files are all collected before failing.
func Diff(l *Ledger, observed []Observation) ([]int, error) {
	var missing []string
	changed := make(map[int]bool)
	for _, o := range observed {
		if o.Missing {
			missing = append(missing, o.Path)
			continue
		}
		entry, ok := l.Frames[o.Frame]
		if !ok || entry.Checksum != o.Checksum {
			changed[o.Frame] = true
		}
	}
	if len(missing) > 0 {
		return nil, &MissingPayloadFileError{Paths: missing}
	}

	frames := make([]int, 0, len(changed))
	for f := range changed {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames, nil
}

// Marshal returns the checksums.json form of l.
func (l *Ledger) Marshal() ([]byte, error) {
	return json.MarshalIndent(l, "", "\t")
}

func (l *Ledger) Save(path string) error {
	b, err := l.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0666)
}

func Load(path string) (*Ledger, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l := New("")
	if err := json.Unmarshal(b, l); err != nil {
		return nil, fmt.Errorf("ledger: %s: %w", path, err)
	}
	if l.Frames == nil {
		l.Frames = make(map[int]Entry)
	}
	return l, nil
}
