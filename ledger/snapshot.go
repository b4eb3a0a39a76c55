package ledger

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Snapshot keeps the canonical re-serialization of the unpacked container
// so that an unedited pack can be checked byte for byte.
type Snapshot struct {
	Size     int    `json:"size"`
	Checksum uint32 `json:"checksum"`
	Data     []byte `json:"data"` // zstd
}

// MismatchError reports the first byte where a rebuilt container departs
// from the snapshot.
type MismatchError struct {
	Offset int
	Size   int
	Want   int
}

func (e *MismatchError) Error() string {
	if e.Size != e.Want {
		return fmt.Sprintf("ledger: rebuilt container is %d bytes, snapshot has %d (first difference at %#x)", e.Size, e.Want, e.Offset)
	}
	return fmt.Sprintf("ledger: rebuilt container differs from snapshot at %#x", e.Offset)
}

func NewSnapshot(raw []byte) (Snapshot, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return Snapshot{}, err
	}
	defer enc.Close()
	return Snapshot{
		Size:     len(raw),
		Checksum: Fingerprint(raw),
		Data:     enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)),
	}, nil
}

// Bytes decompresses the snapshot.
func (s Snapshot) Bytes() ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(s.Data, make([]byte, 0, s.Size))
	if err != nil {
		return nil, fmt.Errorf("ledger: snapshot: %w", err)
	}
	if len(raw) != s.Size || Fingerprint(raw) != s.Checksum {
		return nil, fmt.Errorf("ledger: snapshot is corrupt")
	}
	return raw, nil
}

// Verify compares b against the snapshot.
func (s Snapshot) Verify(b []byte) error {
	if len(b) == s.Size && Fingerprint(b) == s.Checksum {
		return nil
	}
	raw, err := s.Bytes()
	if err != nil {
		return err
	}
	n := len(raw)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && raw[i] == b[i] {
		i++
	}
	return &MismatchError{Offset: i, Size: len(b), Want: len(raw)}
}
