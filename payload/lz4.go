package payload

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 stores textures as bare LZ4 blocks.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Decompress(block []byte, rawSize int) ([]byte, error) {
	out := make([]byte, rawSize)
	if rawSize == 0 {
		return out, nil
	}
	n, err := lz4.UncompressBlock(block, out)
	if err != nil {
		return nil, fmt.Errorf("payload: lz4: %w", err)
	}
	return checkRaw("lz4", out[:n], rawSize)
}

func (LZ4) Compress(raw []byte, budget int) ([]byte, error) {
	if len(raw) == 0 {
		return []byte{}, nil
	}
	var c lz4.Compressor
	out := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := c.CompressBlock(raw, out)
	if err != nil {
		return nil, fmt.Errorf("payload: lz4: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w (incompressible)", ErrBudgetExceeded)
	}
	return checkBudget(out[:n], budget)
}
