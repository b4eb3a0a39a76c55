package payload

import (
	"fmt"

	"github.com/DataDog/zstd"
)

const compressionLevel = zstd.BestSpeed

// Zstd stores textures as single zstd frames.
type Zstd struct{}

func (Zstd) Name() string { return "zstd" }

func (Zstd) Decompress(block []byte, rawSize int) ([]byte, error) {
	raw, err := zstd.Decompress(make([]byte, 0, rawSize), block)
	if err != nil {
		return nil, fmt.Errorf("payload: zstd: %w", err)
	}
	return checkRaw("zstd", raw, rawSize)
}

func (Zstd) Compress(raw []byte, budget int) ([]byte, error) {
	block, err := zstd.CompressLevel(nil, raw, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("payload: zstd: %w", err)
	}
	return checkBudget(block, budget)
}
