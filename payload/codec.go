// Package payload converts frame textures between their compressed on-disk
// form and editable images.
package payload

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded is returned by Compress when the compressed block would
// not fit in the budget it was given.
var ErrBudgetExceeded = errors.New("payload: compressed size exceeds budget")

// Codec compresses and decompresses raw RGBA texture buffers.
type Codec interface {
	Name() string
	// Decompress expands block into exactly rawSize bytes.
	Decompress(block []byte, rawSize int) ([]byte, error)
	// Compress returns a block no larger than budget, or ErrBudgetExceeded.
	Compress(raw []byte, budget int) ([]byte, error)
}

// New picks a codec by name, exec when name is empty. toolPath is only
// used by the exec codec.
func New(name, toolPath string) (Codec, error) {
	switch name {
	case "lz4":
		return LZ4{}, nil
	case "zstd":
		return Zstd{}, nil
	case "", "exec":
		if toolPath == "" {
			return nil, errors.New("payload: exec codec needs a tool path")
		}
		return &Exec{Tool: toolPath}, nil
	default:
		return nil, fmt.Errorf("payload: unknown codec %q", name)
	}
}

func checkRaw(name string, raw []byte, rawSize int) ([]byte, error) {
	if len(raw) != rawSize {
		return nil, fmt.Errorf("payload: %s block expanded to %d bytes, want %d", name, len(raw), rawSize)
	}
	return raw, nil
}

func checkBudget(block []byte, budget int) ([]byte, error) {
	if len(block) > budget {
		return nil, fmt.Errorf("%w (%d > %d)", ErrBudgetExceeded, len(block), budget)
	}
	return block, nil
}
