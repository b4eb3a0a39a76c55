package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Exec hands each texture to an external extractor. The tool is called as
//
//	tool frame.dat <budget>   writes frame.wflz
//	tool frame.wflz           writes frame.dat
//
// with the working files kept in a scratch directory. The tool pads its
// output to the budget it is given, so Compress runs it twice: once with
// the caller's budget to learn the block size from the header, then with
// that size as the budget.
const wflzHeaderSize = 16

type Exec struct {
	Tool string
}

func (e *Exec) Name() string { return "exec" }

func (e *Exec) Decompress(block []byte, rawSize int) ([]byte, error) {
	raw, err := e.run(block, "frame.wflz", "frame.dat")
	if err != nil {
		return nil, err
	}
	return checkRaw("exec", raw, rawSize)
}

func (e *Exec) Compress(raw []byte, budget int) ([]byte, error) {
	first, err := e.run(raw, "frame.dat", "frame.wflz", strconv.Itoa(budget))
	if err != nil {
		return nil, err
	}
	if len(first) < wflzHeaderSize {
		return nil, fmt.Errorf("payload: %s wrote a %d byte block, too short for a header", filepath.Base(e.Tool), len(first))
	}
	// u32 compressed size at offset 4, plus the 16 byte block header.
	tight := uint64(binary.LittleEndian.Uint32(first[4:8])) + wflzHeaderSize
	block, err := e.run(raw, "frame.dat", "frame.wflz", strconv.FormatUint(tight, 10))
	if err != nil {
		return nil, err
	}
	return checkBudget(block, budget)
}

func (e *Exec) run(in []byte, inName, outName string, args ...string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "anb-payload-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, inName)
	if err := os.WriteFile(inPath, in, 0666); err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	cmd := exec.Command(e.Tool, append([]string{inPath}, args...)...)
	cmd.Dir = dir
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("payload: %s %s: %w: %s", filepath.Base(e.Tool), inName, err, bytes.TrimSpace(stderr.Bytes()))
	}

	out, err := os.ReadFile(filepath.Join(dir, outName))
	if err != nil {
		return nil, fmt.Errorf("payload: %s produced no %s: %w", filepath.Base(e.Tool), outName, err)
	}
	return out, nil
}
