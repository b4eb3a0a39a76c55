package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goopsie/anbFileTools/ledger"
	"github.com/goopsie/anbFileTools/pak"
)

const archiveKind = "pak"

// archiveManifest is the metadata.json of an unpacked PAK: every file in
// archive order with the header fields needed to rebuild it.
type archiveManifest struct {
	Kind  string         `json:"kind"`
	Files []archiveEntry `json:"files"`
}

type archiveEntry struct {
	Name     string `json:"name"`
	Hash     uint32 `json:"hash"`
	Time     uint64 `json:"time,omitempty"`
	Flags    uint32 `json:"flags"`
	Specials uint32 `json:"specials"`
	Pad      uint32 `json:"pad,omitempty"`
}

// entryPath maps an archive name onto a path below dir, refusing names
// that would land outside it.
func entryPath(dir, name string) (string, error) {
	rel := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if rel == "." || rel == MetadataFile || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("%w: unsafe file name %q", pak.ErrFormat, name)
	}
	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}

// IsArchiveDir reports whether dir was produced by UnpackArchive.
func IsArchiveDir(dir string) bool {
	b, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return false
	}
	var m struct {
		Kind string `json:"kind"`
	}
	return json.Unmarshal(b, &m) == nil && m.Kind == archiveKind
}

// UnpackArchive extracts every file of the PAK at path into a directory
// named after it and returns that directory.
func UnpackArchive(path string, opts Options) (string, error) {
	log := opts.logger()
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	a, err := pak.Unmarshal(buf)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	dir := outputDir(path)
	m := archiveManifest{Kind: archiveKind, Files: make([]archiveEntry, len(a.Entries))}
	files := make(map[string][]byte, len(a.Entries)+1)
	for i, e := range a.Entries {
		p, err := entryPath(dir, e.Name)
		if err != nil {
			return "", fmt.Errorf("%s: file %d: %w", path, i, err)
		}
		if _, dup := files[p]; dup {
			return "", fmt.Errorf("%s: %w: %q appears twice", path, pak.ErrFormat, e.Name)
		}
		log.Printf("Unpacking %s", e.Name)
		files[p] = e.Data
		m.Files[i] = archiveEntry{
			Name: e.Name, Hash: e.NameHash, Time: e.Time,
			Flags: e.Flags, Specials: e.Specials, Pad: e.Pad,
		}
	}
	doc, err := json.MarshalIndent(m, "", "\t")
	if err != nil {
		return "", err
	}
	files[filepath.Join(dir, MetadataFile)] = doc

	if err := writeFiles(files); err != nil {
		return "", err
	}
	return dir, nil
}

// PackArchive rebuilds a PAK from a directory written by UnpackArchive
// and writes it to <dir>/<base(dir)>.pak.
func PackArchive(dir string, opts Options) (string, error) {
	log := opts.logger()
	doc, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return "", err
	}
	var m archiveManifest
	if err := json.Unmarshal(doc, &m); err != nil {
		return "", fmt.Errorf("%s: %w", MetadataFile, err)
	}
	if m.Kind != archiveKind {
		return "", fmt.Errorf("%s: kind %q is not %q", MetadataFile, m.Kind, archiveKind)
	}

	a := &pak.Archive{Entries: make([]pak.Entry, len(m.Files))}
	var missing []string
	for i, f := range m.Files {
		p, err := entryPath(dir, f.Name)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, p)
			continue
		}
		if err != nil {
			return "", err
		}
		log.Printf("Packing %s", f.Name)
		a.Entries[i] = pak.Entry{
			Name: f.Name,
			FileHeader: pak.FileHeader{
				Time: f.Time, NameHash: f.Hash,
				Flags: f.Flags, Specials: f.Specials, Pad: f.Pad,
			},
			Data: data,
		}
	}
	if len(missing) > 0 {
		return "", &ledger.MissingPayloadFileError{Paths: missing}
	}

	out, err := pak.Marshal(a)
	if err != nil {
		return "", err
	}
	name := filepath.Base(dir)
	if abs, err := filepath.Abs(dir); err == nil {
		name = filepath.Base(abs)
	}
	dest := filepath.Join(dir, name+".pak")
	if err := os.WriteFile(dest, out, 0666); err != nil {
		return "", err
	}
	return dest, nil
}
