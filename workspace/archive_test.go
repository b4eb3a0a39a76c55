package workspace

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goopsie/anbFileTools/anb"
	"github.com/goopsie/anbFileTools/ledger"
	"github.com/goopsie/anbFileTools/pak"
	"github.com/goopsie/anbFileTools/payload"
)

func writeArchive(t *testing.T, entries ...pak.Entry) (string, []byte) {
	t.Helper()
	b, err := pak.Marshal(&pak.Archive{Entries: entries})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ui.pak")
	if err := os.WriteFile(path, b, 0666); err != nil {
		t.Fatal(err)
	}
	return path, b
}

func TestArchiveRoundTrip(t *testing.T) {
	anim, err := anb.Encode(sharedTree(t))
	if err != nil {
		t.Fatal(err)
	}
	timed := pak.NewEntry(`gfx\menu\back.anb`, 0xBEEF, []byte("not an anb"))
	timed.Time = 1700000000
	path, orig := writeArchive(t,
		pak.NewEntry("gfx/hero.anb", 0xCAFE, anim),
		timed,
		pak.NewEntry("empty.anb", 1, nil),
	)

	dir, err := UnpackArchive(path, Options{})
	if err != nil {
		t.Fatalf("UnpackArchive: %v", err)
	}
	if want := filepath.Join(filepath.Dir(path), "ui"); dir != want {
		t.Errorf("dir = %s, want %s", dir, want)
	}
	if !IsArchiveDir(dir) {
		t.Error("IsArchiveDir = false for an unpacked archive")
	}
	hero := filepath.Join(dir, "gfx", "hero.anb")
	got, err := os.ReadFile(hero)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, anim) {
		t.Error("extracted container differs from the archived one")
	}
	if _, err := os.Stat(filepath.Join(dir, "gfx", "menu", "back.anb")); err != nil {
		t.Errorf("backslash name: %v", err)
	}

	out, err := PackArchive(dir, Options{})
	if err != nil {
		t.Fatalf("PackArchive: %v", err)
	}
	if out != filepath.Join(dir, "ui.pak") {
		t.Errorf("PackArchive wrote %s", out)
	}
	packed, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(packed, orig) {
		t.Fatal("unchanged archive does not rebuild byte-identical")
	}

	// A changed file goes back in its place with its header fields kept.
	animDir, err := Unpack(hero, Options{Codec: payload.LZ4{}})
	if err != nil {
		t.Fatal(err)
	}
	if IsArchiveDir(animDir) {
		t.Error("IsArchiveDir = true for an unpacked container")
	}
	edited, err := Pack(animDir, Options{Codec: payload.LZ4{}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(edited)
	if err != nil {
		t.Fatal(err)
	}
	b = append(b, "trailer"...)
	if err := os.WriteFile(hero, b, 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := PackArchive(dir, Options{}); err != nil {
		t.Fatal(err)
	}
	packed, err = os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	a, err := pak.Unmarshal(packed)
	if err != nil {
		t.Fatal(err)
	}
	if e := a.Entries[0]; !bytes.Equal(e.Data, b) || e.NameHash != 0xCAFE || e.Size != uint64(len(b)) {
		t.Errorf("repacked entry = %s %#x size %d", e.Name, e.NameHash, e.Size)
	}
	if a.Entries[1].Time != 1700000000 || a.Entries[1].Name != `gfx\menu\back.anb` {
		t.Errorf("entry 1 = %+v", a.Entries[1].FileHeader)
	}
}

func TestUnpackArchiveUnsafeNames(t *testing.T) {
	for _, name := range []string{"../escape.anb", "/abs.anb", `..\up.anb`, MetadataFile, ""} {
		t.Run(name, func(t *testing.T) {
			path, _ := writeArchive(t,
				pak.NewEntry("ok.anb", 1, []byte("x")),
				pak.NewEntry(name, 2, []byte("y")),
			)
			if _, err := UnpackArchive(path, Options{}); !errors.Is(err, pak.ErrFormat) {
				t.Errorf("UnpackArchive = %v, want ErrFormat", err)
			}
			if _, err := os.Stat(outputDir(path)); !os.IsNotExist(err) {
				t.Error("failed unpack left a directory behind")
			}
		})
	}
}

func TestPackArchiveMissing(t *testing.T) {
	path, _ := writeArchive(t,
		pak.NewEntry("a.anb", 1, []byte("a")),
		pak.NewEntry("sub/b.anb", 2, []byte("b")),
		pak.NewEntry("c.anb", 3, []byte("c")),
	)
	dir, err := UnpackArchive(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	gone := []string{filepath.Join(dir, "a.anb"), filepath.Join(dir, "c.anb")}
	for _, p := range gone {
		if err := os.Remove(p); err != nil {
			t.Fatal(err)
		}
	}
	_, err = PackArchive(dir, Options{})
	var me *ledger.MissingPayloadFileError
	if !errors.As(err, &me) || len(me.Paths) != 2 || me.Paths[0] != gone[0] || me.Paths[1] != gone[1] {
		t.Errorf("PackArchive = %v, want both files missing", err)
	}
}
