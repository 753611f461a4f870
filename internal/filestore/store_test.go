package filestore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/logger"
	"github.com/djklmr2025/cosmos-den/internal/pathguard"
	"github.com/djklmr2025/cosmos-den/internal/policy"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	guard, err := pathguard.New(t.TempDir(), nil, logger.Discard())
	if err != nil {
		t.Fatalf("pathguard.New: %v", err)
	}
	s, err := New(Options{
		Guard:      guard,
		Extensions: policy.NewExtensionPolicy(),
		Logger:     logger.Discard(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, guard.Root()
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func wantKind(t *testing.T, err error, kind fault.Kind) {
	t.Helper()
	if got := fault.KindOf(err); got != kind {
		t.Fatalf("kind = %q (%v), want %q", got, err, kind)
	}
}

func TestCreateThenRead(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.Create("app.py", "print(1)", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.Created || created.Size != 8 || created.Digest == "" {
		t.Errorf("unexpected create result %+v", created)
	}

	read, err := s.Read("app.py")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if read.Content != "print(1)" || read.Size != 8 || read.Lines != 1 {
		t.Errorf("unexpected read result %+v", read)
	}
}

func TestCreate_ParentsAndNoSuffix(t *testing.T) {
	s, root := newTestStore(t)

	for _, p := range []string{"src/components/App.jsx", "Makefile", ".gitignore", "config/.env"} {
		if _, err := s.Create(p, "x", false); err != nil {
			t.Errorf("Create(%q): %v", p, err)
		}
		if _, err := os.Stat(filepath.Join(root, p)); err != nil {
			t.Errorf("%s not written: %v", p, err)
		}
	}
}

func TestCreate_ExistingWithoutOverwrite(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "main.go", "original")

	_, err := s.Create("main.go", "replacement", false)
	wantKind(t, err, fault.KindAlreadyExists)

	data, _ := os.ReadFile(filepath.Join(root, "main.go"))
	if string(data) != "original" {
		t.Errorf("existing file changed to %q", data)
	}

	res, err := s.Create("main.go", "replacement", true)
	if err != nil {
		t.Fatalf("Create with overwrite: %v", err)
	}
	if res.Created {
		t.Error("overwrite reported as created")
	}
	data, _ = os.ReadFile(filepath.Join(root, "main.go"))
	if string(data) != "replacement" {
		t.Errorf("overwrite not applied: %q", data)
	}
}

func TestCreate_RejectedExtension(t *testing.T) {
	s, root := newTestStore(t)

	_, err := s.Create("x.exe", "bin", false)
	wantKind(t, err, fault.KindPolicyRejected)
	if _, statErr := os.Stat(filepath.Join(root, "x.exe")); !os.IsNotExist(statErr) {
		t.Error("rejected file was written")
	}
}

func TestOperations_RejectEscapes(t *testing.T) {
	s, root := newTestStore(t)
	outside := t.TempDir()
	writeFile(t, outside, "secret.txt", "top secret")
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	for _, p := range []string{"../evil.txt", "/etc/passwd", "link/secret.txt", "link/new.txt"} {
		_, err := s.Create(p, "x", true)
		wantKind(t, err, fault.KindPolicyRejected)
		_, err = s.Read(p)
		wantKind(t, err, fault.KindPolicyRejected)
		_, err = s.Update(p, "x")
		wantKind(t, err, fault.KindPolicyRejected)
		_, err = s.Delete(p, true)
		wantKind(t, err, fault.KindPolicyRejected)
	}

	if _, err := os.Stat(filepath.Join(outside, "new.txt")); !os.IsNotExist(err) {
		t.Error("write escaped through symlink")
	}
	data, _ := os.ReadFile(filepath.Join(outside, "secret.txt"))
	if string(data) != "top secret" {
		t.Error("outside file modified")
	}
}

func TestUpdate_WritesBackup(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "notes.md", "v1")

	res, err := s.Update("notes.md", "v2")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Backup != "notes.md.bak" {
		t.Errorf("Backup = %q", res.Backup)
	}

	bak, _ := os.ReadFile(filepath.Join(root, "notes.md.bak"))
	live, _ := os.ReadFile(filepath.Join(root, "notes.md"))
	if string(bak) != "v1" || string(live) != "v2" {
		t.Errorf("bak=%q live=%q", bak, live)
	}

	if _, err := s.Update("notes.md", "v3"); err != nil {
		t.Fatal(err)
	}
	bak, _ = os.ReadFile(filepath.Join(root, "notes.md.bak"))
	if string(bak) != "v2" {
		t.Errorf("backup should hold the previous version, got %q", bak)
	}
}

func TestUpdate_Missing(t *testing.T) {
	s, root := newTestStore(t)
	_, err := s.Update("missing.txt", "x")
	wantKind(t, err, fault.KindNotFound)
	if _, statErr := os.Stat(filepath.Join(root, "missing.txt")); !os.IsNotExist(statErr) {
		t.Error("update created a file")
	}
}

func TestDelete(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "src/old.js", "console.log(1)")

	_, err := s.Delete("src/old.js", false)
	wantKind(t, err, fault.KindInvalidRequest)
	if _, statErr := os.Stat(filepath.Join(root, "src/old.js")); statErr != nil {
		t.Fatal("unconfirmed delete removed the file")
	}

	res, err := s.Delete("src/old.js", true)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "src/old.js")); !os.IsNotExist(statErr) {
		t.Error("file still at original location")
	}
	if !strings.HasPrefix(res.TrashPath, TrashDir+"/old_") || !strings.HasSuffix(res.TrashPath, ".js") {
		t.Errorf("TrashPath = %q", res.TrashPath)
	}
	trashed, err := os.ReadFile(filepath.Join(root, res.TrashPath))
	if err != nil || !bytes.Equal(trashed, []byte("console.log(1)")) {
		t.Errorf("trash copy = %q, %v", trashed, err)
	}

	_, err = s.Delete("src/old.js", true)
	wantKind(t, err, fault.KindNotFound)

	manifest, err := s.TrashManifest()
	if err != nil {
		t.Fatal(err)
	}
	if len(manifest) != 1 || manifest[0].Original != "src/old.js" || manifest[0].Digest != res.Digest {
		t.Errorf("manifest = %+v", manifest)
	}
}

func TestDelete_SameNameTwice(t *testing.T) {
	s, root := newTestStore(t)

	var trashPaths []string
	for i := 0; i < 2; i++ {
		writeFile(t, root, "a.txt", "x")
		res, err := s.Delete("a.txt", true)
		if err != nil {
			t.Fatal(err)
		}
		trashPaths = append(trashPaths, res.TrashPath)
	}
	if trashPaths[0] == trashPaths[1] {
		t.Errorf("trash names collided: %v", trashPaths)
	}
}

func TestDelete_RootAndTrash(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "a.txt", "x")
	res, err := s.Delete("a.txt", true)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Delete(".", true)
	wantKind(t, err, fault.KindInvalidRequest)
	_, err = s.Delete(res.TrashPath, true)
	wantKind(t, err, fault.KindInvalidRequest)
}

func TestDelete_SymlinkMovesLink(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "real.txt", "data")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "alias.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := s.Delete("alias.txt", true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Type != TypeSymlink {
		t.Errorf("Type = %q", res.Type)
	}
	if _, err := os.Stat(filepath.Join(root, "real.txt")); err != nil {
		t.Error("link target was moved")
	}
}

func TestRead_Limits(t *testing.T) {
	s, root := newTestStore(t)

	big := filepath.Join(root, "big.txt")
	f, err := os.Create(big)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(MaxReadBytes + 1); err != nil {
		t.Fatal(err)
	}
	f.Close()
	_, err = s.Read("big.txt")
	wantKind(t, err, fault.KindTooLarge)

	if err := os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0xff, 0xfe, 0x00}, 0644); err != nil {
		t.Fatal(err)
	}
	_, err = s.Read("bin.dat")
	wantKind(t, err, fault.KindEncodingError)

	_, err = s.Read("nope.txt")
	wantKind(t, err, fault.KindNotFound)
	if !errors.Is(err, fault.ErrNotFound) {
		t.Error("expected errors.Is ErrNotFound")
	}

	if err := os.Mkdir(filepath.Join(root, "dir"), 0755); err != nil {
		t.Fatal(err)
	}
	_, err = s.Read("dir")
	wantKind(t, err, fault.KindInvalidRequest)
}

func TestMkdir(t *testing.T) {
	s, root := newTestStore(t)

	res, err := s.Mkdir("a/b/c")
	if err != nil || !res.Created || res.Path != "a/b/c" {
		t.Fatalf("Mkdir = %+v, %v", res, err)
	}
	res, err = s.Mkdir("a/b/c")
	if err != nil || res.Created {
		t.Errorf("second Mkdir = %+v, %v", res, err)
	}

	writeFile(t, root, "file.txt", "x")
	_, err = s.Mkdir("file.txt")
	wantKind(t, err, fault.KindAlreadyExists)
}
